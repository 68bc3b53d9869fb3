package pkgfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPackage(t *testing.T, build func(w *Writer)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pkg")
	w, err := NewWriter(path)
	require.NoError(t, err)
	build(w)
	require.NoError(t, w.Close())
	return path
}

func TestWriterReaderRoundtrip(t *testing.T) {
	blob0 := []byte("mip level zero data")
	blob1 := []byte("mip level one")

	path := buildPackage(t, func(w *Writer) {
		i0, err := w.AddBlob(blob0, CompressionNone)
		require.NoError(t, err)
		i1, err := w.AddBlob(blob1, CompressionNone)
		require.NoError(t, err)
		require.Equal(t, uint32(0), i0)
		require.Equal(t, uint32(1), i1)

		_, err = w.AddAsset("textures/wall.dds", AssetDesc{
			Kind:        KindImage2D,
			Format:      71,
			Width:       64,
			Height:      64,
			NumMips:     2,
			ArraySize:   1,
			BaseBlobIdx: i0,
		})
		require.NoError(t, err)
	})

	pkg, err := Open(path)
	require.NoError(t, err)
	defer pkg.Close()

	assert.Equal(t, 1, pkg.AssetCount())

	idx := pkg.FindAsset("textures/wall.dds")
	require.NotEqual(t, NoAssetIndex, idx)

	desc := pkg.GetAssetDesc(idx)
	require.NotNil(t, desc)
	assert.Equal(t, KindImage2D, desc.Kind)
	assert.Equal(t, uint32(64), desc.Width)
	assert.Equal(t, uint16(2), desc.NumMips)

	got0, err := pkg.ReadDataBlob(0)
	require.NoError(t, err)
	assert.Equal(t, blob0, got0)

	got1, err := pkg.ReadDataBlob(1)
	require.NoError(t, err)
	assert.Equal(t, blob1, got1)
}

func TestFindAssetIsCaseAndSeparatorInsensitive(t *testing.T) {
	path := buildPackage(t, func(w *Writer) {
		_, err := w.AddBlob([]byte{1}, CompressionNone)
		require.NoError(t, err)
		_, err = w.AddAsset("Textures/Wall.DDS", AssetDesc{NumMips: 1, ArraySize: 1})
		require.NoError(t, err)
	})

	pkg, err := Open(path)
	require.NoError(t, err)
	defer pkg.Close()

	want := pkg.FindAsset("Textures/Wall.DDS")
	require.NotEqual(t, NoAssetIndex, want)

	assert.Equal(t, want, pkg.FindAsset("textures/wall.dds"))
	assert.Equal(t, want, pkg.FindAsset("TEXTURES\\WALL.DDS"))
	assert.Equal(t, NoAssetIndex, pkg.FindAsset("textures/roof.dds"))
}

func TestAddAssetRejectsDuplicatePaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.pkg")
	w, err := NewWriter(path)
	require.NoError(t, err)

	_, err = w.AddBlob([]byte{1}, CompressionNone)
	require.NoError(t, err)
	_, err = w.AddAsset("a/b.dds", AssetDesc{})
	require.NoError(t, err)

	// Same path modulo case and separators hashes identically.
	_, err = w.AddAsset("A\\B.DDS", AssetDesc{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	require.NoError(t, w.Close())
}

func TestDecompressDataBlob(t *testing.T) {
	// Compressible payload so deflate actually shrinks it.
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i % 7)
	}

	path := buildPackage(t, func(w *Writer) {
		_, err := w.AddBlob(payload, CompressionGDeflate)
		require.NoError(t, err)
	})

	pkg, err := Open(path)
	require.NoError(t, err)
	defer pkg.Close()

	desc := pkg.GetDataBlobDesc(0)
	require.NotNil(t, desc)
	assert.Equal(t, CompressionGDeflate, desc.Compression)
	assert.Equal(t, uint64(len(payload)), desc.UncompressedSize)
	assert.Less(t, desc.Size, uint64(len(payload)))

	// Raw read returns the stored (compressed) bytes untouched.
	raw, err := pkg.ReadDataBlob(0)
	require.NoError(t, err)
	assert.Equal(t, desc.Size, uint64(len(raw)))

	got, err := pkg.DecompressDataBlob(0)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestOpenRejectsCorruptedPackages(t *testing.T) {
	t.Run("bad magic", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.pkg")
		require.NoError(t, os.WriteFile(path, make([]byte, 64), 0o644))

		_, err := Open(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid signature")
	})

	t.Run("truncated tables", func(t *testing.T) {
		path := buildPackage(t, func(w *Writer) {
			_, err := w.AddBlob(make([]byte, 256), CompressionNone)
			require.NoError(t, err)
			_, err = w.AddAsset("x.dds", AssetDesc{})
			require.NoError(t, err)
		})

		full, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, full[:len(full)-16], 0o644))

		_, err = Open(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "corrupted")
	})

	t.Run("too short for header", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "short.pkg")
		require.NoError(t, os.WriteFile(path, []byte("RTPK"), 0o644))

		_, err := Open(path)
		require.Error(t, err)
	})
}

func TestWriterRejectsDanglingBlobIndices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dangle.pkg")
	w, err := NewWriter(path)
	require.NoError(t, err)

	_, err = w.AddAsset("x.dds", AssetDesc{BaseBlobIdx: 5})
	require.NoError(t, err)

	err = w.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "references blobs")
}

func TestMurmurHash64A(t *testing.T) {
	assert.Equal(t, MurmurHash64A(nil, 0), MurmurHash64A([]byte{}, 0))
	assert.NotEqual(t, MurmurHash64A([]byte("a"), 0), MurmurHash64A([]byte("b"), 0))
	assert.NotEqual(t, MurmurHash64A([]byte("a"), 1), MurmurHash64A([]byte("a"), 2))

	// Tail handling: every remainder length from 1 to 8 must hash distinctly.
	seen := map[uint64]bool{}
	for n := 1; n <= 8; n++ {
		h := MurmurHash64A(make([]byte, n), pathHashSeed)
		assert.False(t, seen[h], "length %d collided", n)
		seen[h] = true
	}
}

func TestHashPathNormalization(t *testing.T) {
	want := HashPath("textures/wall.dds")
	assert.Equal(t, want, HashPath("Textures/Wall.dds"))
	assert.Equal(t, want, HashPath("textures\\wall.dds"))
	assert.NotEqual(t, want, HashPath("textures/wall2.dds"))
}
