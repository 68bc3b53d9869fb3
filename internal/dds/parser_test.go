package dds

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeDDS assembles a DDS file from its parts and writes it to a temp dir.
func writeDDS(t *testing.T, h header, h10 *headerDX10, payload []byte) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, Magic))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, h))
	if h10 != nil {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, *h10))
	}
	buf.Write(payload)

	path := filepath.Join(t.TempDir(), "image.dds")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func rgbaHeader(w, h, mips uint32) header {
	return header{
		Size:        headerSize,
		Flags:       flagMipMapCount,
		Height:      h,
		Width:       w,
		MipMapCount: mips,
		Format: pixelFormat{
			Size:        pixelFmtSize,
			RGBBitCount: 32,
			RBitMask:    0x000000ff,
			GBitMask:    0x0000ff00,
			BBitMask:    0x00ff0000,
			ABitMask:    0xff000000,
		},
	}
}

func fourCCHeader(w, h, mips, fcc uint32) header {
	return header{
		Size:        headerSize,
		Flags:       flagMipMapCount,
		Height:      h,
		Width:       w,
		MipMapCount: mips,
		Format: pixelFormat{
			Size:   pixelFmtSize,
			Flags:  pfFourCC,
			FourCC: fcc,
		},
	}
}

func TestParseUncompressedMipChain(t *testing.T) {
	// 8x8 RGBA with 4 mips: 256 + 64 + 16 + 4 bytes.
	path := writeDDS(t, rgbaHeader(8, 8, 4), nil, make([]byte, 340))

	p := NewParser(path)
	require.NoError(t, p.Parse())

	assert.Equal(t, FormatR8G8B8A8Unorm, p.Format())
	assert.Equal(t, uint32(8), p.Width())
	assert.Equal(t, uint32(8), p.Height())
	assert.Equal(t, 4, p.Levels())
	assert.Equal(t, 1, p.Layers())
	assert.Equal(t, 1, p.Faces())
	assert.Equal(t, uint64(340), p.SizeOfAllLevels())

	assert.Equal(t, uint64(256), p.LevelSize(0))
	assert.Equal(t, uint64(64), p.LevelSize(1))
	assert.Equal(t, uint64(16), p.LevelSize(2))
	assert.Equal(t, uint64(4), p.LevelSize(3))
}

func TestPlacementLevelsAreContiguous(t *testing.T) {
	path := writeDDS(t, rgbaHeader(8, 8, 4), nil, make([]byte, 340))

	p := NewParser(path)
	require.NoError(t, p.Parse())

	next := uint64(p.DataOffset())
	var total uint64
	for level := 0; level < p.Levels(); level++ {
		offset, size := p.Placement(0, 0, level)
		assert.Equal(t, next, offset, "level %d must start where level %d ended", level, level-1)
		next = offset + size
		total += size
	}
	assert.Equal(t, p.SizeOfAllLevels(), total)
	assert.Equal(t, uint64(p.DataOffset())+p.SizeOfAllLevels(), next)
}

func TestParseDX10ArrayTexture(t *testing.T) {
	h := fourCCHeader(16, 16, 1, fourCCDX10)
	h10 := &headerDX10{
		DXGIFormat: uint32(FormatBC1Unorm),
		ArraySize:  3,
	}
	// BC1 16x16 is 4x4 blocks of 8 bytes = 128 per layer.
	path := writeDDS(t, h, h10, make([]byte, 3*128))

	p := NewParser(path)
	require.NoError(t, p.Parse())

	assert.Equal(t, FormatBC1Unorm, p.Format())
	assert.Equal(t, 3, p.Layers())
	assert.Equal(t, uint64(128), p.SizeOfAllLevels())

	// Each layer starts one full mip chain after the previous.
	off0, _ := p.Placement(0, 0, 0)
	off1, _ := p.Placement(1, 0, 0)
	off2, _ := p.Placement(2, 0, 0)
	assert.Equal(t, off0+128, off1)
	assert.Equal(t, off1+128, off2)
}

func TestParseCubemapFaces(t *testing.T) {
	h := rgbaHeader(4, 4, 1)
	h.Caps2 = caps2Cubemap | caps2CubemapAllFaces
	// 4x4 RGBA = 64 bytes per face, six faces.
	path := writeDDS(t, h, nil, make([]byte, 6*64))

	p := NewParser(path)
	require.NoError(t, p.Parse())

	assert.Equal(t, 6, p.Faces())
	for face := 0; face < 6; face++ {
		offset, size := p.Placement(0, face, 0)
		assert.Equal(t, uint64(p.DataOffset())+uint64(face)*64, offset)
		assert.Equal(t, uint64(64), size)
	}
}

func TestParseLegacyFourCC(t *testing.T) {
	cases := []struct {
		fcc  uint32
		want Format
		size uint64 // one 8x8 level
	}{
		{fourCCDXT1, FormatBC1Unorm, 32},
		{fourCCDXT3, FormatBC2Unorm, 64},
		{fourCCDXT5, FormatBC3Unorm, 64},
		{fourCCATI1, FormatBC4Unorm, 32},
		{fourCCATI2, FormatBC5Unorm, 64},
	}
	for _, tc := range cases {
		path := writeDDS(t, fourCCHeader(8, 8, 1, tc.fcc), nil, make([]byte, tc.size))
		p := NewParser(path)
		require.NoError(t, p.Parse())
		assert.Equal(t, tc.want, p.Format())
		assert.Equal(t, tc.size, p.SizeOfAllLevels())
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.dds")
	data := make([]byte, 4+headerSize)
	copy(data, "FAKE")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	p := NewParser(path)
	err := p.Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a DDS file")
}

func TestParseRejectsTruncatedPayload(t *testing.T) {
	// Header claims 340 payload bytes but only 100 are present.
	path := writeDDS(t, rgbaHeader(8, 8, 4), nil, make([]byte, 100))

	p := NewParser(path)
	err := p.Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupted")
}

func TestParseRejectsExcessiveMipCount(t *testing.T) {
	path := writeDDS(t, rgbaHeader(8, 8, maxMipLevels+1), nil, make([]byte, 1<<20))

	p := NewParser(path)
	err := p.Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mip levels exceed")
}

func TestParseRejectsUnknownFormat(t *testing.T) {
	h := fourCCHeader(8, 8, 1, fourCC("XXXX"))
	path := writeDDS(t, h, nil, make([]byte, 64))

	p := NewParser(path)
	require.Error(t, p.Parse())
}

func TestHandleReopenAfterClose(t *testing.T) {
	path := writeDDS(t, rgbaHeader(4, 4, 1), nil, make([]byte, 64))

	p := NewParser(path)
	require.NoError(t, p.Parse())

	p.CloseHandle()
	p.CloseHandle()

	f, err := p.OpenHandle()
	require.NoError(t, err)
	require.NotNil(t, f)
	p.CloseHandle()
}
