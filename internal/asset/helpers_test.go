package asset

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prismrt/assetforge/internal/pkgfile"
)

// writeRGBADDS writes an uncompressed R8G8B8A8 DDS file with the given
// dimensions and mip count, payload zeroed, sized to exactly fit.
func writeRGBADDS(t *testing.T, dir, name string, width, height, mips uint32) string {
	t.Helper()

	head := make([]byte, 128)
	copy(head, "DDS ")
	le := binary.LittleEndian
	le.PutUint32(head[4:], 124)     // header size
	le.PutUint32(head[8:], 0x20000) // DDSD_MIPMAPCOUNT
	le.PutUint32(head[12:], height)
	le.PutUint32(head[16:], width)
	le.PutUint32(head[28:], mips)
	le.PutUint32(head[76:], 32) // pixel format size
	le.PutUint32(head[88:], 32) // RGB bit count
	le.PutUint32(head[92:], 0x000000ff)
	le.PutUint32(head[96:], 0x0000ff00)
	le.PutUint32(head[100:], 0x00ff0000)
	le.PutUint32(head[104:], 0xff000000)

	var payload uint32
	for level := uint32(0); level < mips; level++ {
		w := max(width>>level, 1)
		h := max(height>>level, 1)
		payload += w * h * 4
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, append(head, make([]byte, payload)...), 0o644))
	return path
}

// writePNG writes a small opaque PNG for exercising the decode fallback.
func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

// writeTestPackage builds a package holding single-mip assets, one blob per
// entry, keyed by relative path with the given payloads.
func writeTestPackage(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()

	w, err := pkgfile.NewWriter(path)
	require.NoError(t, err)
	for rel, payload := range entries {
		idx, err := w.AddBlob(payload, pkgfile.CompressionNone)
		require.NoError(t, err)
		_, err = w.AddAsset(rel, pkgfile.AssetDesc{
			Kind:        pkgfile.KindImage2D,
			Format:      uint32(28),
			Width:       4,
			Height:      4,
			NumMips:     1,
			ArraySize:   1,
			BaseBlobIdx: idx,
			Size:        uint64(len(payload)),
		})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}
