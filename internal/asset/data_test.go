package asset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDDSDataServesLevels(t *testing.T) {
	dir := t.TempDir()
	path := writeRGBADDS(t, dir, "wall.dds", 8, 8, 4)

	d, err := loadDDS(path)
	require.NoError(t, err)
	defer d.ReleaseSource()

	info := d.Info()
	assert.Equal(t, TypeImage2D, info.Type)
	assert.Equal(t, uint32(8), info.Extent.Width)
	assert.Equal(t, 4, info.MipLevels)
	assert.Equal(t, 1, info.NumLayers)
	assert.NotZero(t, info.Hash)
	assert.False(t, info.LastWriteTime.IsZero())

	sizes := []int{256, 64, 16, 4}
	for level, want := range sizes {
		data, err := d.Data(0, level)
		require.NoError(t, err)
		assert.Len(t, data, want)
	}
}

func TestDDSDataMinLevelsToUploadIsCapped(t *testing.T) {
	dir := t.TempDir()

	tall, err := loadDDS(writeRGBADDS(t, dir, "tall.dds", 256, 256, 9))
	require.NoError(t, err)
	defer tall.ReleaseSource()
	assert.Equal(t, mipLevelsToCache, tall.Info().MinLevelsToUpload)

	small, err := loadDDS(writeRGBADDS(t, dir, "small.dds", 4, 4, 2))
	require.NoError(t, err)
	defer small.ReleaseSource()
	assert.Equal(t, 2, small.Info().MinLevelsToUpload)
}

func TestDDSDataReleaseSourceIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeRGBADDS(t, dir, "wall.dds", 4, 4, 1)

	d, err := loadDDS(path)
	require.NoError(t, err)

	_, err = d.Data(0, 0)
	require.NoError(t, err)

	d.ReleaseSource()
	d.ReleaseSource()

	// A later access remaps the file.
	data, err := d.Data(0, 0)
	require.NoError(t, err)
	assert.Len(t, data, 64)
	d.ReleaseSource()
}

func TestDDSDataPlacementMatchesParser(t *testing.T) {
	dir := t.TempDir()
	path := writeRGBADDS(t, dir, "wall.dds", 8, 8, 4)

	d, err := loadDDS(path)
	require.NoError(t, err)
	defer d.ReleaseSource()

	offset, size := d.Placement(0, 0, 1)
	assert.Equal(t, uint64(128+256), offset)
	assert.Equal(t, uint64(64), size)
}

func TestDecodedDataFromPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.png")
	writePNG(t, path, 6, 5)

	d, err := loadDecoded(path)
	require.NoError(t, err)
	defer d.ReleaseSource()

	info := d.Info()
	assert.Equal(t, TypeImage2D, info.Type)
	assert.Equal(t, uint32(6), info.Extent.Width)
	assert.Equal(t, uint32(5), info.Extent.Height)
	assert.Equal(t, 1, info.MipLevels)

	data, err := d.Data(0, 0)
	require.NoError(t, err)
	assert.Len(t, data, 6*5*4)

	_, err = d.Data(0, 3)
	require.Error(t, err)
}

func TestDecodedDataPlacementPanics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.png")
	writePNG(t, path, 4, 4)

	d, err := loadDecoded(path)
	require.NoError(t, err)

	assert.Panics(t, func() { d.Placement(0, 0, 0) })
}

func TestSourceOf(t *testing.T) {
	dir := t.TempDir()

	mapped, err := loadDDS(writeRGBADDS(t, dir, "wall.dds", 4, 4, 1))
	require.NoError(t, err)
	defer mapped.ReleaseSource()
	assert.Equal(t, "dds", SourceOf(mapped))

	pngPath := filepath.Join(dir, "fallback.png")
	writePNG(t, pngPath, 4, 4)
	dec, err := loadDecoded(pngPath)
	require.NoError(t, err)
	assert.Equal(t, "decoded", SourceOf(dec))
}
