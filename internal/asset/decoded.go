package asset

import (
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/prismrt/assetforge/internal/imagedec"
)

// decodedData keeps a fully decoded image resident in CPU memory for its
// whole lifetime. It is the fallback used when no faster source matched.
type decodedData struct {
	img  *imagedec.Image
	info Info
}

func loadDecoded(filename string) (*decodedData, error) {
	img, err := imagedec.Load(filename)
	if err != nil {
		return nil, err
	}

	d := &decodedData{img: img}

	ext := img.ExtentAt(0)
	d.info = Info{
		Type:              decodedType(img.Kind()),
		Compression:       CompressionNone,
		Format:            img.Format(),
		Extent:            Extent{Width: ext.Width, Height: ext.Height, Depth: ext.Depth},
		MipLevels:         img.Levels(),
		MinLevelsToUpload: min(mipLevelsToCache, img.Levels()),
		NumLayers:         img.Layers(),
		Filename:          filename,
		Hash:              xxhash.Sum64String(filename),
	}
	if fi, err := os.Stat(filename); err == nil {
		d.info.LastWriteTime = fi.ModTime()
	}

	return d, nil
}

func decodedType(k imagedec.Kind) Type {
	switch k {
	case imagedec.Kind1D:
		return TypeImage1D
	case imagedec.Kind3D:
		return TypeImage3D
	}
	return TypeImage2D
}

func (d *decodedData) Info() Info { return d.info }

func (d *decodedData) Data(layer, level int) ([]byte, error) {
	b := d.img.Data(layer, level)
	if b == nil {
		return nil, fmt.Errorf("no decoded data for layer %d level %d of %s",
			layer, level, d.info.Filename)
	}
	return b, nil
}

// EvictCache is a no-op: decoded pixel data stays resident by design.
func (d *decodedData) EvictCache(layer, level int) {}

// ReleaseSource is a no-op: there is no open OS resource after decode.
func (d *decodedData) ReleaseSource() {}

func (d *decodedData) Placement(layer, face, level int) (offset uint64, size uint64) {
	panic("asset: placement is not supported for decoded image data")
}
