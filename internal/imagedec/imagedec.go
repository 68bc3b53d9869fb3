// Package imagedec fully decodes image files into CPU memory. It is the
// slow, broadest-compatibility load path: the whole image, every layer and
// level, stays resident for the lifetime of the decoded object.
package imagedec

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/prismrt/assetforge/internal/dds"
)

// Kind is the dimensionality of a decoded image.
type Kind int

const (
	Kind1D Kind = iota
	Kind2D
	Kind3D
)

// Extent is the texel size of one image level.
type Extent struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// Image is a fully decoded image. Level data slices stay valid for the
// lifetime of the Image.
type Image struct {
	kind   Kind
	format dds.Format
	extent Extent
	levels int
	layers int
	faces  int

	// layer-major, then face, then level
	data [][]byte
}

func (img *Image) Kind() Kind         { return img.kind }
func (img *Image) Format() dds.Format { return img.format }
func (img *Image) Levels() int        { return img.levels }
func (img *Image) Layers() int        { return img.layers }

// ExtentAt returns the texel size of the given level.
func (img *Image) ExtentAt(level int) Extent {
	return Extent{
		Width:  max(img.extent.Width>>level, 1),
		Height: max(img.extent.Height>>level, 1),
		Depth:  max(img.extent.Depth>>level, 1),
	}
}

// Data returns the pixel bytes of one layer/level, or nil when out of range.
// Cubemap faces are linearized into the layer index.
func (img *Image) Data(layer, level int) []byte {
	if layer < 0 || layer >= img.layers*img.faces || level < 0 || level >= img.levels {
		return nil
	}
	return img.data[layer*img.levels+level]
}

// Load decodes the file at path. DDS files keep their native format, mip
// chain and layers; other supported formats (PNG, JPEG, BMP, TIFF) decode to
// a single-level RGBA8 image.
func Load(path string) (*Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".dds") {
		return loadDDS(path)
	}
	return loadGeneric(path)
}

func loadDDS(path string) (*Image, error) {
	p := dds.NewParser(path)
	if err := p.Parse(); err != nil {
		return nil, err
	}

	f, err := p.OpenHandle()
	if err != nil {
		return nil, err
	}
	defer p.CloseHandle()

	img := &Image{
		format: p.Format(),
		extent: Extent{Width: p.Width(), Height: p.Height(), Depth: p.Depth()},
		levels: p.Levels(),
		layers: p.Layers(),
		faces:  p.Faces(),
	}

	switch {
	case p.Width() > 1 && p.Height() == 1 && p.Depth() == 1:
		img.kind = Kind1D
	case p.Depth() > 1:
		img.kind = Kind3D
	default:
		img.kind = Kind2D
	}

	for layer := 0; layer < p.Layers(); layer++ {
		for face := 0; face < p.Faces(); face++ {
			for level := 0; level < p.Levels(); level++ {
				offset, size := p.Placement(layer, face, level)
				buf := make([]byte, size)
				if _, err := f.ReadAt(buf, int64(offset)); err != nil {
					return nil, fmt.Errorf("reading level %d of %s: %w", level, path, err)
				}
				img.data = append(img.data, buf)
			}
		}
	}

	return img, nil
}

func loadGeneric(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	b := src.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, src, b.Min, draw.Src)

	return &Image{
		kind:   Kind2D,
		format: dds.FormatR8G8B8A8Unorm,
		extent: Extent{Width: uint32(b.Dx()), Height: uint32(b.Dy()), Depth: 1},
		levels: 1,
		layers: 1,
		faces:  1,
		data:   [][]byte{rgba.Pix},
	}, nil
}
