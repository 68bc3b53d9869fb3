package dds

import "fmt"

// Format identifies a pixel format using DXGI format codes, which is what
// both DX10 DDS files and package asset descriptors carry on disk.
type Format uint32

const (
	FormatUnknown       Format = 0
	FormatR16G16B16A16F Format = 10
	FormatR8G8B8A8Unorm Format = 28
	FormatR8G8B8A8Srgb  Format = 29
	FormatR16F          Format = 54
	FormatR8Unorm       Format = 61
	FormatBC1Unorm      Format = 71
	FormatBC1Srgb       Format = 72
	FormatBC2Unorm      Format = 74
	FormatBC2Srgb       Format = 75
	FormatBC3Unorm      Format = 77
	FormatBC3Srgb       Format = 78
	FormatBC4Unorm      Format = 80
	FormatBC5Unorm      Format = 83
	FormatB8G8R8A8Unorm Format = 87
	FormatB8G8R8A8Srgb  Format = 91
	FormatBC6HUF16      Format = 95
	FormatBC7Unorm      Format = 98
	FormatBC7Srgb       Format = 99
)

type formatLayout struct {
	blockSize          uint32
	blockWidth, blockH uint32
}

var formatLayouts = map[Format]formatLayout{
	FormatR16G16B16A16F: {8, 1, 1},
	FormatR8G8B8A8Unorm: {4, 1, 1},
	FormatR8G8B8A8Srgb:  {4, 1, 1},
	FormatR16F:          {2, 1, 1},
	FormatR8Unorm:       {1, 1, 1},
	FormatBC1Unorm:      {8, 4, 4},
	FormatBC1Srgb:       {8, 4, 4},
	FormatBC2Unorm:      {16, 4, 4},
	FormatBC2Srgb:       {16, 4, 4},
	FormatBC3Unorm:      {16, 4, 4},
	FormatBC3Srgb:       {16, 4, 4},
	FormatBC4Unorm:      {8, 4, 4},
	FormatBC5Unorm:      {16, 4, 4},
	FormatB8G8R8A8Unorm: {4, 1, 1},
	FormatB8G8R8A8Srgb:  {4, 1, 1},
	FormatBC6HUF16:      {16, 4, 4},
	FormatBC7Unorm:      {16, 4, 4},
	FormatBC7Srgb:       {16, 4, 4},
}

// Supported reports whether block layout information is known for the format.
func (f Format) Supported() bool {
	_, ok := formatLayouts[f]
	return ok
}

// BlockSize returns the byte size of one compressed block (or one texel for
// uncompressed formats).
func (f Format) BlockSize() uint32 {
	if l, ok := formatLayouts[f]; ok {
		return l.blockSize
	}
	return 0
}

// BlockExtent returns the texel dimensions of one compressed block.
// Uncompressed formats report 1x1.
func (f Format) BlockExtent() (w, h uint32) {
	if l, ok := formatLayouts[f]; ok {
		return l.blockWidth, l.blockH
	}
	return 1, 1
}

func (f Format) String() string {
	switch f {
	case FormatR16G16B16A16F:
		return "R16G16B16A16_FLOAT"
	case FormatR8G8B8A8Unorm:
		return "R8G8B8A8_UNORM"
	case FormatR8G8B8A8Srgb:
		return "R8G8B8A8_UNORM_SRGB"
	case FormatR16F:
		return "R16_FLOAT"
	case FormatR8Unorm:
		return "R8_UNORM"
	case FormatBC1Unorm:
		return "BC1_UNORM"
	case FormatBC1Srgb:
		return "BC1_UNORM_SRGB"
	case FormatBC2Unorm:
		return "BC2_UNORM"
	case FormatBC2Srgb:
		return "BC2_UNORM_SRGB"
	case FormatBC3Unorm:
		return "BC3_UNORM"
	case FormatBC3Srgb:
		return "BC3_UNORM_SRGB"
	case FormatBC4Unorm:
		return "BC4_UNORM"
	case FormatBC5Unorm:
		return "BC5_UNORM"
	case FormatB8G8R8A8Unorm:
		return "B8G8R8A8_UNORM"
	case FormatB8G8R8A8Srgb:
		return "B8G8R8A8_UNORM_SRGB"
	case FormatBC6HUF16:
		return "BC6H_UF16"
	case FormatBC7Unorm:
		return "BC7_UNORM"
	case FormatBC7Srgb:
		return "BC7_UNORM_SRGB"
	}
	return fmt.Sprintf("DXGI_FORMAT(%d)", uint32(f))
}
