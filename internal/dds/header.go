package dds

// On-disk DDS container layout. All fields are little-endian. Reference:
// https://learn.microsoft.com/en-us/windows/win32/direct3ddds/dx-graphics-dds-pguide

// Magic is the four-byte signature at the start of every DDS file.
var Magic = [4]byte{'D', 'D', 'S', ' '}

const (
	headerSize     = 124
	pixelFmtSize   = 32
	dx10HeaderSize = 20
)

// header flags
const (
	flagMipMapCount = 0x20000
)

// pixel format flags
const (
	pfFourCC = 0x4
)

// caps2 flags
const (
	caps2Cubemap         = 0x200
	caps2CubemapAllFaces = 0xfc00
	caps2Volume          = 0x200000
)

func fourCC(s string) uint32 {
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

var (
	fourCCDX10 = fourCC("DX10")
	fourCCDXT1 = fourCC("DXT1")
	fourCCDXT3 = fourCC("DXT3")
	fourCCDXT5 = fourCC("DXT5")
	fourCCATI1 = fourCC("ATI1")
	fourCCATI2 = fourCC("ATI2")
)

type pixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      uint32
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

type header struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	Format            pixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

type headerDX10 struct {
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

// resolveFormat maps the header pair onto a DXGI format code. DX10 headers
// carry the code directly; legacy headers are recognized by fourCC or by the
// RGB bit masks of the common uncompressed layouts.
func resolveFormat(h *header, h10 *headerDX10) Format {
	if h10 != nil {
		return Format(h10.DXGIFormat)
	}

	if h.Format.Flags&pfFourCC != 0 {
		switch h.Format.FourCC {
		case fourCCDXT1:
			return FormatBC1Unorm
		case fourCCDXT3:
			return FormatBC2Unorm
		case fourCCDXT5:
			return FormatBC3Unorm
		case fourCCATI1:
			return FormatBC4Unorm
		case fourCCATI2:
			return FormatBC5Unorm
		}
		return FormatUnknown
	}

	switch h.Format.RGBBitCount {
	case 32:
		if h.Format.RBitMask == 0x00ff0000 {
			return FormatB8G8R8A8Unorm
		}
		return FormatR8G8B8A8Unorm
	case 8:
		return FormatR8Unorm
	}

	return FormatUnknown
}
