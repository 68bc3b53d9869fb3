// Package dds parses the DDS container format: enough of the header to
// recover the pixel format, mip/layer/face counts and the byte placement of
// every image level, without touching pixel data.
package dds

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"os"
	"syscall"
)

// ErrFileLimit reports that the process hit its open-file limit. Callers are
// expected to release unused asset sources to recover descriptor capacity,
// so this is surfaced as a distinct, fatal condition rather than retried.
var ErrFileLimit = errors.New("too many open files")

// maxMipLevels bounds the per-level size table. A 16-level chain covers
// textures up to 32768px on the long axis.
const maxMipLevels = 16

// Parser reads a DDS header and computes per-level byte placements.
type Parser struct {
	filename string
	file     *os.File

	fileSize   int64
	dataOffset int64

	format Format
	width  uint32
	height uint32
	depth  uint32
	levels int
	layers int
	faces  int

	levelSizes      []uint64
	sizeOfAllLevels uint64
}

func NewParser(filename string) *Parser {
	return &Parser{filename: filename}
}

// Parse validates the container and computes level placements. The file
// handle is closed before returning; data access goes through a separate
// mapping owned by the caller.
func (p *Parser) Parse() error {
	f, err := p.OpenHandle()
	if err != nil {
		return err
	}
	defer p.CloseHandle()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", p.filename, err)
	}
	p.fileSize = fi.Size()

	if p.fileSize < int64(len(Magic))+headerSize {
		return fmt.Errorf("%s: file too short for DDS header", p.filename)
	}

	var magic [4]byte
	if _, err := f.ReadAt(magic[:], 0); err != nil {
		return fmt.Errorf("reading DDS magic: %w", err)
	}
	if magic != Magic {
		return fmt.Errorf("%s: not a DDS file", p.filename)
	}

	var h header
	hs := make([]byte, headerSize)
	if _, err := f.ReadAt(hs, int64(len(Magic))); err != nil {
		return fmt.Errorf("reading DDS header: %w", err)
	}
	if err := binary.Read(bytes.NewReader(hs), binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("decoding DDS header: %w", err)
	}

	p.dataOffset = int64(len(Magic)) + headerSize

	var h10 *headerDX10
	if h.Format.Flags&pfFourCC != 0 && h.Format.FourCC == fourCCDX10 {
		if p.fileSize < p.dataOffset+dx10HeaderSize {
			return fmt.Errorf("%s: file too short for DX10 header", p.filename)
		}
		hs10 := make([]byte, dx10HeaderSize)
		if _, err := f.ReadAt(hs10, p.dataOffset); err != nil {
			return fmt.Errorf("reading DX10 header: %w", err)
		}
		h10 = &headerDX10{}
		if err := binary.Read(bytes.NewReader(hs10), binary.LittleEndian, h10); err != nil {
			return fmt.Errorf("decoding DX10 header: %w", err)
		}
		p.dataOffset += dx10HeaderSize
	}

	p.format = resolveFormat(&h, h10)
	if !p.format.Supported() {
		return fmt.Errorf("%s: unsupported pixel format", p.filename)
	}

	p.levels = 1
	if h.Flags&flagMipMapCount != 0 {
		p.levels = int(h.MipMapCount)
	}
	if p.levels < 1 {
		p.levels = 1
	}
	if p.levels > maxMipLevels {
		return fmt.Errorf("%s: %d mip levels exceed the supported maximum of %d",
			p.filename, p.levels, maxMipLevels)
	}

	p.layers = 1
	if h10 != nil && h10.ArraySize > 1 {
		p.layers = int(h10.ArraySize)
	}

	p.faces = 1
	if h.Caps2&caps2Cubemap != 0 {
		p.faces = bits.OnesCount32(h.Caps2 & caps2CubemapAllFaces)
	}

	p.width = h.Width
	p.height = h.Height
	p.depth = 1
	if h.Caps2&caps2Volume != 0 {
		p.depth = h.Depth
	}

	blockSize := uint64(p.format.BlockSize())
	blockW, blockH := p.format.BlockExtent()

	p.levelSizes = make([]uint64, p.levels)
	p.sizeOfAllLevels = 0
	for level := 0; level < p.levels; level++ {
		w := max(p.width>>level, 1)
		hgt := max(p.height>>level, 1)
		widthBlocks := uint64(max((w+blockW-1)/blockW, 1))
		heightBlocks := uint64(max((hgt+blockH-1)/blockH, 1))
		levelSize := widthBlocks * heightBlocks * blockSize
		p.levelSizes[level] = levelSize
		p.sizeOfAllLevels += levelSize
	}

	if p.sizeOfAllLevels*uint64(p.layers*p.faces)+uint64(p.dataOffset) > uint64(p.fileSize) {
		return fmt.Errorf("%s: image payload exceeds file size, file is corrupted", p.filename)
	}

	return nil
}

// Placement returns the byte offset and size of one image level relative to
// the start of the file. Indices must be within the parsed bounds.
func (p *Parser) Placement(layer, face, level int) (offset uint64, size uint64) {
	linearFace := layer*p.faces + face
	offset = uint64(p.dataOffset) + uint64(linearFace)*p.sizeOfAllLevels
	for i := 0; i < level; i++ {
		offset += p.levelSizes[i]
	}
	return offset, p.levelSizes[level]
}

// OpenHandle opens the backing file if it is not already open. Reopening
// after CloseHandle is supported.
func (p *Parser) OpenHandle() (*os.File, error) {
	if p.file != nil {
		return p.file, nil
	}
	f, err := os.Open(p.filename)
	if err != nil {
		if errors.Is(err, syscall.EMFILE) || errors.Is(err, syscall.ENFILE) {
			return nil, fmt.Errorf("opening %s: %w", p.filename, ErrFileLimit)
		}
		return nil, fmt.Errorf("opening %s: %w", p.filename, err)
	}
	p.file = f
	return f, nil
}

// CloseHandle closes the parse-time file handle. Safe to call when already
// closed.
func (p *Parser) CloseHandle() {
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}
}

func (p *Parser) Filename() string        { return p.filename }
func (p *Parser) FileSize() int64         { return p.fileSize }
func (p *Parser) Format() Format          { return p.format }
func (p *Parser) Width() uint32           { return p.width }
func (p *Parser) Height() uint32          { return p.height }
func (p *Parser) Depth() uint32           { return p.depth }
func (p *Parser) Levels() int             { return p.levels }
func (p *Parser) Layers() int             { return p.layers }
func (p *Parser) Faces() int              { return p.faces }
func (p *Parser) DataOffset() int64       { return p.dataOffset }
func (p *Parser) SizeOfAllLevels() uint64 { return p.sizeOfAllLevels }
func (p *Parser) LevelSize(l int) uint64  { return p.levelSizes[l] }
