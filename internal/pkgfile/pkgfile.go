// Package pkgfile reads and writes asset package archives. A package holds
// independently addressable data blobs plus descriptor tables that map a
// logical asset to its blobs, and a path-hash table for name lookup.
package pkgfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/klauspost/compress/flate"
)

// Magic is the four-byte signature at the start of every package file.
var Magic = [4]byte{'R', 'T', 'P', 'K'}

const formatVersion = 1

// NoAssetIndex is the sentinel returned by FindAsset when no asset matches.
const NoAssetIndex = ^uint32(0)

// Blob compression methods. GDeflate is the only compressed encoding the
// package format carries.
const (
	CompressionNone     = uint8(0)
	CompressionGDeflate = uint8(1)
)

// AssetKind is the logical type of a packaged asset.
type AssetKind uint8

const (
	KindUnknown AssetKind = iota
	KindBuffer
	KindImage1D
	KindImage2D
	KindImage3D
	KindImageCube
)

func (k AssetKind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindImage1D:
		return "image1d"
	case KindImage2D:
		return "image2d"
	case KindImage3D:
		return "image3d"
	case KindImageCube:
		return "cube"
	}
	return "unknown"
}

type fileHeader struct {
	Magic      [4]byte
	Version    uint32
	AssetCount uint32
	BlobCount  uint32
	AssetTable uint64
	BlobTable  uint64
	PathTable  uint64
}

// AssetDesc describes one logical asset and how its data is split into blobs.
type AssetDesc struct {
	Kind        AssetKind
	_           [3]uint8
	Format      uint32
	Width       uint32
	Height      uint32
	Depth       uint32
	NumMips     uint16
	NumTailMips uint16
	ArraySize   uint16
	_           uint16
	BaseBlobIdx uint32
	TailBlobIdx uint32
	Size        uint64
}

// BlobDesc describes one contiguous byte region inside the package.
type BlobDesc struct {
	Offset           uint64
	Size             uint64
	UncompressedSize uint64
	Compression      uint8
	_                [7]uint8
}

type pathEntry struct {
	Hash     uint64
	AssetIdx uint32
	_        uint32
}

// Package is a mounted, read-only asset package. It is safe for concurrent
// reads and may be shared by any number of asset data instances.
type Package struct {
	filename string
	file     *os.File
	assets   []AssetDesc
	blobs    []BlobDesc
	pathmap  map[uint64]uint32
}

// Open mounts the package at path and validates its tables.
func Open(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, syscall.EMFILE) || errors.Is(err, syscall.ENFILE) {
			return nil, fmt.Errorf("opening package %s: too many open files: %w", path, err)
		}
		return nil, fmt.Errorf("opening package: %w", err)
	}

	p, err := load(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return p, nil
}

func load(f *os.File, path string) (*Package, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat package: %w", err)
	}
	fileSize := uint64(fi.Size())

	headerSize := uint64(binary.Size(fileHeader{}))
	if fileSize < headerSize {
		return nil, fmt.Errorf("package %s is too short for its header", path)
	}

	var head fileHeader
	hs := make([]byte, headerSize)
	if _, err := f.ReadAt(hs, 0); err != nil {
		return nil, fmt.Errorf("reading package header: %w", err)
	}
	if err := binary.Read(bytes.NewReader(hs), binary.LittleEndian, &head); err != nil {
		return nil, fmt.Errorf("decoding package header: %w", err)
	}

	if head.Magic != Magic {
		return nil, fmt.Errorf("package %s has an invalid signature", path)
	}
	if head.Version != formatVersion {
		return nil, fmt.Errorf("package %s has unsupported version %d", path, head.Version)
	}

	assetTableSize := uint64(head.AssetCount) * uint64(binary.Size(AssetDesc{}))
	blobTableSize := uint64(head.BlobCount) * uint64(binary.Size(BlobDesc{}))
	pathTableSize := uint64(head.AssetCount) * uint64(binary.Size(pathEntry{}))
	if head.AssetTable+assetTableSize > fileSize ||
		head.BlobTable+blobTableSize > fileSize ||
		head.PathTable+pathTableSize > fileSize {
		return nil, fmt.Errorf("package %s descriptor tables exceed file size, file is corrupted", path)
	}

	p := &Package{
		filename: path,
		file:     f,
		assets:   make([]AssetDesc, head.AssetCount),
		blobs:    make([]BlobDesc, head.BlobCount),
		pathmap:  make(map[uint64]uint32, head.AssetCount),
	}

	if err := readTableAt(f, int64(head.AssetTable), assetTableSize, &p.assets); err != nil {
		return nil, fmt.Errorf("reading asset table: %w", err)
	}
	if err := readTableAt(f, int64(head.BlobTable), blobTableSize, &p.blobs); err != nil {
		return nil, fmt.Errorf("reading blob table: %w", err)
	}

	paths := make([]pathEntry, head.AssetCount)
	if err := readTableAt(f, int64(head.PathTable), pathTableSize, &paths); err != nil {
		return nil, fmt.Errorf("reading path table: %w", err)
	}
	for _, e := range paths {
		if e.AssetIdx >= head.AssetCount {
			return nil, fmt.Errorf("package %s path table references asset %d of %d",
				path, e.AssetIdx, head.AssetCount)
		}
		p.pathmap[e.Hash] = e.AssetIdx
	}

	for i, b := range p.blobs {
		if b.Offset+b.Size > fileSize {
			return nil, fmt.Errorf("package %s blob %d extends past end of file", path, i)
		}
	}

	return p, nil
}

func readTableAt(f *os.File, off int64, size uint64, out any) error {
	if size == 0 {
		return nil
	}
	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, off); err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(buf), binary.LittleEndian, out)
}

// Close releases the package's file handle.
func (p *Package) Close() error {
	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	return err
}

// Filename returns the path the package was opened from.
func (p *Package) Filename() string { return p.filename }

// AssetCount returns the number of logical assets in the package.
func (p *Package) AssetCount() int { return len(p.assets) }

// GetAssetDesc returns the descriptor for the asset at idx, or nil when the
// index is out of range.
func (p *Package) GetAssetDesc(idx uint32) *AssetDesc {
	if int(idx) >= len(p.assets) {
		return nil
	}
	return &p.assets[idx]
}

// GetDataBlobDesc returns the descriptor for the blob at idx, or nil when
// the index is out of range.
func (p *Package) GetDataBlobDesc(idx uint32) *BlobDesc {
	if int(idx) >= len(p.blobs) {
		return nil
	}
	return &p.blobs[idx]
}

// FindAsset resolves a package-relative path to an asset index, returning
// NoAssetIndex when the path is not present. Lookup is case-insensitive and
// separator-agnostic.
func (p *Package) FindAsset(relPath string) uint32 {
	if idx, ok := p.pathmap[HashPath(relPath)]; ok {
		return idx
	}
	return NoAssetIndex
}

// ReadDataBlob reads the raw stored bytes of a blob without decompressing.
func (p *Package) ReadDataBlob(idx uint32) ([]byte, error) {
	desc := p.GetDataBlobDesc(idx)
	if desc == nil {
		return nil, fmt.Errorf("blob %d not found in package %s", idx, p.filename)
	}
	data := make([]byte, desc.Size)
	if _, err := p.file.ReadAt(data, int64(desc.Offset)); err != nil {
		return nil, fmt.Errorf("reading blob %d (offset=%d, size=%d): %w",
			idx, desc.Offset, desc.Size, err)
	}
	return data, nil
}

// DecompressDataBlob reads a blob and inflates it when it is stored
// compressed. Uncompressed blobs are returned as-is.
func (p *Package) DecompressDataBlob(idx uint32) ([]byte, error) {
	desc := p.GetDataBlobDesc(idx)
	if desc == nil {
		return nil, fmt.Errorf("blob %d not found in package %s", idx, p.filename)
	}

	raw, err := p.ReadDataBlob(idx)
	if err != nil {
		return nil, err
	}
	if desc.Compression == CompressionNone {
		return raw, nil
	}

	fr := flate.NewReader(bytes.NewReader(raw))
	defer fr.Close()

	data, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("decompressing blob %d: %w", idx, err)
	}
	if uint64(len(data)) != desc.UncompressedSize {
		return nil, fmt.Errorf("blob %d inflated to %d bytes, expected %d",
			idx, len(data), desc.UncompressedSize)
	}
	return data, nil
}
