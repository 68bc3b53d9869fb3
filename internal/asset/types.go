// Package asset resolves logical asset names to their data, unifying three
// backing stores behind one contract: memory-mapped DDS files, mounted
// package archives, and a full in-memory decode fallback.
package asset

import (
	"errors"
	"time"

	"github.com/prismrt/assetforge/internal/dds"
)

// ErrFileLimit reports open-file exhaustion. It is fatal for the affected
// asset: the caller is expected to release unused sources (ReleaseSource)
// to recover descriptor capacity, so it is never retried internally.
var ErrFileLimit = errors.New("too many open files")

// ErrCompressedBlob reports an attempt to read a compressed package blob
// through the CPU path. Compressed blobs are decompressed by the I/O
// subsystem during upload, not here.
var ErrCompressedBlob = errors.New("compressed data blobs are not supported for CPU readback")

// mipLevelsToCache is the smallest useful upload granularity for sources
// that have no packed mip tail.
const mipLevelsToCache = 5

// Type is the logical shape of an asset.
type Type int

const (
	TypeUnknown Type = iota
	TypeBuffer
	TypeImage1D
	TypeImage2D
	TypeImage3D
)

func (t Type) String() string {
	switch t {
	case TypeBuffer:
		return "buffer"
	case TypeImage1D:
		return "image1d"
	case TypeImage2D:
		return "image2d"
	case TypeImage3D:
		return "image3d"
	}
	return "unknown"
}

// Compression is the encoding of an asset's packaged data.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGDeflate
)

func (c Compression) String() string {
	if c == CompressionGDeflate {
		return "gdeflate"
	}
	return "none"
}

// Extent is the base texel size of an image, or {size,0,1} for buffers.
type Extent struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// Info is a read-only snapshot describing a resolved asset.
type Info struct {
	Type        Type
	Compression Compression
	Format      dds.Format
	Extent      Extent

	MipLevels int
	// MinLevelsToUpload is the smallest contiguous mip range that must be
	// uploaded together. Equals the tail mip count for packaged assets whose
	// tail is a single combined blob.
	MinLevelsToUpload int
	NumLayers         int

	LastWriteTime time.Time
	Filename      string

	// Hash is a 64-bit content fingerprint derived from the source filename
	// and, for packaged assets, the asset index.
	Hash uint64
}

// AssetData is the uniform data-access contract over the three storage
// variants. Instances are independent; concurrent first calls to Data on the
// same instance must be serialized by the caller.
type AssetData interface {
	// Info returns the asset's descriptor snapshot.
	Info() Info

	// Data returns the bytes of one image level (or the whole buffer).
	// Corruption detected at access time logs a warning and returns an
	// error without destabilizing the instance. An error wrapping
	// ErrFileLimit is fatal for the asset.
	Data(layer, level int) ([]byte, error)

	// EvictCache drops any CPU-resident cache for the given level. Calling
	// it twice is safe; a later Data call re-fetches.
	EvictCache(layer, level int)

	// ReleaseSource closes OS-level resources (handles, mappings) held by
	// the variant. Idempotent.
	ReleaseSource()

	// Placement returns the byte offset and size of one level within the
	// asset's backing store. Panics when the variant has no stable byte
	// layout: that is a programming-contract violation, not a recoverable
	// condition.
	Placement(layer, face, level int) (offset uint64, size uint64)
}
