package asset

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/prismrt/assetforge/internal/dds"
	"github.com/prismrt/assetforge/internal/pkgfile"
)

// packagedData serves an asset out of a mounted package, caching raw blob
// bytes per derived blob index. The package handle is shared and outlives
// this instance.
type packagedData struct {
	pkg      *pkgfile.Package
	assetIdx uint32
	desc     *pkgfile.AssetDesc
	info     Info

	cache map[uint32][]byte
}

func newPackagedData(pkg *pkgfile.Package, assetIdx uint32) (*packagedData, error) {
	desc := pkg.GetAssetDesc(assetIdx)
	if desc == nil {
		return nil, fmt.Errorf("asset %d was not found in package %s", assetIdx, pkg.Filename())
	}

	d := &packagedData{
		pkg:      pkg,
		assetIdx: assetIdx,
		desc:     desc,
		cache:    make(map[uint32][]byte),
	}

	compression := CompressionNone
	if base := pkg.GetDataBlobDesc(desc.BaseBlobIdx); base != nil && base.Compression != pkgfile.CompressionNone {
		// GDeflate is the only compressed encoding the format carries.
		compression = CompressionGDeflate
	}

	var idxBytes [4]byte
	binary.LittleEndian.PutUint32(idxBytes[:], assetIdx)

	d.info = Info{
		Type:        packagedType(desc.Kind),
		Compression: compression,
		Format:      dds.Format(desc.Format),
		Extent:      packagedExtent(desc),
		MipLevels:   int(desc.NumMips),
		// The upload path can only fetch the packed mip tail as a unit.
		MinLevelsToUpload: clamp(int(desc.NumTailMips), 1, int(desc.NumMips)),
		NumLayers:         int(desc.ArraySize),
		Filename:          pkg.Filename(),
		Hash:              xxhash.Sum64String(pkg.Filename()) ^ xxhash.Sum64(idxBytes[:]),
	}
	if fi, err := os.Stat(pkg.Filename()); err == nil {
		d.info.LastWriteTime = fi.ModTime()
	}

	return d, nil
}

func packagedType(k pkgfile.AssetKind) Type {
	switch k {
	case pkgfile.KindBuffer:
		return TypeBuffer
	case pkgfile.KindImage1D:
		return TypeImage1D
	case pkgfile.KindImage2D, pkgfile.KindImageCube:
		return TypeImage2D
	case pkgfile.KindImage3D:
		return TypeImage3D
	}
	return TypeUnknown
}

func packagedExtent(desc *pkgfile.AssetDesc) Extent {
	if desc.Kind == pkgfile.KindBuffer {
		return Extent{Width: uint32(desc.Size), Height: 0, Depth: 1}
	}
	return Extent{
		Width:  max(desc.Width, 1),
		Height: max(desc.Height, 1),
		Depth:  max(desc.Depth, 1),
	}
}

func (d *packagedData) Info() Info { return d.info }

// blobIndex derives the blob holding one layer/face/level. Buffers always
// live in the base blob; cube faces fold into the layer index; mips at or
// beyond the loose-mip count collapse onto the shared tail blob.
func (d *packagedData) blobIndex(layer, face, level int) uint32 {
	if d.desc.Kind == pkgfile.KindBuffer {
		return d.desc.BaseBlobIdx
	}

	if d.desc.Kind == pkgfile.KindImageCube {
		layer = layer*6 + face
	}

	numLooseMips := uint32(d.desc.NumMips - d.desc.NumTailMips)
	var base uint32
	if uint32(level) >= numLooseMips {
		base = d.desc.TailBlobIdx
	} else {
		base = uint32(level) + d.desc.BaseBlobIdx
	}

	return base + uint32(layer)*numLooseMips
}

func (d *packagedData) Data(layer, level int) ([]byte, error) {
	blobIdx := d.blobIndex(layer, 0, level)

	if data, ok := d.cache[blobIdx]; ok {
		return data, nil
	}

	blobDesc := d.pkg.GetDataBlobDesc(blobIdx)
	if blobDesc == nil {
		return nil, fmt.Errorf("blob %d was not found in package %s", blobIdx, d.pkg.Filename())
	}
	if blobDesc.Compression != pkgfile.CompressionNone {
		return nil, ErrCompressedBlob
	}

	data, err := d.pkg.ReadDataBlob(blobIdx)
	if err != nil {
		return nil, err
	}
	d.cache[blobIdx] = data

	return data, nil
}

// EvictCache erases the cache entry outright so its memory is freed; a
// later Data call re-reads the blob.
func (d *packagedData) EvictCache(layer, level int) {
	delete(d.cache, d.blobIndex(layer, 0, level))
}

// ReleaseSource is a no-op: the package handle is shared and its lifetime
// is independent of this instance.
func (d *packagedData) ReleaseSource() {}

func (d *packagedData) Placement(layer, face, level int) (offset uint64, size uint64) {
	blobIdx := d.blobIndex(layer, face, level)
	blobDesc := d.pkg.GetDataBlobDesc(blobIdx)
	if blobDesc == nil {
		panic(fmt.Sprintf("asset: data blob %d was not found in package %s", blobIdx, d.pkg.Filename()))
	}
	return blobDesc.Offset, blobDesc.Size
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
