package asset

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/prismrt/assetforge/internal/dds"
	"github.com/prismrt/assetforge/internal/mmap"
)

// ddsData serves a DDS file through a lazily created read-only memory
// mapping. Only the header is parsed up front; pixel bytes are paged in by
// the OS on access.
type ddsData struct {
	parser  *dds.Parser
	info    Info
	mapping *mmap.File
}

func loadDDS(filename string) (*ddsData, error) {
	p := dds.NewParser(filename)
	if err := p.Parse(); err != nil {
		if errors.Is(err, dds.ErrFileLimit) {
			return nil, fmt.Errorf("parsing %s: %w", filename, ErrFileLimit)
		}
		return nil, err
	}

	d := &ddsData{parser: p}

	d.info = Info{
		Type:              ddsType(p),
		Compression:       CompressionNone,
		Format:            p.Format(),
		Extent:            Extent{Width: p.Width(), Height: p.Height(), Depth: p.Depth()},
		MipLevels:         p.Levels(),
		MinLevelsToUpload: min(mipLevelsToCache, p.Levels()),
		NumLayers:         p.Layers(),
		Filename:          filename,
		Hash:              xxhash.Sum64String(filename),
	}
	if fi, err := os.Stat(filename); err == nil {
		d.info.LastWriteTime = fi.ModTime()
	}

	return d, nil
}

func ddsType(p *dds.Parser) Type {
	if p.Width() > 1 && p.Height() == 1 && p.Depth() == 1 {
		return TypeImage1D
	}
	if p.Depth() > 1 {
		return TypeImage3D
	}
	return TypeImage2D
}

func (d *ddsData) Info() Info { return d.info }

func (d *ddsData) Data(layer, level int) ([]byte, error) {
	offset, size := d.parser.Placement(layer, 0, level)

	if uint64(d.parser.FileSize()) < offset+size {
		slog.Warn("Corrupted DDS file discovered", "file", d.parser.Filename())
		return nil, fmt.Errorf("level data extends past end of %s", d.parser.Filename())
	}

	if d.mapping == nil {
		m, err := mmap.Open(d.parser.Filename())
		if err != nil {
			if errors.Is(err, mmap.ErrFileLimit) {
				return nil, fmt.Errorf("mapping %s: %w", d.parser.Filename(), ErrFileLimit)
			}
			slog.Warn("Failed to map DDS file", "file", d.parser.Filename(), "error", err)
			return nil, err
		}
		d.mapping = m
	}

	return d.mapping.Data[offset : offset+size], nil
}

// EvictCache is a no-op: the mapping is not CPU-resident cache, the OS
// manages its paging.
func (d *ddsData) EvictCache(layer, level int) {}

func (d *ddsData) ReleaseSource() {
	if d.mapping != nil {
		d.mapping.Close()
		d.mapping = nil
	}
	d.parser.CloseHandle()
}

// Placement works without the mapping being open, for consumers that map
// the region themselves.
func (d *ddsData) Placement(layer, face, level int) (offset uint64, size uint64) {
	return d.parser.Placement(layer, face, level)
}
