package pkgfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/klauspost/compress/flate"
)

// Writer builds a package file: blobs are appended to the data region as
// they are added, descriptor tables are written on Close.
type Writer struct {
	file   *os.File
	path   string
	off    uint64
	blobs  []BlobDesc
	assets []AssetDesc
	paths  []pathEntry
	closed bool
}

// NewWriter creates (or truncates) a package file at path.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating package: %w", err)
	}

	headerSize := uint64(binary.Size(fileHeader{}))
	if _, err := f.Seek(int64(headerSize), 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("seeking past package header: %w", err)
	}

	return &Writer{file: f, path: path, off: headerSize}, nil
}

// AddBlob appends one data blob and returns its index. With
// CompressionGDeflate the data is deflated before being stored.
func (w *Writer) AddBlob(data []byte, compression uint8) (uint32, error) {
	stored := data
	if compression == CompressionGDeflate {
		var buf bytes.Buffer
		fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return 0, fmt.Errorf("creating deflate writer: %w", err)
		}
		if _, err := fw.Write(data); err != nil {
			return 0, fmt.Errorf("compressing blob: %w", err)
		}
		if err := fw.Close(); err != nil {
			return 0, fmt.Errorf("compressing blob: %w", err)
		}
		stored = buf.Bytes()
	}

	if _, err := w.file.Write(stored); err != nil {
		return 0, fmt.Errorf("writing blob data: %w", err)
	}

	idx := uint32(len(w.blobs))
	w.blobs = append(w.blobs, BlobDesc{
		Offset:           w.off,
		Size:             uint64(len(stored)),
		UncompressedSize: uint64(len(data)),
		Compression:      compression,
	})
	w.off += uint64(len(stored))

	return idx, nil
}

// AddAsset records one logical asset under a package-relative path. The
// descriptor's blob indices must refer to blobs already added (or added
// before Close).
func (w *Writer) AddAsset(relPath string, desc AssetDesc) (uint32, error) {
	hash := HashPath(relPath)
	for _, e := range w.paths {
		if e.Hash == hash {
			return 0, fmt.Errorf("duplicate asset path: %s", relPath)
		}
	}

	idx := uint32(len(w.assets))
	w.assets = append(w.assets, desc)
	w.paths = append(w.paths, pathEntry{Hash: hash, AssetIdx: idx})

	return idx, nil
}

// Close writes the descriptor tables and the header, then closes the file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	for i, a := range w.assets {
		if int(a.BaseBlobIdx) >= len(w.blobs) ||
			(a.TailBlobIdx != 0 && int(a.TailBlobIdx) >= len(w.blobs)) {
			w.file.Close()
			return fmt.Errorf("asset %d references blobs beyond the %d written", i, len(w.blobs))
		}
	}

	head := fileHeader{
		Magic:      Magic,
		Version:    formatVersion,
		AssetCount: uint32(len(w.assets)),
		BlobCount:  uint32(len(w.blobs)),
	}

	var tables bytes.Buffer
	head.AssetTable = w.off + uint64(tables.Len())
	if err := binary.Write(&tables, binary.LittleEndian, w.assets); err != nil {
		w.file.Close()
		return fmt.Errorf("encoding asset table: %w", err)
	}
	head.BlobTable = w.off + uint64(tables.Len())
	if err := binary.Write(&tables, binary.LittleEndian, w.blobs); err != nil {
		w.file.Close()
		return fmt.Errorf("encoding blob table: %w", err)
	}
	head.PathTable = w.off + uint64(tables.Len())
	if err := binary.Write(&tables, binary.LittleEndian, w.paths); err != nil {
		w.file.Close()
		return fmt.Errorf("encoding path table: %w", err)
	}

	if _, err := w.file.Write(tables.Bytes()); err != nil {
		w.file.Close()
		return fmt.Errorf("writing descriptor tables: %w", err)
	}

	var hs bytes.Buffer
	if err := binary.Write(&hs, binary.LittleEndian, head); err != nil {
		w.file.Close()
		return fmt.Errorf("encoding package header: %w", err)
	}
	if _, err := w.file.WriteAt(hs.Bytes(), 0); err != nil {
		w.file.Close()
		return fmt.Errorf("writing package header: %w", err)
	}

	return w.file.Close()
}
