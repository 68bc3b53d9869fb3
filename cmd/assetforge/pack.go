package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/prismrt/assetforge/internal/asset"
	"github.com/prismrt/assetforge/internal/pkgfile"
	"github.com/prismrt/assetforge/internal/utils"
)

var (
	packOutput   string
	packCompress bool
)

// Mips at least this small are packed together into one tail blob, since
// per-blob overhead would dominate their size.
const tailBlobThreshold = 4096

var packCmd = &cobra.Command{
	Use:   "pack DIR",
	Short: "Build a package archive from loose DDS files",
	Long: `Pack scans a directory tree for DDS files and writes them into a single
package archive. Large mips become individually addressable blobs; the
smallest mips of each image are packed together into one tail blob.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		root := args[0]

		var files []string
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".dds") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("scanning %s: %w", root, err)
		}
		if len(files) == 0 {
			return fmt.Errorf("no DDS files found under %s", root)
		}

		// Loose files only: the partial loader gives us placements and
		// level bytes without decoding anything.
		mgr := asset.NewManager(asset.Options{UsePartialLoader: true})
		defer mgr.Close()

		w, err := pkgfile.NewWriter(packOutput)
		if err != nil {
			return err
		}

		progress := utils.NewProgress(len(files), !noProgress)

		var packed, failed int
		for i, file := range files {
			progress.Update(i, filepath.Base(file))

			rel, err := filepath.Rel(root, file)
			if err != nil {
				rel = filepath.Base(file)
			}

			if err := packAsset(w, mgr, file, filepath.ToSlash(rel)); err != nil {
				slog.Warn("Skipping asset", "file", file, "error", err)
				failed++
				continue
			}
			packed++
		}
		progress.Update(len(files), "done")
		progress.Finish()

		if err := w.Close(); err != nil {
			return fmt.Errorf("finalizing package: %w", err)
		}

		slog.Info("Package written",
			"path", packOutput,
			"assets", packed,
			"failed", failed,
			"duration", utils.Duration(time.Since(start)))
		return nil
	},
}

func packAsset(w *pkgfile.Writer, mgr *asset.Manager, file, relPath string) error {
	data, err := mgr.FindAsset(file)
	if err != nil {
		return err
	}
	defer data.ReleaseSource()

	info := data.Info()

	compression := pkgfile.CompressionNone
	if packCompress {
		compression = pkgfile.CompressionGDeflate
	}

	levelSizes := make([]uint64, info.MipLevels)
	var totalSize uint64
	for layer := 0; layer < info.NumLayers; layer++ {
		for level := 0; level < info.MipLevels; level++ {
			buf, err := data.Data(layer, level)
			if err != nil {
				return err
			}
			if layer == 0 {
				levelSizes[level] = uint64(len(buf))
			}
			totalSize += uint64(len(buf))
		}
	}

	// Array images keep every mip loose: the tail blob derivation strides
	// by the loose-mip count per layer, which only lines up with the
	// writer's sequential layout for single-layer images.
	numTail := 0
	if info.NumLayers == 1 {
		for level := info.MipLevels - 1; level > 0; level-- {
			if levelSizes[level] >= tailBlobThreshold {
				break
			}
			numTail++
		}
	}
	numLoose := info.MipLevels - numTail

	baseBlobIdx := uint32(0)
	for layer := 0; layer < info.NumLayers; layer++ {
		for level := 0; level < numLoose; level++ {
			buf, err := data.Data(layer, level)
			if err != nil {
				return err
			}
			idx, err := w.AddBlob(buf, compression)
			if err != nil {
				return err
			}
			if layer == 0 && level == 0 {
				baseBlobIdx = idx
			}
			data.EvictCache(layer, level)
		}
	}

	tailBlobIdx := uint32(0)
	if numTail > 0 {
		var tail []byte
		for level := numLoose; level < info.MipLevels; level++ {
			buf, err := data.Data(0, level)
			if err != nil {
				return err
			}
			tail = append(tail, buf...)
			data.EvictCache(0, level)
		}
		idx, err := w.AddBlob(tail, compression)
		if err != nil {
			return err
		}
		tailBlobIdx = idx
	}

	_, err = w.AddAsset(relPath, pkgfile.AssetDesc{
		Kind:        packKind(info.Type),
		Format:      uint32(info.Format),
		Width:       info.Extent.Width,
		Height:      info.Extent.Height,
		Depth:       info.Extent.Depth,
		NumMips:     uint16(info.MipLevels),
		NumTailMips: uint16(numTail),
		ArraySize:   uint16(info.NumLayers),
		BaseBlobIdx: baseBlobIdx,
		TailBlobIdx: tailBlobIdx,
		Size:        totalSize,
	})
	return err
}

func packKind(t asset.Type) pkgfile.AssetKind {
	switch t {
	case asset.TypeBuffer:
		return pkgfile.KindBuffer
	case asset.TypeImage1D:
		return pkgfile.KindImage1D
	case asset.TypeImage3D:
		return pkgfile.KindImage3D
	}
	return pkgfile.KindImage2D
}

func init() {
	packCmd.Flags().StringVarP(&packOutput, "out", "o", "assets.pkg", "output package path")
	packCmd.Flags().BoolVar(&packCompress, "compress", false, "deflate-compress blob data")
	rootCmd.AddCommand(packCmd)
}
