package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/prismrt/assetforge/internal/asset"
	"github.com/prismrt/assetforge/internal/utils"
)

var extractOutDir string

var extractCmd = &cobra.Command{
	Use:   "extract FILE...",
	Short: "Resolve assets and dump their level data to disk",
	Long: `Extract resolves each named asset against the configured search paths and
writes the raw bytes of every layer and mip level into the output directory,
one file per level.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		if err := os.MkdirAll(extractOutDir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		mgr := newManager()
		defer mgr.Close()

		progress := utils.NewProgress(len(args), !noProgress)

		var extracted, failed int
		for i, filename := range args {
			progress.Update(i, filepath.Base(filename))

			if err := extractAsset(mgr, filename); err != nil {
				if errors.Is(err, asset.ErrFileLimit) {
					progress.Finish()
					return err
				}
				slog.Warn("Extraction failed", "file", filename, "error", err)
				failed++
				continue
			}
			extracted++
		}
		progress.Update(len(args), "done")
		progress.Finish()

		slog.Info("Extraction complete",
			"extracted", extracted,
			"failed", failed,
			"duration", utils.Duration(time.Since(start)))

		if failed > 0 {
			return fmt.Errorf("%d of %d assets failed to extract", failed, len(args))
		}
		return nil
	},
}

func extractAsset(mgr *asset.Manager, filename string) error {
	data, err := mgr.FindAsset(filename)
	if err != nil {
		return err
	}
	defer data.ReleaseSource()

	info := data.Info()
	base := strings.TrimSuffix(filepath.Base(info.Filename), filepath.Ext(info.Filename))

	for layer := 0; layer < info.NumLayers; layer++ {
		for level := 0; level < info.MipLevels; level++ {
			buf, err := data.Data(layer, level)
			if err != nil {
				return fmt.Errorf("reading layer %d level %d: %w", layer, level, err)
			}

			outName := fmt.Sprintf("%s_l%d_m%d.bin", base, layer, level)
			outPath := filepath.Join(extractOutDir, outName)
			if err := os.WriteFile(outPath, buf, 0644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}

			data.EvictCache(layer, level)
		}
	}

	return nil
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutDir, "out", "o", "extracted", "output directory")
	rootCmd.AddCommand(extractCmd)
}
