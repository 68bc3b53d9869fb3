package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/prismrt/assetforge/internal/asset"
	"github.com/prismrt/assetforge/internal/catalog"
	"github.com/prismrt/assetforge/internal/utils"
)

var catalogFind string

var catalogCmd = &cobra.Command{
	Use:   "catalog [DIR...]",
	Short: "Index resolvable assets into the catalog database",
	Long: `Catalog scans directories for DDS files, resolves each through the asset
manager and records its descriptor in the SQLite catalog. With --find it
queries the existing catalog instead of scanning.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Database == "" {
			return fmt.Errorf("no catalog database configured, set database in the config or pass --database")
		}

		cat, err := catalog.Open(catalog.DefaultOptions(cfg.Database))
		if err != nil {
			return err
		}
		defer cat.Close()

		ctx := context.Background()

		if catalogFind != "" {
			return runCatalogFind(ctx, cat)
		}
		if len(args) == 0 {
			return fmt.Errorf("provide directories to scan, or --find to query")
		}
		return runCatalogScan(ctx, cat, args)
	},
}

func runCatalogFind(ctx context.Context, cat *catalog.Catalog) error {
	records, err := cat.FindByName(ctx, catalogFind)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("%016x  %-8s %5dx%-5d mips=%-2d layers=%-2d %s\n",
			r.Info.Hash, r.Source,
			r.Info.Extent.Width, r.Info.Extent.Height,
			r.Info.MipLevels, r.Info.NumLayers, r.Info.Filename)
	}
	slog.Info("Catalog query finished", "pattern", catalogFind, "matches", len(records))
	return nil
}

func runCatalogScan(ctx context.Context, cat *catalog.Catalog, dirs []string) error {
	start := time.Now()

	var files []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".dds") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("scanning %s: %w", dir, err)
		}
	}

	mgr := newManager()
	defer mgr.Close()

	progress := utils.NewProgress(len(files), !noProgress)

	var records []catalog.Record
	var failed int
	for i, file := range files {
		progress.Update(i, filepath.Base(file))

		data, err := mgr.FindAsset(file)
		if err != nil {
			failed++
			continue
		}
		records = append(records, catalog.Record{
			Info:   data.Info(),
			Source: asset.SourceOf(data),
		})
		data.ReleaseSource()
	}
	progress.Update(len(files), "done")
	progress.Finish()

	if err := cat.InsertAssets(ctx, records); err != nil {
		return err
	}

	total, err := cat.Count(ctx)
	if err != nil {
		return err
	}

	slog.Info("Catalog updated",
		"scanned", len(files),
		"indexed", len(records),
		"failed", failed,
		"total", total,
		"duration", utils.Duration(time.Since(start)))
	return nil
}

func init() {
	catalogCmd.Flags().StringVar(&catalogFind, "find", "", "query catalogued assets by filename LIKE pattern")
	rootCmd.AddCommand(catalogCmd)
}
