package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/prismrt/assetforge/internal/asset"
	"github.com/prismrt/assetforge/internal/config"
)

var (
	cfg     *config.Config
	cfgFile string

	searchPaths []string
	modsDir     string
	dbPath      string
	logLevel    string
	logFormat   string
	noProgress  bool
)

var rootCmd = &cobra.Command{
	Use:   "assetforge",
	Short: "Asset pipeline tool for ray-traced rendering",
	Long: `assetforge resolves, inspects, extracts and packages renderer assets.

Assets are resolved against prioritized search paths, preferring the partial
DDS loader, then mounted package archives, then a full in-memory decode.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("search-path") {
			paths, err := parseSearchPathFlags(searchPaths)
			if err != nil {
				return err
			}
			cfg.SearchPaths = paths
		}
		if cmd.Flags().Changed("mods-dir") {
			cfg.ModsDir = modsDir
		}
		if cmd.Flags().Changed("database") {
			cfg.Database = dbPath
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}

		var level slog.Level
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var handler slog.Handler
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: level,
			})
		}

		logger := slog.New(handler)
		slog.SetDefault(logger)

		slog.Debug("Configuration",
			"search_paths", cfg.SearchPaths,
			"mods_dir", cfg.ModsDir,
			"database", cfg.Database,
			"use_partial_loader", cfg.UsePartialLoader,
			"enable_packages", cfg.EnablePackages,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		return nil
	},
}

// parseSearchPathFlags parses "priority:path" flag values; a bare path gets
// priority 0.
func parseSearchPathFlags(flags []string) ([]config.SearchPath, error) {
	var paths []config.SearchPath
	for _, f := range flags {
		priority := uint64(0)
		path := f
		if idx := strings.Index(f, ":"); idx > 0 {
			if p, err := strconv.ParseUint(f[:idx], 10, 32); err == nil {
				priority = p
				path = f[idx+1:]
			}
		}
		if path == "" {
			return nil, fmt.Errorf("invalid search path flag: %q", f)
		}
		paths = append(paths, config.SearchPath{Priority: uint32(priority), Path: path})
	}
	return paths, nil
}

// newManager builds an asset manager from the effective configuration.
func newManager() *asset.Manager {
	mgr := asset.NewManager(asset.Options{
		UsePartialLoader:   cfg.UsePartialLoader,
		EnablePackages:     cfg.EnablePackages,
		SuppressLoadErrors: cfg.SuppressLoadErrors,
	})
	for _, sp := range cfg.SearchPaths {
		mgr.AddSearchPath(sp.Priority, sp.Path)
	}
	return mgr
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is assetforge.yaml in pwd)")
	rootCmd.PersistentFlags().StringSliceVar(&searchPaths, "search-path", []string{}, "search path as priority:path, repeatable")
	rootCmd.PersistentFlags().StringVar(&modsDir, "mods-dir", "", "mods root directory")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "database", "d", "", "catalog database file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
