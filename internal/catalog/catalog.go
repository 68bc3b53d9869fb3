// Package catalog persists an index of resolved assets into SQLite so
// tooling can query what the pipeline can see without re-resolving files.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/prismrt/assetforge/internal/asset"
)

// Catalog is a connection to the asset catalog database.
type Catalog struct {
	db   *sql.DB
	path string
}

// Options configures catalog creation and connection behavior.
type Options struct {
	// Path to the SQLite database file.
	Path string

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	WALMode bool

	// BusyTimeout sets the timeout for locked database operations.
	BusyTimeout time.Duration
}

// DefaultOptions returns sensible defaults for catalog connections.
func DefaultOptions(path string) *Options {
	return &Options{
		Path:        path,
		WALMode:     true,
		BusyTimeout: 30 * time.Second,
	}
}

// Open opens (creating if needed) the catalog at the configured path.
func Open(options *Options) (*Catalog, error) {
	if options == nil {
		return nil, fmt.Errorf("catalog options cannot be nil")
	}
	if options.Path == "" {
		return nil, fmt.Errorf("catalog path cannot be empty")
	}

	if dir := filepath.Dir(options.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", buildConnectionString(options))
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", options.Path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("testing catalog connection: %w", err)
	}

	c := &Catalog{db: db, path: options.Path}
	if err := c.createSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return c, nil
}

func buildConnectionString(options *Options) string {
	var pragmas []string
	if options.WALMode {
		pragmas = append(pragmas, "_journal_mode=WAL")
	}
	if options.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("_busy_timeout=%d", options.BusyTimeout.Milliseconds()))
	}
	if len(pragmas) == 0 {
		return options.Path
	}
	return options.Path + "?" + strings.Join(pragmas, "&")
}

func (c *Catalog) createSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS assets (
			hash        INTEGER PRIMARY KEY,
			filename    TEXT NOT NULL,
			type        TEXT NOT NULL,
			format      TEXT NOT NULL,
			width       INTEGER NOT NULL,
			height      INTEGER NOT NULL,
			depth       INTEGER NOT NULL,
			mip_levels  INTEGER NOT NULL,
			layers      INTEGER NOT NULL,
			compression TEXT NOT NULL,
			source      TEXT NOT NULL,
			modified_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_assets_filename ON assets(filename);
	`
	if _, err := c.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating catalog schema: %w", err)
	}
	return nil
}

// Close closes the catalog connection.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Record is one catalogued asset.
type Record struct {
	Info   asset.Info
	Source string
}

// InsertAssets upserts a batch of records in one transaction.
func (c *Catalog) InsertAssets(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning catalog transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO assets
			(hash, filename, type, format, width, height, depth,
			 mip_levels, layers, compression, source, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing catalog insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		info := r.Info
		_, err := stmt.ExecContext(ctx,
			int64(info.Hash), info.Filename, info.Type.String(), info.Format.String(),
			info.Extent.Width, info.Extent.Height, info.Extent.Depth,
			info.MipLevels, info.NumLayers, info.Compression.String(),
			r.Source, info.LastWriteTime.Unix())
		if err != nil {
			return fmt.Errorf("inserting asset %s: %w", info.Filename, err)
		}
	}

	return tx.Commit()
}

// Count returns the number of catalogued assets.
func (c *Catalog) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting assets: %w", err)
	}
	return n, nil
}

// FindByName returns records whose filename matches the SQL LIKE pattern.
func (c *Catalog) FindByName(ctx context.Context, pattern string) ([]Record, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT hash, filename, width, height, depth, mip_levels, layers, source, modified_at
		FROM assets WHERE filename LIKE ? ORDER BY filename`, pattern)
	if err != nil {
		return nil, fmt.Errorf("querying assets: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var hash, modified int64
		if err := rows.Scan(&hash, &r.Info.Filename,
			&r.Info.Extent.Width, &r.Info.Extent.Height, &r.Info.Extent.Depth,
			&r.Info.MipLevels, &r.Info.NumLayers, &r.Source, &modified); err != nil {
			return nil, fmt.Errorf("scanning asset row: %w", err)
		}
		r.Info.Hash = uint64(hash)
		r.Info.LastWriteTime = time.Unix(modified, 0)
		records = append(records, r)
	}

	return records, rows.Err()
}
