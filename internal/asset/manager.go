package asset

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prismrt/assetforge/internal/pkgfile"
)

// Options configures a Manager. SuppressLoadErrors demotes resolution
// failures from error to warning severity, for automated runs where missing
// assets are expected.
type Options struct {
	UsePartialLoader   bool
	EnablePackages     bool
	SuppressLoadErrors bool
}

// packageEntry pairs one normalized search path with the packages mounted
// under it, sorted by filename.
type packageEntry struct {
	basePath string
	packages []*pkgfile.Package
}

// Manager resolves logical asset filenames against a priority-ordered set
// of search paths. Methods are not safe for concurrent mutation: callers
// register search paths during setup, before resolution begins.
type Manager struct {
	opts Options

	searchPaths map[uint32][]string
	packageSets map[uint32][]packageEntry
}

func NewManager(opts Options) *Manager {
	return &Manager{
		opts:        opts,
		searchPaths: make(map[uint32][]string),
		packageSets: make(map[uint32][]packageEntry),
	}
}

// normalizeDir canonicalizes a directory path: absolute, lowercase, forward
// separators, one trailing separator. Normalization is idempotent.
func normalizeDir(path string) string {
	return normalizeFile(path) + "/"
}

func normalizeFile(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	return strings.ToLower(filepath.ToSlash(abs))
}

// AddSearchPath registers a directory under the given priority and, when
// package mounting is enabled, mounts every valid package archive found
// directly inside it. Adding a path that is already registered under any
// priority is a no-op. Within one priority, later additions are preferred
// during resolution.
func (m *Manager) AddSearchPath(priority uint32, path string) {
	normalized := normalizeDir(path)

	for _, paths := range m.searchPaths {
		for _, existing := range paths {
			if existing == normalized {
				return
			}
		}
	}

	slog.Info("Adding asset search path", "path", normalized, "priority", priority)

	m.searchPaths[priority] = append(m.searchPaths[priority], normalized)

	if !m.opts.EnablePackages {
		return
	}

	var packages []*pkgfile.Package
	if entries, err := os.ReadDir(path); err == nil {
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pkg") {
				continue
			}
			pkgPath := filepath.Join(path, e.Name())
			pkg, err := pkgfile.Open(pkgPath)
			if err != nil {
				slog.Warn("Corrupted package discovered", "path", pkgPath, "error", err)
				continue
			}
			slog.Info("Mounted a package", "path", pkgPath, "assets", pkg.AssetCount())
			packages = append(packages, pkg)
		}
	}
	sort.Slice(packages, func(i, j int) bool {
		return packages[i].Filename() < packages[j].Filename()
	})

	m.packageSets[priority] = append(m.packageSets[priority], packageEntry{
		basePath: normalized,
		packages: packages,
	})
}

// FindAsset resolves a filename to asset data, trying sources cheapest
// first: the partial DDS loader, then mounted packages (highest priority
// first, most recent path first within a priority, packages in reverse
// name order), then a full in-memory decode.
func (m *Manager) FindAsset(filename string) (AssetData, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".dds") {
		err := fmt.Errorf("unsupported image file format: %s", filename)
		m.logResolutionFailure("Unsupported image file format", filename, nil)
		return nil, err
	}

	if m.opts.UsePartialLoader {
		d, err := loadDDS(filename)
		if err == nil {
			return d, nil
		}
		if errors.Is(err, ErrFileLimit) {
			return nil, err
		}
		slog.Debug("Partial DDS loader did not produce the asset", "file", filename, "error", err)
	}

	if m.opts.EnablePackages && len(m.packageSets) > 0 {
		if d := m.findPackagedAsset(filename); d != nil {
			return d, nil
		}
	}

	d, err := loadDecoded(filename)
	if err != nil {
		m.logResolutionFailure("Failed to resolve asset", filename, err)
		return nil, err
	}

	slog.Warn("Asset was fully decoded by the generic image loader, its data will reside in CPU memory",
		"file", filename)
	return d, nil
}

func (m *Manager) findPackagedAsset(filename string) AssetData {
	normalized := normalizeFile(filename)

	priorities := make([]uint32, 0, len(m.packageSets))
	for priority := range m.packageSets {
		priorities = append(priorities, priority)
	}
	sort.Slice(priorities, func(i, j int) bool { return priorities[i] > priorities[j] })

	for _, priority := range priorities {
		entries := m.packageSets[priority]
		for e := len(entries) - 1; e >= 0; e-- {
			entry := &entries[e]
			if len(normalized) <= len(entry.basePath) || !strings.HasPrefix(normalized, entry.basePath) {
				continue
			}
			relativePath := normalized[len(entry.basePath):]

			for p := len(entry.packages) - 1; p >= 0; p-- {
				pkg := entry.packages[p]
				assetIdx := pkg.FindAsset(relativePath)
				if assetIdx == pkgfile.NoAssetIndex {
					continue
				}
				d, err := newPackagedData(pkg, assetIdx)
				if err != nil {
					slog.Warn("Packaged asset has no descriptor", "file", filename,
						"package", pkg.Filename(), "error", err)
					continue
				}
				return d
			}
		}
	}

	return nil
}

func (m *Manager) logResolutionFailure(msg, filename string, err error) {
	if m.opts.SuppressLoadErrors {
		if err != nil {
			slog.Warn(msg, "file", filename, "error", err)
		} else {
			slog.Warn(msg, "file", filename)
		}
		return
	}
	if err != nil {
		slog.Error(msg, "file", filename, "error", err)
	} else {
		slog.Error(msg, "file", filename)
	}
}

// SourceOf reports which storage tier backs an asset: "dds" for the partial
// loader, "package" for a mounted archive, "decoded" for the in-memory
// fallback.
func SourceOf(d AssetData) string {
	switch d.(type) {
	case *ddsData:
		return "dds"
	case *packagedData:
		return "package"
	case *decodedData:
		return "decoded"
	}
	return "unknown"
}

// Close unmounts every package the manager opened.
func (m *Manager) Close() error {
	var firstErr error
	for _, entries := range m.packageSets {
		for _, entry := range entries {
			for _, pkg := range entry.packages {
				if err := pkg.Close(); err != nil && firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}
