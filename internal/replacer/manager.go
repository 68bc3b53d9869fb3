package replacer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// ModManager discovers and owns the mods under a root directory. A mod is
// any direct subdirectory containing a mod manifest. Mods are kept in name
// order, which is also their lookup order.
type ModManager struct {
	root string
	mods []Mod
}

func NewModManager(root string) *ModManager {
	return &ModManager{root: root}
}

// Mods returns the discovered mods in lookup order.
func (mm *ModManager) Mods() []Mod { return mm.mods }

// RefreshMods rescans the root directory, keeping already-discovered mods
// (and their loaded state) and picking up new or removed ones.
func (mm *ModManager) RefreshMods() error {
	entries, err := os.ReadDir(mm.root)
	if err != nil {
		return fmt.Errorf("scanning mods directory %s: %w", mm.root, err)
	}

	existing := make(map[string]Mod, len(mm.mods))
	for _, mod := range mm.mods {
		existing[mod.Path()] = mod
	}

	var mods []Mod
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(mm.root, e.Name())
		if _, err := os.Stat(filepath.Join(dir, ManifestName)); err != nil {
			continue
		}
		if mod, ok := existing[dir]; ok {
			mods = append(mods, mod)
		} else {
			slog.Info("Discovered mod", "path", dir)
			mods = append(mods, newManifestMod(dir))
		}
	}

	sort.Slice(mods, func(i, j int) bool { return mods[i].Path() < mods[j].Path() })
	mm.mods = mods

	return nil
}

// LoadAll loads every discovered mod, logging and skipping failures.
func (mm *ModManager) LoadAll() {
	for _, mod := range mm.mods {
		if err := mod.Load(); err != nil {
			slog.Warn("Mod failed to load", "path", mod.Path(), "error", err)
		}
	}
}
