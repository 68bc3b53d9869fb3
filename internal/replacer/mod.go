// Package replacer maintains the registry of externally authored mods that
// override meshes, lights and materials by asset hash at runtime.
package replacer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ManifestName is the file that marks a directory as a mod.
const ManifestName = "mod.yaml"

// ProgressState tracks how far a mod has come through loading.
type ProgressState int

const (
	StateUnloaded ProgressState = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s ProgressState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	}
	return "unloaded"
}

// State is a mod's externally visible load status.
type State struct {
	Name     string
	Progress ProgressState
	Message  string
}

// Mod is one source of asset replacements. Concrete loaders (the manifest
// loader here, scene-description loaders elsewhere) implement it.
type Mod interface {
	// Path returns the mod's root directory.
	Path() string
	// State returns the current load status.
	State() State
	// Load parses the mod's content and populates its replacements.
	Load() error
	// Unload drops the mod's replacements.
	Unload()
	// CheckForChanges reloads the mod if its source changed on disk,
	// reporting whether anything was reloaded.
	CheckForChanges() bool
	// Replacements returns the mod's replacement tables.
	Replacements() *Replacements
}

// manifest is the on-disk YAML shape of a mod.
type manifest struct {
	Name      string             `yaml:"name"`
	Version   string             `yaml:"version"`
	Meshes    []replacementEntry `yaml:"meshes"`
	Lights    []replacementEntry `yaml:"lights"`
	Materials []materialEntry    `yaml:"materials"`
}

type replacementEntry struct {
	Hash    string `yaml:"hash"`
	Path    string `yaml:"path"`
	Variant uint32 `yaml:"variant"`
}

type materialEntry struct {
	Hash     string   `yaml:"hash"`
	Material Material `yaml:"material"`
}

// manifestMod is a Mod backed by a mod.yaml manifest.
type manifestMod struct {
	path         string
	state        State
	replacements Replacements
	loadedAt     time.Time
}

func newManifestMod(dir string) *manifestMod {
	m := &manifestMod{path: dir}
	m.replacements.init()
	return m
}

func (m *manifestMod) Path() string { return m.path }

func (m *manifestMod) State() State { return m.state }

func (m *manifestMod) Replacements() *Replacements { return &m.replacements }

func (m *manifestMod) manifestPath() string {
	return filepath.Join(m.path, ManifestName)
}

func (m *manifestMod) Load() error {
	m.state.Progress = StateLoading

	data, err := os.ReadFile(m.manifestPath())
	if err != nil {
		m.fail(fmt.Errorf("reading manifest: %w", err))
		return m.lastError()
	}

	var mf manifest
	if err := yaml.Unmarshal(data, &mf); err != nil {
		m.fail(fmt.Errorf("parsing manifest: %w", err))
		return m.lastError()
	}

	m.replacements.Clear()

	for _, e := range mf.Meshes {
		hash, err := parseHash(e.Hash)
		if err != nil {
			m.fail(fmt.Errorf("mesh entry %q: %w", e.Hash, err))
			return m.lastError()
		}
		m.replacements.addMesh(hash, Replacement{Path: e.Path, VariantID: e.Variant})
	}
	for _, e := range mf.Lights {
		hash, err := parseHash(e.Hash)
		if err != nil {
			m.fail(fmt.Errorf("light entry %q: %w", e.Hash, err))
			return m.lastError()
		}
		m.replacements.addLight(hash, Replacement{Path: e.Path, VariantID: e.Variant})
	}
	for _, e := range mf.Materials {
		hash, err := parseHash(e.Hash)
		if err != nil {
			m.fail(fmt.Errorf("material entry %q: %w", e.Hash, err))
			return m.lastError()
		}
		mat := e.Material
		m.replacements.addMaterial(hash, &mat)
	}

	m.state = State{Name: mf.Name, Progress: StateLoaded}
	m.loadedAt = time.Now()
	return nil
}

func (m *manifestMod) fail(err error) {
	m.state.Progress = StateFailed
	m.state.Message = err.Error()
}

func (m *manifestMod) lastError() error {
	return fmt.Errorf("loading mod %s: %s", m.path, m.state.Message)
}

func (m *manifestMod) Unload() {
	m.replacements.Clear()
	m.state.Progress = StateUnloaded
	m.state.Message = ""
}

func (m *manifestMod) CheckForChanges() bool {
	if m.state.Progress != StateLoaded {
		return false
	}
	fi, err := os.Stat(m.manifestPath())
	if err != nil || !fi.ModTime().After(m.loadedAt) {
		return false
	}
	return m.Load() == nil
}

// parseHash accepts decimal or 0x-prefixed hexadecimal 64-bit asset hashes.
func parseHash(s string) (uint64, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}
