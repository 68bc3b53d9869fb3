package replacer

// Options toggles each replacement category.
type Options struct {
	EnableMeshes    bool
	EnableLights    bool
	EnableMaterials bool
}

// variantInfo tracks the variant selection for one replaced asset hash.
type variantInfo struct {
	selected    uint32
	numVariants uint32
}

// Replacer answers replacement lookups by asset hash against the mod set.
// Mods are consulted in manager order; the first mod carrying an override
// for the hash wins.
type Replacer struct {
	opts     Options
	mm       *ModManager
	variants map[uint64]variantInfo
}

func New(mm *ModManager, opts Options) *Replacer {
	return &Replacer{
		opts:     opts,
		mm:       mm,
		variants: make(map[uint64]variantInfo),
	}
}

// Initialize discovers and loads all mods, then rebuilds variant bookkeeping.
func (r *Replacer) Initialize() error {
	if err := r.mm.RefreshMods(); err != nil {
		return err
	}
	r.mm.LoadAll()
	r.updateVariants()
	return nil
}

// CheckForChanges reloads any mod whose source changed on disk, reporting
// whether replacement data changed.
func (r *Replacer) CheckForChanges() bool {
	changed := false
	for _, mod := range r.mm.Mods() {
		changed = mod.CheckForChanges() || changed
	}
	if changed {
		r.updateVariants()
	}
	return changed
}

// ReplacementsForMesh returns the mesh overrides for hash, honoring the
// selected variant for hashes that have variants registered.
func (r *Replacer) ReplacementsForMesh(hash uint64) []Replacement {
	if !r.opts.EnableMeshes {
		return nil
	}

	if vi, ok := r.variants[hash]; ok {
		hash += uint64(vi.selected)
	}

	for _, mod := range r.mm.Mods() {
		if reps := mod.Replacements().MeshesFor(hash); reps != nil {
			return reps
		}
	}
	return nil
}

// ReplacementsForLight returns the light overrides for hash.
func (r *Replacer) ReplacementsForLight(hash uint64) []Replacement {
	if !r.opts.EnableLights {
		return nil
	}

	for _, mod := range r.mm.Mods() {
		if reps := mod.Replacements().LightsFor(hash); reps != nil {
			return reps
		}
	}
	return nil
}

// ReplacementMaterial returns the material override for hash, or nil.
func (r *Replacer) ReplacementMaterial(hash uint64) *Material {
	if !r.opts.EnableMaterials {
		return nil
	}

	for _, mod := range r.mm.Mods() {
		if mat := mod.Replacements().MaterialFor(hash); mat != nil {
			return mat
		}
	}
	return nil
}

// SelectVariant picks which variant of a replaced asset resolves for hash.
func (r *Replacer) SelectVariant(hash uint64, variant uint32) {
	vi := r.variants[hash]
	if variant > vi.numVariants {
		variant = vi.numVariants
	}
	vi.selected = variant
	r.variants[hash] = vi
}

// States returns the load status of every mod.
func (r *Replacer) States() []State {
	mods := r.mm.Mods()
	states := make([]State, 0, len(mods))
	for _, mod := range mods {
		states = append(states, mod.State())
	}
	return states
}

// AllLoaded reports whether every discovered mod finished loading.
func (r *Replacer) AllLoaded() bool {
	for _, mod := range r.mm.Mods() {
		if mod.State().Progress != StateLoaded {
			return false
		}
	}
	return true
}

// updateVariants rebuilds the per-hash variant counts from the loaded mods'
// mesh overrides that declare variant ids.
func (r *Replacer) updateVariants() {
	r.variants = make(map[uint64]variantInfo)

	for _, mod := range r.mm.Mods() {
		if mod.State().Progress != StateLoaded {
			continue
		}
		for hash, reps := range mod.Replacements().meshes {
			for _, rep := range reps {
				if rep.VariantID == 0 {
					continue
				}
				vi := r.variants[hash]
				vi.numVariants = max(vi.numVariants, rep.VariantID)
				r.variants[hash] = vi
			}
		}
	}
}
