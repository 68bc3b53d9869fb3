package replacer

// Replacement points an original asset hash at replacement content.
type Replacement struct {
	Path      string
	VariantID uint32
}

// Material describes replacement material inputs by texture path.
type Material struct {
	AlbedoTexture     string  `yaml:"albedo_texture"`
	NormalTexture     string  `yaml:"normal_texture"`
	RoughnessTexture  string  `yaml:"roughness_texture"`
	MetallicTexture   string  `yaml:"metallic_texture"`
	EmissiveTexture   string  `yaml:"emissive_texture"`
	EmissiveIntensity float64 `yaml:"emissive_intensity"`
}

// Replacements holds one mod's override tables, keyed by 64-bit asset hash.
type Replacements struct {
	meshes    map[uint64][]Replacement
	lights    map[uint64][]Replacement
	materials map[uint64]*Material
}

func (r *Replacements) init() {
	r.meshes = make(map[uint64][]Replacement)
	r.lights = make(map[uint64][]Replacement)
	r.materials = make(map[uint64]*Material)
}

func (r *Replacements) addMesh(hash uint64, rep Replacement) {
	r.meshes[hash] = append(r.meshes[hash], rep)
}

func (r *Replacements) addLight(hash uint64, rep Replacement) {
	r.lights[hash] = append(r.lights[hash], rep)
}

func (r *Replacements) addMaterial(hash uint64, mat *Material) {
	r.materials[hash] = mat
}

// MeshesFor returns the mesh replacements registered for hash, or nil.
func (r *Replacements) MeshesFor(hash uint64) []Replacement {
	return r.meshes[hash]
}

// LightsFor returns the light replacements registered for hash, or nil.
func (r *Replacements) LightsFor(hash uint64) []Replacement {
	return r.lights[hash]
}

// MaterialFor returns the replacement material for hash, or nil.
func (r *Replacements) MaterialFor(hash uint64) *Material {
	return r.materials[hash]
}

// Counts returns the number of mesh, light and material overrides.
func (r *Replacements) Counts() (meshes, lights, materials int) {
	return len(r.meshes), len(r.lights), len(r.materials)
}

// Clear drops every override table.
func (r *Replacements) Clear() {
	r.init()
}
