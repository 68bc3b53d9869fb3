package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/prismrt/assetforge/internal/replacer"
)

var (
	modsMeshHash     string
	modsLightHash    string
	modsMaterialHash string
)

var modsCmd = &cobra.Command{
	Use:   "mods",
	Short: "List mods and look up asset replacements",
	Long: `Mods discovers replacement mods under the configured mods directory, loads
their manifests and prints each mod's state and replacement counts. The
--mesh, --light and --material flags look up the effective replacement for
one asset hash.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.ModsDir == "" {
			return fmt.Errorf("no mods directory configured, set mods_dir in the config or pass --mods-dir")
		}

		mm := replacer.NewModManager(cfg.ModsDir)
		r := replacer.New(mm, replacer.Options{
			EnableMeshes:    true,
			EnableLights:    true,
			EnableMaterials: true,
		})
		if err := r.Initialize(); err != nil {
			return err
		}

		for _, mod := range mm.Mods() {
			st := mod.State()
			meshes, lights, materials := mod.Replacements().Counts()
			line := fmt.Sprintf("%-24s %-8s meshes=%-4d lights=%-4d materials=%-4d",
				st.Name, st.Progress, meshes, lights, materials)
			if st.Message != "" {
				line += "  " + st.Message
			}
			fmt.Println(line)
		}
		if !r.AllLoaded() {
			slog.Warn("Some mods failed to load")
		}

		if modsMeshHash != "" {
			hash, err := parseHashFlag(modsMeshHash)
			if err != nil {
				return err
			}
			for _, rep := range r.ReplacementsForMesh(hash) {
				fmt.Printf("mesh %016x -> %s\n", hash, rep.Path)
			}
		}
		if modsLightHash != "" {
			hash, err := parseHashFlag(modsLightHash)
			if err != nil {
				return err
			}
			for _, rep := range r.ReplacementsForLight(hash) {
				fmt.Printf("light %016x -> %s\n", hash, rep.Path)
			}
		}
		if modsMaterialHash != "" {
			hash, err := parseHashFlag(modsMaterialHash)
			if err != nil {
				return err
			}
			if mat := r.ReplacementMaterial(hash); mat != nil {
				fmt.Printf("material %016x -> albedo=%s normal=%s roughness=%s\n",
					hash, mat.AlbedoTexture, mat.NormalTexture, mat.RoughnessTexture)
			}
		}

		return nil
	},
}

// parseHashFlag accepts a hash as 0x-prefixed hex or decimal, matching the
// manifest format.
func parseHashFlag(s string) (uint64, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		h, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid hash %q: %w", s, err)
		}
		return h, nil
	}
	h, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return h, nil
}

func init() {
	modsCmd.Flags().StringVar(&modsMeshHash, "mesh", "", "look up mesh replacements for an asset hash")
	modsCmd.Flags().StringVar(&modsLightHash, "light", "", "look up light replacements for an asset hash")
	modsCmd.Flags().StringVar(&modsMaterialHash, "material", "", "look up the material override for an asset hash")
	rootCmd.AddCommand(modsCmd)
}
