package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prismrt/assetforge/internal/asset"
	"github.com/prismrt/assetforge/internal/utils"
)

var infoCmd = &cobra.Command{
	Use:   "info FILE...",
	Short: "Resolve assets and print their descriptors",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := newManager()
		defer mgr.Close()

		var failed int
		for _, filename := range args {
			data, err := mgr.FindAsset(filename)
			if err != nil {
				failed++
				continue
			}
			printInfo(data.Info())
			data.ReleaseSource()
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d assets could not be resolved", failed, len(args))
		}
		return nil
	},
}

func printInfo(info asset.Info) {
	fmt.Printf("%s\n", info.Filename)
	fmt.Printf("  type:        %s\n", info.Type)
	fmt.Printf("  format:      %s\n", info.Format)
	if info.Type == asset.TypeBuffer {
		fmt.Printf("  size:        %s\n", utils.Bytes(uint64(info.Extent.Width)))
	} else {
		fmt.Printf("  extent:      %dx%dx%d\n", info.Extent.Width, info.Extent.Height, info.Extent.Depth)
	}
	fmt.Printf("  mips:        %d (min upload %d)\n", info.MipLevels, info.MinLevelsToUpload)
	fmt.Printf("  layers:      %d\n", info.NumLayers)
	fmt.Printf("  compression: %s\n", info.Compression)
	fmt.Printf("  hash:        %016x\n", info.Hash)
	fmt.Printf("  modified:    %s\n", info.LastWriteTime.Format("2006-01-02 15:04:05"))
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
