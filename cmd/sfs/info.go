package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nifvimp/sfs"
)

var infoCmd = &cobra.Command{
	Use:   "info <image>",
	Short: "Show geometry and occupancy of an sfs image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := sfs.Open(args[0])
		if err != nil {
			return err
		}
		defer fsys.Close()

		info := fsys.Info()
		fmt.Printf("Block size:  %d\n", info.BlockSize)
		fmt.Printf("Blocks:      %d (%d free)\n", info.Blocks, info.FreeBlocks)
		fmt.Printf("Inodes:      %d (%d free)\n", info.Inodes, info.FreeInodes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
