package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nifvimp/sfs"
)

var lsCmd = &cobra.Command{
	Use:   "ls <image> [path]",
	Short: "List files in an sfs image",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := sfs.Open(args[0])
		if err != nil {
			return err
		}
		defer fsys.Close()

		dir := "."
		if len(args) > 1 {
			dir = args[1]
		}

		entries, err := fsys.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				return err
			}
			fmt.Printf("%s %8d %s\n", info.Mode(), info.Size(), entry.Name())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}
