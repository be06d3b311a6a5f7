package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nifvimp/sfs"
)

var mkfsBlocks int

var mkfsCmd = &cobra.Command{
	Use:   "mkfs <image>",
	Short: "Create a fresh sfs image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := sfs.Create(args[0], mkfsBlocks)
		if err != nil {
			return err
		}
		defer fsys.Close()

		info := fsys.Info()
		logrus.WithFields(logrus.Fields{
			"image":  args[0],
			"blocks": info.Blocks,
			"inodes": info.Inodes,
		}).Info("image created")
		return nil
	},
}

func init() {
	mkfsCmd.Flags().IntVar(&mkfsBlocks, "blocks", sfs.DefaultBlockCount, "image size in blocks")
	rootCmd.AddCommand(mkfsCmd)
}
