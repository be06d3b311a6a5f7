package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nifvimp/sfs"
)

var putCmd = &cobra.Command{
	Use:   "put <image> <local-file> <path>",
	Short: "Copy a local file into an sfs image",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}

		fsys, err := sfs.Open(args[0])
		if err != nil {
			return err
		}
		defer fsys.Close()

		if err := fsys.Mknod(args[2], sfs.S_IFREG|0o644); err != nil {
			return err
		}
		if len(data) > 0 {
			if _, err := fsys.Write(args[2], data, 0); err != nil {
				return err
			}
		}

		logrus.WithFields(logrus.Fields{
			"path":  args[2],
			"bytes": len(data),
		}).Info("file stored")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
}
