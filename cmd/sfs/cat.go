package main

import (
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/nifvimp/sfs"
)

var catCmd = &cobra.Command{
	Use:   "cat <image> <file>",
	Short: "Print the contents of a file in an sfs image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := sfs.Open(args[0])
		if err != nil {
			return err
		}
		defer fsys.Close()

		f, err := fsys.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		if _, err := io.Copy(os.Stdout, f); err != nil && err != fs.ErrInvalid {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
