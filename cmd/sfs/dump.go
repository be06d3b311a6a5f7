package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nifvimp/sfs"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <image> <snapshot>",
	Short: "Write a compressed snapshot of an sfs image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		comp, err := sfs.ParseCompression(viper.GetString("compression"))
		if err != nil {
			return err
		}

		fsys, err := sfs.Open(args[0])
		if err != nil {
			return err
		}
		defer fsys.Close()

		out, err := os.Create(args[1])
		if err != nil {
			return err
		}
		if err := fsys.Dump(out, comp); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"snapshot":    args[1],
			"compression": comp.String(),
		}).Info("snapshot written")
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <snapshot> <image>",
	Short: "Restore an sfs image from a snapshot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		if err := sfs.RestoreFile(in, args[1]); err != nil {
			return err
		}
		logrus.WithField("image", args[1]).Info("image restored")
		return nil
	},
}

func init() {
	dumpCmd.Flags().String("comp", "zstd", "snapshot compression (none|zlib|zstd|xz)")
	_ = viper.BindPFlag("compression", dumpCmd.Flags().Lookup("comp"))
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(restoreCmd)
}
