package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nifvimp/sfs"
)

var mountDebug bool

var mountCmd = &cobra.Command{
	Use:   "mount <image> <mountpoint>",
	Short: "Mount an sfs image through FUSE",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := sfs.Open(args[0])
		if err != nil {
			return err
		}
		defer fsys.Close()

		server, err := fsys.MountFUSE(args[1], mountDebug)
		if err != nil {
			return err
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			logrus.Info("unmounting")
			if err := server.Unmount(); err != nil {
				logrus.WithError(err).Error("unmount failed")
			}
		}()

		server.Wait()
		return fsys.Sync()
	},
}

func init() {
	mountCmd.Flags().BoolVar(&mountDebug, "debug", false, "log the FUSE protocol traffic")
	rootCmd.AddCommand(mountCmd)
}
