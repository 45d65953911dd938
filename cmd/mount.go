package main

import (
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/brettbedarf/webvfs/internal/util"
	"github.com/brettbedarf/webvfs/server"
)

func (a *app) mountCommand() *cobra.Command {
	var umount bool
	cmd := &cobra.Command{
		Use:   "mount <mountpoint>",
		Short: "Mount the provider tree read-only with FUSE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := util.GetLogger("main")
			mnt := args[0]

			// Try unmount if requested
			if umount {
				// we ignore error here if not already mounted
				exec.Command("fusermount", "-u", mnt).Run() // nolint:errcheck
			}

			fs, err := server.NewFuseServer(a.provider, a.cfg)
			if err != nil {
				return err
			}
			if err := fs.Serve(mnt); err != nil {
				return err
			}
			logger.Info().Str("mountpoint", mnt).Msg("Filesystem mounted successfully")

			// Wait for termination signal
			<-cmd.Context().Done()
			logger.Info().Msg("Received signal, unmounting filesystem")

			if err := fs.Unmount(); err != nil {
				return err
			}
			logger.Info().Msg("Filesystem unmounted successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&umount, "umount", "u", false,
		"Unmount the fs first if needed before mounting again. Useful for debuggers that don't exit properly.")
	return cmd
}
