package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/scan"
)

func (a *app) hashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <virtual path>...",
		Short: "Print the MD5 hash of files, md5sum style",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range args {
				f := a.provider.GetFile(p)
				if f == nil || scan.ShouldSkipPath(f, a.cfg.SkipRules()) {
					return fmt.Errorf("file %s: %w", p, webvfs.ErrNotExist)
				}
				hash, err := f.FileHash()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", hash, f.VirtualPath())
			}
			return nil
		},
	}
}
