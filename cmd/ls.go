package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/scan"
)

func (a *app) lsCommand() *cobra.Command {
	var withHash bool
	cmd := &cobra.Command{
		Use:   "ls [virtual path]",
		Short: "List the files under a virtual directory (default /)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dirPath := a.provider.VirtualPathSeparator()
			if len(args) == 1 {
				dirPath = args[0]
			}
			dir := a.provider.GetDirectory(dirPath)
			if dir == nil {
				return fmt.Errorf("directory %s: %w", dirPath, webvfs.ErrNotExist)
			}

			files, err := scan.Files(cmd.Context(), dir, a.cfg.SkipRules())
			if err != nil {
				return err
			}
			return renderFiles(cmd, files, withHash)
		},
	}
	cmd.Flags().BoolVar(&withHash, "hash", false, "Include the MD5 hash of every file")
	return cmd
}

func renderFiles(cmd *cobra.Command, files []webvfs.File, withHash bool) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Footer = text.FormatDefault
	tw.SetOutputMirror(cmd.OutOrStdout())

	header := table.Row{"Virtual Path", "Real Path", "Size", "Modified"}
	if withHash {
		header = append(header, "MD5")
	}
	tw.AppendHeader(header)

	for _, f := range files {
		row := table.Row{f.VirtualPath(), f.RealPath(), sizeCell(f), f.LastModified().Format(time.RFC3339)}
		if withHash {
			hash, err := f.FileHash()
			if err != nil {
				return err
			}
			row = append(row, hash)
		}
		tw.AppendRow(row)
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d files", len(files)), "", totalLength(files)})
	tw.Render()
	return nil
}

// sizeCell shows "?" for files whose length is unknown (-1)
func sizeCell(f webvfs.File) any {
	if n := f.Length(); n >= 0 {
		return n
	}
	return "?"
}

// totalLength sums the known lengths of files
func totalLength(files []webvfs.File) int64 {
	var total int64
	for _, f := range files {
		total += max(f.Length(), 0)
	}
	return total
}
