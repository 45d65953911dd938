package main

import (
	"github.com/spf13/cobra"

	"github.com/brettbedarf/webvfs/server"
)

func (a *app) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the provider tree over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.HTTPAddr = addr
			}
			h, err := server.NewHandler(a.provider, server.HandlerOptions{
				IndexFile: a.cfg.IndexFile,
				SkipRules: a.cfg.SkipRules(),
			})
			if err != nil {
				return err
			}
			return server.ListenAndServe(cmd.Context(), a.cfg.HTTPAddr, h)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides http_addr from the config")
	return cmd
}
