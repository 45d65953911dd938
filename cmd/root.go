package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/config"
	"github.com/brettbedarf/webvfs/internal/util"
	"github.com/brettbedarf/webvfs/providers"
)

const appName = "webvfs"

// app holds what every subcommand needs once flags are parsed
type app struct {
	configPath string
	rootDir    string
	verbose    int

	cfg      *config.Config
	provider webvfs.PathProvider
}

func Root() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:               appName,
		Short:             "Serve, mount and inspect virtual path provider trees",
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML or JSON config file")
	flags.StringVarP(&a.rootDir, "root", "r", "", "Serve a local directory, ahead of any configured sources")
	flags.IntVarP(&a.verbose, "verbose", "v", config.InfoVerbose,
		"Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")

	root.AddCommand(
		a.lsCommand(),
		a.hashCommand(),
		a.serveCommand(),
		a.mountCommand(),
	)
	return root
}

// setup loads the config, initializes logging and builds the provider
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" {
		return nil
	}

	override := &config.ConfigOverride{}
	if a.configPath != "" {
		var err error
		if override, err = config.LoadConfigOverrideFile(a.configPath); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("verbose") || override.LogLvl == nil {
		override.LogLvl = &a.verbose
	}
	if a.rootDir != "" {
		disk := map[string]any{"type": webvfs.DiskSourceType, "root": a.rootDir}
		override.Sources = append([]map[string]any{disk}, override.Sources...)
	}

	a.cfg = config.NewConfig(override)
	util.InitializeLogger(a.cfg.LogLvl)
	logger := util.GetLogger("main")

	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if len(a.cfg.Sources) == 0 {
		return errors.New("no sources configured; pass --root or a config file with sources")
	}

	docs, err := a.cfg.SourceDocs()
	if err != nil {
		return err
	}
	registry := providers.NewRegistry()
	registry.RegisterBuiltins()
	registerAssets(registry)
	provider, err := registry.FromSources(docs)
	if err != nil {
		return fmt.Errorf("build sources: %w", err)
	}
	a.provider = provider

	logger.Debug().
		Str("config", a.configPath).
		Int("sources", len(docs)).
		Msg("Provider initialized")
	return nil
}
