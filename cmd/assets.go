package main

import (
	"embed"
	"io/fs"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/providers"
	"github.com/brettbedarf/webvfs/providers/embedded"
)

//go:embed assets
var assets embed.FS

// registerAssets makes the pages bundled with the binary available as the
// "embedded" source type
func registerAssets(r *providers.Registry) {
	r.Register(webvfs.EmbeddedSourceType, func([]byte) (webvfs.PathProvider, error) {
		sub, err := fs.Sub(assets, "assets")
		if err != nil {
			return nil, err
		}
		return embedded.New(sub, "assets")
	})
}
