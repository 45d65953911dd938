package filesystem

import "github.com/brettbedarf/webvfs"

// ResolvePath composes the path of a node named name from its parent's path.
//
// pathOf returns the parent's already-resolved path of the same flavor as
// separator, so one walk serves both virtual and real paths:
//
//	ResolvePath(name, parent, "/", webvfs.Directory.VirtualPath)
//
// A nil parent yields name alone. A parent resolving to exactly separator
// (the root) yields separator+name rather than a doubled separator, and a parent
// resolving to "" (a relative root) yields name alone.
func ResolvePath(name string, parent webvfs.Directory, separator string, pathOf func(webvfs.Directory) string) string {
	if parent == nil {
		return name
	}
	parentPath := pathOf(parent)
	switch parentPath {
	case "":
		return name
	case separator:
		return separator + name
	}
	return parentPath + separator + name
}
