package filesystem

import (
	"slices"
	"strings"

	"github.com/brettbedarf/webvfs"
)

// SortByName orders nodes by name in place
func SortByName[T webvfs.Node](nodes []T) {
	slices.SortFunc(nodes, func(a, b T) int {
		return strings.Compare(a.Name(), b.Name())
	})
}

// AllFiles returns every file under dir depth-first: the directory's own files
// in name order, then those of each subdirectory in name order.
func AllFiles(dir webvfs.Directory) []webvfs.File {
	var files []webvfs.File
	var collect func(d webvfs.Directory)
	collect = func(d webvfs.Directory) {
		files = append(files, d.Files()...)
		for _, sub := range d.Directories() {
			collect(sub)
		}
	}
	collect(dir)
	return files
}
