// Package scan walks provider trees, leaving out nodes matched by [SkipRules].
package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/internal/util"
)

// SkipDir may be returned by a [WalkFunc] to leave the rest of a directory out of
// the walk. Returned for a directory it skips that directory's contents; returned
// for a file it skips the containing directory's remaining entries, its
// subdirectories included, as with [filepath.Walk]. It is never returned by [Walk].
var SkipDir = errors.New("skip this directory")

// SkipRules selects nodes to leave out of scans and listings
type SkipRules struct {
	// Prefixes are matched case-insensitively against the start of a virtual path.
	// Leading "/" is ignored on both sides, so "/secret" matches "/Secret/file.txt".
	Prefixes []string `json:"prefixes,omitempty" yaml:"prefixes,omitempty"`

	// Patterns are doublestar globs (i.e. "**/*.map") matched against the virtual
	// path without its leading "/"
	Patterns []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
}

// Empty reports whether the rules never skip anything
func (r SkipRules) Empty() bool {
	return len(r.Prefixes) == 0 && len(r.Patterns) == 0
}

// Validate checks that every pattern is a valid glob
func (r SkipRules) Validate() error {
	for _, p := range r.Patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("skip pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}
	return nil
}

// ShouldSkipPath reports whether node is matched by any of the rules
func ShouldSkipPath(node webvfs.Node, rules SkipRules) bool {
	return ShouldSkipVirtualPath(node.VirtualPath(), rules)
}

// ShouldSkipVirtualPath is [ShouldSkipPath] for a bare virtual path
func ShouldSkipVirtualPath(virtualPath string, rules SkipRules) bool {
	p := strings.TrimLeft(virtualPath, "/")
	lower := strings.ToLower(p)
	for _, prefix := range rules.Prefixes {
		prefix = strings.ToLower(strings.TrimLeft(prefix, "/"))
		if prefix != "" && strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	for _, pattern := range rules.Patterns {
		// Invalid patterns are rejected by Validate; here they never match
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

// WalkFunc is called for each node visited by [Walk]
type WalkFunc func(node webvfs.Node) error

// Walk visits dir and everything under it depth-first: a directory, then its
// files in name order, then its subdirectories. Nodes matched by rules are not
// visited and skipped directories are not descended. The walk stops at the first
// error returned by fn, other than [SkipDir], or when ctx is done.
func Walk(ctx context.Context, dir webvfs.Directory, rules SkipRules, fn WalkFunc) error {
	err := walk(ctx, dir, rules, fn)
	if errors.Is(err, SkipDir) {
		return nil
	}
	return err
}

func walk(ctx context.Context, dir webvfs.Directory, rules SkipRules, fn WalkFunc) error {
	logger := util.GetLogger("scan.Walk")

	if err := ctx.Err(); err != nil {
		return err
	}
	if ShouldSkipPath(dir, rules) {
		logger.Trace().Str("path", dir.VirtualPath()).Msg("Skipping directory")
		return nil
	}
	if err := fn(dir); err != nil {
		return err
	}

	for _, f := range dir.Files() {
		if ShouldSkipPath(f, rules) {
			logger.Trace().Str("path", f.VirtualPath()).Msg("Skipping file")
			continue
		}
		if err := fn(f); err != nil {
			if errors.Is(err, SkipDir) {
				// Remaining files and all subdirectories are left out
				return nil
			}
			return err
		}
	}

	for _, sub := range dir.Directories() {
		if err := walk(ctx, sub, rules, fn); err != nil && !errors.Is(err, SkipDir) {
			return err
		}
	}
	return nil
}

// Files returns every file under dir that the rules keep, in walk order
func Files(ctx context.Context, dir webvfs.Directory, rules SkipRules) ([]webvfs.File, error) {
	var files []webvfs.File
	err := Walk(ctx, dir, rules, func(node webvfs.Node) error {
		if f, ok := node.(webvfs.File); ok {
			files = append(files, f)
		}
		return nil
	})
	return files, err
}
