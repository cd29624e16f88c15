package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Walker enumerates candidate files under a set of root directories. Files
// are emitted, directories are only traversed. Entries within a directory
// are visited in name order, so a fixed filesystem state always enumerates
// in the same order.
type Walker struct {
	Roots          []string
	Include        []string
	Exclude        []string
	FollowSymlinks bool

	log zerolog.Logger
}

func NewWalker(roots, include, exclude []string, followSymlinks bool, log zerolog.Logger) *Walker {
	return &Walker{
		Roots:          roots,
		Include:        include,
		Exclude:        exclude,
		FollowSymlinks: followSymlinks,
		log:            log,
	}
}

// Run walks every root in order, sending absolute file paths to out, and
// closes out on return. A root that does not exist or cannot be read is
// reported and the remaining roots continue; only when every root fails is
// the whole enumeration a configuration error. Permission errors below a
// root skip that subtree and keep going.
func (w *Walker) Run(ctx context.Context, out chan<- string) error {
	defer close(out)

	failed := 0
	for _, root := range w.Roots {
		abs, err := filepath.Abs(root)
		if err == nil {
			var info os.FileInfo
			info, err = os.Stat(abs)
			if err == nil && !info.IsDir() {
				err = fmt.Errorf("not a directory")
			}
		}
		if err != nil {
			w.log.Error().Str("root", root).Err(err).Msg("root not scannable")
			failed++
			continue
		}

		visited := map[string]struct{}{}
		if w.FollowSymlinks {
			if real, err := filepath.EvalSymlinks(abs); err == nil {
				visited[real] = struct{}{}
			}
		}
		if err := w.walkDir(ctx, abs, visited, out); err != nil {
			return err
		}
	}

	if failed == len(w.Roots) {
		return fmt.Errorf("%w: no scannable roots", ErrConfiguration)
	}
	return nil
}

func (w *Walker) walkDir(ctx context.Context, dir string, visited map[string]struct{}, out chan<- string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir) // sorted by name
	if err != nil {
		w.log.Warn().Str("dir", dir).Err(err).Msg("skipping unreadable directory")
		return nil
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		typ := entry.Type()

		if typ&fs.ModeSymlink != 0 {
			if !w.FollowSymlinks {
				continue
			}
			if err := w.walkSymlink(ctx, path, visited, out); err != nil {
				return err
			}
			continue
		}

		switch {
		case typ.IsDir():
			if w.excluded(path) {
				continue
			}
			if err := w.walkDir(ctx, path, visited, out); err != nil {
				return err
			}
		case typ.IsRegular():
			if !w.wanted(path) {
				continue
			}
			select {
			case out <- path:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// walkSymlink resolves a symlink and continues behind it. A resolution
// failure or a cycle abandons that subtree only.
func (w *Walker) walkSymlink(ctx context.Context, path string, visited map[string]struct{}, out chan<- string) error {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		w.log.Warn().Str("path", path).Err(err).Msg("skipping unresolvable symlink")
		return nil
	}
	info, err := os.Stat(real)
	if err != nil {
		w.log.Warn().Str("path", path).Err(err).Msg("skipping symlink target")
		return nil
	}

	if info.IsDir() {
		if _, seen := visited[real]; seen {
			w.log.Warn().Str("path", path).Str("target", real).Msg("symlink cycle detected, skipping subtree")
			return nil
		}
		visited[real] = struct{}{}
		if w.excluded(path) {
			return nil
		}
		return w.walkDir(ctx, path, visited, out)
	}

	if info.Mode().IsRegular() && w.wanted(path) {
		select {
		case out <- path:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// wanted applies include then exclude filters to a file path.
func (w *Walker) wanted(path string) bool {
	if len(w.Include) > 0 && !matchAny(w.Include, path) {
		return false
	}
	return !w.excluded(path)
}

func (w *Walker) excluded(path string) bool {
	for _, pattern := range w.Exclude {
		if matchPattern(pattern, path) {
			return true
		}
		if underPrefix(path, pattern) {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// underPrefix reports whether path equals prefix or lies inside it. The
// boundary must fall on a separator so /data/foo does not capture
// /data/foobar.
func underPrefix(path, prefix string) bool {
	prefix = strings.TrimRight(prefix, string(filepath.Separator))
	if prefix == "" || !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == filepath.Separator
}

// matchPattern matches a glob against the base name and the full path.
func matchPattern(pattern, path string) bool {
	if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
		return true
	}
	ok, _ := filepath.Match(pattern, path)
	return ok
}
