package fs

import (
	iofs "io/fs"
	"iter"
	"path/filepath"
)

// skipDirectories are directories never worth priming or watching.
var skipDirectories = map[string]bool{
	".git":         true,
	".jj":          true,
	"node_modules": true,
	"__pycache__":  true,
}

// Walker yields the files under a root, skipping version control and
// vendored directories. It is used to prime the content hash store before
// watching starts.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every regular file under root. Unreadable directories
// are skipped, not fatal.
func (w *Walker) WalkFiles(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // Skip unreadable entries and keep walking
			}
			if d.IsDir() {
				if skipDirectories[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// SkipDir reports whether a directory name is in the default skip list.
// The watcher shares this list so primed and watched trees agree.
func SkipDir(name string) bool {
	return skipDirectories[name]
}
