package reload

import (
	"io/fs"
	"path/filepath"
)

// walkDirs calls fn for dir and every subdirectory beneath it,
// skipping conventional build-output and VCS directories so the
// watcher isn't flooded by the build step's own writes.
func walkDirs(dir string, fn func(path string) error) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		switch d.Name() {
		case ".git", "target", "node_modules", "dist", "build":
			if path != dir {
				return fs.SkipDir
			}
		}
		return fn(path)
	})
}
