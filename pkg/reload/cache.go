package reload

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wavecraft-dev/wavecraft/pkg/dsp"
)

const (
	cacheMagic   = "WCDEVCACHE"
	cacheVersion = uint32(1)
)

// CacheFile is an optional sidecar file holding the most recently
// discovered parameter list, written next to the build artifact to
// let the dev server skip a full rebuild-and-rediscover cycle on
// startup. It is purely an optimization: any read failure or
// staleness is treated as a cache miss, never an error that blocks
// startup.
//
// Grounded on pkg/framework/state.Manager's magic-header + version +
// binary-encoded save/load discipline, repurposed from plugin host
// state persistence to a discovery-acceleration cache; the per-field
// binary.Write encoding there doesn't fit dsp.ParamSpec's
// variable-length strings and variant slices, so the payload itself
// is JSON while the magic header and version prefix keep the same
// shape as the original.
type CacheFile struct {
	Path string
}

// Load reads and validates the cache. A missing file, bad magic, or a
// version newer than this binary understands all report ok=false
// rather than an error.
func (c *CacheFile) Load() (specs []dsp.ParamSpec, ok bool) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	r := bufio.NewReader(f)

	header := make([]byte, len(cacheMagic))
	if _, err := io.ReadFull(r, header); err != nil || string(header) != cacheMagic {
		return nil, false
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil || version > cacheVersion {
		return nil, false
	}

	var payload []dsp.ParamSpec
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, false
	}
	return payload, true
}

// Save writes specs to the cache file, overwriting any existing
// content.
func (c *CacheFile) Save(specs []dsp.ParamSpec) error {
	f, err := os.Create(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(cacheMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, cacheVersion); err != nil {
		return err
	}
	if err := json.NewEncoder(w).Encode(specs); err != nil {
		return err
	}
	return w.Flush()
}

// Stale reports whether the cache should be ignored because any of
// the given reference paths (the build artifact, the dev-tool binary,
// or engine source files) is newer than the cache file itself. A
// missing cache file or a missing reference path both count as stale.
func (c *CacheFile) Stale(referencePaths ...string) bool {
	cacheInfo, err := os.Stat(c.Path)
	if err != nil {
		return true
	}
	for _, p := range referencePaths {
		info, err := os.Stat(p)
		if err != nil || info.ModTime().After(cacheInfo.ModTime()) {
			return true
		}
	}
	return false
}

// NewestSourceMTime walks dir (skipping the same build-output and VCS
// directories as the watcher) and returns the os.FileInfo of its most
// recently modified non-directory entry.
func NewestSourceMTime(dir string) (latest os.FileInfo, err error) {
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "target", "node_modules", "dist", "build":
				if path != dir {
					return filepath.SkipDir
				}
			}
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		if latest == nil || info.ModTime().After(latest.ModTime()) {
			latest = info
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reload: scanning %s: %w", filepath.Clean(dir), err)
	}
	if latest == nil {
		return nil, fmt.Errorf("reload: no source files found under %s", dir)
	}
	return latest, nil
}
