package reload

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecraft-dev/wavecraft/pkg/dsp"
)

func TestCacheFileRoundTrip(t *testing.T) {
	cache := &CacheFile{Path: filepath.Join(t.TempDir(), "cache.json")}
	specs := []dsp.ParamSpec{{ID: "gain_db", Name: "Gain", Kind: dsp.KindFloat, Range: dsp.Range{Min: -60, Max: 12}, Default: 0}}

	require.NoError(t, cache.Save(specs))

	loaded, ok := cache.Load()
	require.True(t, ok)
	assert.Equal(t, specs, loaded)
}

func TestCacheFileLoadMissingIsCacheMiss(t *testing.T) {
	cache := &CacheFile{Path: filepath.Join(t.TempDir(), "missing.json")}
	_, ok := cache.Load()
	assert.False(t, ok)
}

func TestCacheFileLoadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("NOTACACHE"), 0o644))

	cache := &CacheFile{Path: path}
	_, ok := cache.Load()
	assert.False(t, ok)
}

func TestCacheFileStaleWhenArtifactNewer(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "cache.json")
	artifactPath := filepath.Join(dir, "artifact.so")

	cache := &CacheFile{Path: cachePath}
	require.NoError(t, cache.Save(nil))
	require.NoError(t, os.WriteFile(artifactPath, []byte("x"), 0o644))

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(cachePath, old, old))

	assert.True(t, cache.Stale(artifactPath))
}

func TestCacheFileNotStaleWhenNewerThanReferences(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "cache.json")
	artifactPath := filepath.Join(dir, "artifact.so")

	require.NoError(t, os.WriteFile(artifactPath, []byte("x"), 0o644))

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(artifactPath, old, old))

	cache := &CacheFile{Path: cachePath}
	require.NoError(t, cache.Save(nil))

	assert.False(t, cache.Stale(artifactPath))
}
