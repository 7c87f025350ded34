package reload

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherDebouncesBurstIntoOneChange(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	file := filepath.Join(dir, "main.go")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(file, []byte("package main"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-w.Changes:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a debounced change signal")
	}

	select {
	case <-w.Changes:
		t.Fatal("expected the burst to coalesce into a single change signal")
	case <-time.After(debounceWindow * 2):
	}
}
