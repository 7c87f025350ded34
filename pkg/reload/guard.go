// Package reload implements the hot-reload pipeline: a file-watch →
// rebuild → parameter-rediscovery → broadcast loop with
// build-coalescing concurrency control.
//
// Grounded on pkg/plugin/wrapper.go's lifecycle discipline (tear down
// the old state only after the new one is committed, recoverPanic at
// every boundary that crosses into less-trusted code) and on
// drgolem-musictools' FilePlayer atomic coordination flags
// (producerDone/playbackComplete as atomic.Bool, no mutexes on the
// hot path), adapted here from audio-thread coordination to
// build-thread coordination.
package reload

import "sync/atomic"

// BuildGuard enforces "at most one build in flight, at most one
// queued" using two atomic booleans. No locks, safe for one writer
// (the pipeline's dispatch goroutine) and any number of event
// producers (the debounced watcher).
type BuildGuard struct {
	building atomic.Bool
	pending  atomic.Bool
}

// TryStart attempts to transition from idle to building via a
// compare-and-swap. If a build is already in flight, it marks pending
// instead and returns false.
func (g *BuildGuard) TryStart() bool {
	if g.building.CompareAndSwap(false, true) {
		return true
	}
	g.pending.Store(true)
	return false
}

// Complete clears building and reports whether another build was
// queued while this one ran (and clears that flag too).
func (g *BuildGuard) Complete() (wasPending bool) {
	g.building.Store(false)
	return g.pending.CompareAndSwap(true, false)
}
