package parambridge

import "sync/atomic"

// Holder is an atomically-swappable reference to the current Bridge.
// A hot-reload swaps in a Bridge built from the freshly loaded
// plugin's parameter layout; readers already holding a *Bridge from
// Load continue reading the old bridge's slots until their next Load
// call, so an in-flight audio callback never observes a half-built
// bridge.
//
// Grounded on the state-swap discipline in
// pkg/plugin/wrapper.go's component lifecycle (old state is fully
// torn down only after the new one is live), generalized here to
// atomic.Pointer since there is no VST3 host object graph to protect.
type Holder struct {
	ptr atomic.Pointer[Bridge]
}

// NewHolder wraps an initial Bridge.
func NewHolder(b *Bridge) *Holder {
	h := &Holder{}
	h.ptr.Store(b)
	return h
}

// Load returns the currently active Bridge. Safe to call from the
// audio thread every block; never allocates, never blocks.
func (h *Holder) Load() *Bridge {
	return h.ptr.Load()
}

// Swap installs a new Bridge and returns the previous one. The caller
// (the reload pipeline) is responsible for not mutating the returned
// bridge further.
func (h *Holder) Swap(b *Bridge) *Bridge {
	return h.ptr.Swap(b)
}
