package parambridge

import (
	"sync/atomic"

	"github.com/wavecraft-dev/wavecraft/pkg/dsp"
)

// SpecsHolder atomically publishes the parameter descriptor list that
// goes with the currently active Bridge. A Bridge only carries scalar
// values; the WebSocket surface's getAllParameters also needs name,
// kind, range, unit, and group, which live here instead.
//
// Grounded on the same atomic.Pointer swap discipline as Holder,
// applied to a second piece of state that changes in lockstep with the
// bridge on every hot-reload.
type SpecsHolder struct {
	ptr atomic.Pointer[[]dsp.ParamSpec]
}

// NewSpecsHolder wraps an initial spec list.
func NewSpecsHolder(specs []dsp.ParamSpec) *SpecsHolder {
	h := &SpecsHolder{}
	h.ptr.Store(&specs)
	return h
}

// Load returns the currently active spec list. Callers must not mutate
// the returned slice.
func (h *SpecsHolder) Load() []dsp.ParamSpec {
	p := h.ptr.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Store installs a new spec list.
func (h *SpecsHolder) Store(specs []dsp.ParamSpec) {
	h.ptr.Store(&specs)
}
