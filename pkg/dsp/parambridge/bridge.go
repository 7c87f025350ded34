// Package parambridge provides a lock-free parameter value bridge
// between a UI/control thread and the real-time audio thread.
//
// One atomic.Uint32 (holding a float32 bit pattern) backs each
// parameter slot. The control thread writes with release semantics;
// the audio thread reads with acquire semantics. Neither side blocks
// or allocates.
//
// Grounded on pkg/framework/param.Parameter's atomic value store
// (sync/atomic over a uint64-encoded float64), narrowed here to
// float32 since the spec's plain-value vectors are float32, and
// generalized from a single parameter to a fixed layout of named
// slots built once at construction.
package parambridge

import (
	"math"
	"sync/atomic"
)

// Layout is the fixed, ordered list of parameter IDs a Bridge serves.
// It is built once from a dsp.Params.Specs() result and never mutated;
// only the slot values change at runtime.
type Layout struct {
	ids   []string
	index map[string]int
}

// NewLayout builds a Layout from an ordered list of parameter IDs.
func NewLayout(ids []string) *Layout {
	l := &Layout{
		ids:   append([]string(nil), ids...),
		index: make(map[string]int, len(ids)),
	}
	for i, id := range ids {
		l.index[id] = i
	}
	return l
}

// Len returns the number of slots in the layout.
func (l *Layout) Len() int { return len(l.ids) }

// IndexOf returns the slot index for id and whether it was found.
func (l *Layout) IndexOf(id string) (int, bool) {
	idx, ok := l.index[id]
	return idx, ok
}

// IDs returns the layout's ordered parameter IDs. The returned slice
// must not be mutated by the caller.
func (l *Layout) IDs() []string { return l.ids }

// Bridge is a fixed-size array of atomic float32 slots addressed by
// the Layout that constructed it. A Bridge is safe for concurrent use
// by exactly one writer goroutine and any number of reader goroutines
// (the real-time audio thread among them).
type Bridge struct {
	layout *Layout
	slots  []atomic.Uint32
}

// NewBridge constructs a Bridge with one slot per layout entry,
// initialized to defaults.
func NewBridge(layout *Layout, defaults []float32) *Bridge {
	b := &Bridge{
		layout: layout,
		slots:  make([]atomic.Uint32, layout.Len()),
	}
	for i := range b.slots {
		v := float32(0)
		if i < len(defaults) {
			v = defaults[i]
		}
		b.slots[i].Store(math.Float32bits(v))
	}
	return b
}

// Layout returns the bridge's parameter layout.
func (b *Bridge) Layout() *Layout { return b.layout }

// Write stores a value into the slot for id. It is a no-op if id is
// not present in the layout. Safe to call from a single non-real-time
// writer goroutine.
func (b *Bridge) Write(id string, value float32) {
	idx, ok := b.layout.IndexOf(id)
	if !ok {
		return
	}
	b.WriteIndex(idx, value)
}

// WriteIndex stores a value into the slot at idx. Out-of-range indices
// are ignored.
func (b *Bridge) WriteIndex(idx int, value float32) {
	if idx < 0 || idx >= len(b.slots) {
		return
	}
	b.slots[idx].Store(math.Float32bits(value))
}

// Read loads the current value of the slot for id, and whether it
// exists. Safe to call from the audio thread: never allocates, never
// blocks.
func (b *Bridge) Read(id string) (float32, bool) {
	idx, ok := b.layout.IndexOf(id)
	if !ok {
		return 0, false
	}
	return b.ReadIndex(idx), true
}

// ReadIndex loads the current value of the slot at idx. Out-of-range
// indices return 0.
func (b *Bridge) ReadIndex(idx int) float32 {
	if idx < 0 || idx >= len(b.slots) {
		return 0
	}
	return math.Float32frombits(b.slots[idx].Load())
}

// Snapshot copies every slot's current value into a freshly allocated
// slice in layout order. Intended for non-real-time callers; the audio
// thread should call ApplyTo or ReadIndex/Read to avoid the allocation.
func (b *Bridge) Snapshot() []float32 {
	out := make([]float32, len(b.slots))
	for i := range b.slots {
		out[i] = math.Float32frombits(b.slots[i].Load())
	}
	return out
}

// ApplyTo writes every slot's current value into dst in layout order.
// dst must have at least Layout().Len() elements; extra elements are
// untouched. Never allocates: this is the audio thread's read path
// into a dsp.Params via ApplyPlainValues.
func (b *Bridge) ApplyTo(dst []float32) {
	n := len(b.slots)
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = math.Float32frombits(b.slots[i].Load())
	}
}
