package dsp

// Transport carries the read-only transport snapshot a processor may
// consult during Process. The dev audio server does not drive a host
// timeline, so Tempo and Playhead are fixed defaults, but the field is
// part of the contract so processors written against it remain portable
// to a real host.
type Transport struct {
	SampleRate float64
	Tempo      float64
	Playhead   float64
}

// Processor is the contract every wavecraft DSP component implements.
//
// Process consumes a mutable slice of mutable sample slices (outer =
// channels, inner = samples) and writes output in place. Implementations
// must never allocate, never block, and never panic across the FFI
// boundary (panics inside a loaded plugin are caught at the vtable shim,
// see pkg/ffi).
//
// SetSampleRate is called once at initialization and again on every
// sample-rate change; implementations recompute coefficients here and
// only here.
//
// Reset restores all DSP state to the condition a freshly constructed
// instance would have.
type Processor interface {
	Process(channels [][]float32, transport Transport, params Params)
	SetSampleRate(rate float64)
	Reset()
}

// ProcessorWithParams pairs a Processor with the Params instance it
// reads during Process. Combinators (Chain, Bypass) build composite
// Params types from their children's.
type ProcessorWithParams interface {
	Processor
	NewParams() Params
}
