package ffi

import "github.com/wavecraft-dev/wavecraft/pkg/dsp"

// Adapter wraps a loaded plugin Instance so pkg/devserver can drive it
// through the same dsp.ProcessorWithParams contract as any in-process
// processor. The devserver's bridge already flattens the active
// parameter layout into a plain-value slice every callback; Adapter
// just forwards that slice and the channel buffers across the FFI
// seam instead of calling Go methods directly.
type Adapter struct {
	instance *Instance
	specs    []dsp.ParamSpec
}

// NewAdapter builds an Adapter around an already-created instance and
// the parameter specs discovered for it (via Library.ParamSpecs).
func NewAdapter(instance *Instance, specs []dsp.ParamSpec) *Adapter {
	return &Adapter{instance: instance, specs: specs}
}

// Process forwards channels to the loaded processor after applying
// params' current plain values across the FFI boundary.
func (a *Adapter) Process(channels [][]float32, _ dsp.Transport, params dsp.Params) {
	if fp, ok := params.(*flatParams); ok {
		a.instance.ApplyPlainValues(fp.values)
	}
	a.instance.Process(channels)
}

// SetSampleRate forwards the sample rate as a float32, matching the
// dev vtable's wire format.
func (a *Adapter) SetSampleRate(rate float64) {
	a.instance.SetSampleRate(float32(rate))
}

// Reset forwards to the loaded processor.
func (a *Adapter) Reset() {
	a.instance.Reset()
}

// NewParams returns a flat plain-value Params built from the specs
// discovered at load time; the devserver applies the bridge's values
// into it every callback exactly like any in-process processor.
func (a *Adapter) NewParams() dsp.Params {
	return &flatParams{specs: a.specs, values: dsp.Defaults(a.specs)}
}

// flatParams is the generic Params implementation for a loaded
// plugin: it has no typed fields, only the spec-ordered plain-value
// vector the ABI already speaks.
type flatParams struct {
	specs  []dsp.ParamSpec
	values []float32
}

func (p *flatParams) Specs() []dsp.ParamSpec { return p.specs }
func (p *flatParams) PlainValueCount() int   { return len(p.specs) }
func (p *flatParams) ApplyPlainValues(values []float32) {
	n := len(p.values)
	if len(values) < n {
		n = len(values)
	}
	copy(p.values[:n], values[:n])
}
