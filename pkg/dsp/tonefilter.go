package dsp

import "math"

// FilterMode selects the tone filter's response shape.
type FilterMode int

const (
	FilterLowPass FilterMode = iota
	FilterHighPass
	FilterBandPass
)

func (m FilterMode) String() string {
	switch m {
	case FilterLowPass:
		return "low_pass"
	case FilterHighPass:
		return "high_pass"
	case FilterBandPass:
		return "band_pass"
	default:
		return "unknown"
	}
}

// maxFilterChannels caps per-channel biquad state; channels beyond the
// cap share the state slot of the last supported channel.
const maxFilterChannels = 8

// biquadState holds one channel's direct-form-I history (two past
// inputs, two past outputs).
type biquadState struct {
	x1, x2, y1, y2 float64
}

func (s *biquadState) reset() {
	*s = biquadState{}
}

// ToneFilter is a single RBJ cookbook biquad with a mode, cutoff, and
// resonance parameter, plus a stepped bypass.
//
// Grounded on pkg/dsp/filter.Biquad's SetLowpass/SetHighpass/SetBandpass
// coefficient formulas and its per-channel x1/x2/y1/y2 state slice,
// generalized here to a fixed small state array (instead of a
// slice-per-instantiation) since the state cap is a documented
// invariant rather than an open-ended channel count.
type ToneFilter struct {
	sampleRate float64

	b0, b1, b2 float64
	a1, a2     float64

	states [maxFilterChannels]biquadState
}

// NewToneFilter constructs a tone filter with a default 48kHz coefficient
// set; SetSampleRate and the first Process call's ApplyPlainValues
// establish the real operating point.
func NewToneFilter() *ToneFilter {
	f := &ToneFilter{}
	f.SetSampleRate(48000)
	f.recompute(FilterLowPass, 1000, 0.707)
	return f
}

// SetSampleRate records the rate; coefficients are recomputed lazily on
// the next Process call since they also depend on the current
// cutoff/resonance/mode parameter values.
func (f *ToneFilter) SetSampleRate(rate float64) {
	f.sampleRate = rate
}

// Reset clears all channel state; coefficients are untouched.
func (f *ToneFilter) Reset() {
	for i := range f.states {
		f.states[i].reset()
	}
}

// NewParams builds the default ToneFilterParams.
func (f *ToneFilter) NewParams() Params {
	return &ToneFilterParams{Mode: float32(FilterLowPass), CutoffHz: 1000, ResonanceQ: 0.707, Bypass: 0}
}

// Process applies the biquad in place, one channel at a time, sharing
// the last state slot across any channels beyond maxFilterChannels. If
// Bypass is set, input passes through untouched and no state is
// updated (per the bypass invariant).
func (f *ToneFilter) Process(channels [][]float32, transport Transport, params Params) {
	tp, ok := params.(*ToneFilterParams)
	if !ok {
		return
	}
	if transport.SampleRate > 0 && transport.SampleRate != f.sampleRate {
		f.sampleRate = transport.SampleRate
	}
	if tp.Bypass != 0 {
		return
	}
	f.recompute(FilterMode(tp.Mode), float64(tp.CutoffHz), float64(tp.ResonanceQ))

	for ch := range channels {
		idx := ch
		if idx >= maxFilterChannels {
			idx = maxFilterChannels - 1
		}
		st := &f.states[idx]
		samples := channels[ch]
		for i, x0 := range samples {
			y0 := f.b0*float64(x0) + f.b1*st.x1 + f.b2*st.x2 - f.a1*st.y1 - f.a2*st.y2
			st.x2, st.x1 = st.x1, float64(x0)
			st.y2, st.y1 = st.y1, y0
			samples[i] = float32(y0)
		}
	}
}

// recompute derives RBJ cookbook coefficients for the given mode,
// cutoff (Hz, clamped to [20,20000]), and Q (clamped to [0.1,10]).
func (f *ToneFilter) recompute(mode FilterMode, cutoffHz, q float64) {
	if cutoffHz < 20 {
		cutoffHz = 20
	}
	if cutoffHz > 20000 {
		cutoffHz = 20000
	}
	if q < 0.1 {
		q = 0.1
	}
	if q > 10 {
		q = 10
	}
	nyquist := f.sampleRate / 2
	if nyquist <= 0 {
		nyquist = 24000
	}
	if cutoffHz > nyquist*0.999 {
		cutoffHz = nyquist * 0.999
	}

	omega := 2 * math.Pi * cutoffHz / f.sampleRate
	sinW := math.Sin(omega)
	cosW := math.Cos(omega)
	alpha := sinW / (2 * q)

	var b0, b1, b2, a0, a1, a2 float64
	switch mode {
	case FilterHighPass:
		b0 = (1 + cosW) / 2
		b1 = -(1 + cosW)
		b2 = (1 + cosW) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW
		a2 = 1 - alpha
	case FilterBandPass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosW
		a2 = 1 - alpha
	default: // FilterLowPass
		b0 = (1 - cosW) / 2
		b1 = 1 - cosW
		b2 = (1 - cosW) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW
		a2 = 1 - alpha
	}

	f.b0 = b0 / a0
	f.b1 = b1 / a0
	f.b2 = b2 / a0
	f.a1 = a1 / a0
	f.a2 = a2 / a0
}

// ToneFilterParams is the Params type for ToneFilter.
type ToneFilterParams struct {
	Mode       float32
	CutoffHz   float32
	ResonanceQ float32
	Bypass     float32
}

var toneFilterSpecs = []ParamSpec{
	{ID: "mode", Name: "Mode", Kind: KindEnum, Range: Range{Min: 0, Max: 2}, Default: 0, Variants: []string{"low_pass", "high_pass", "band_pass"}},
	{ID: "cutoff_hz", Name: "Cutoff", Kind: KindFloat, Range: Range{Min: 20, Max: 20000, Skew: 0.3}, Default: 1000, Unit: "Hz"},
	{ID: "resonance_q", Name: "Resonance", Kind: KindFloat, Range: Range{Min: 0.1, Max: 10.0}, Default: 0.707},
	{ID: "bypass", Name: "Bypass", Kind: KindBool, Range: Range{Min: 0, Max: 1}, Default: 0},
}

func (p *ToneFilterParams) Specs() []ParamSpec { return toneFilterSpecs }

func (p *ToneFilterParams) PlainValueCount() int { return len(toneFilterSpecs) }

func (p *ToneFilterParams) ApplyPlainValues(values []float32) {
	if len(values) > 0 {
		p.Mode = values[0]
	}
	if len(values) > 1 {
		p.CutoffHz = values[1]
	}
	if len(values) > 2 {
		p.ResonanceQ = values[2]
	}
	if len(values) > 3 {
		if values[3] != 0 {
			p.Bypass = 1
		} else {
			p.Bypass = 0
		}
	}
}
