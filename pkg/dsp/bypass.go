package dsp

import "math"

// bypassPhase is the crossfade state machine driving a Bypass
// transition between dry and wet signal paths.
type bypassPhase int

const (
	phaseStable bypassPhase = iota
	phaseFadeOut
	phaseFadeIn
)

const maxBypassChannels = 8

// Bypass wraps a processor with a target/source bypass flag and a
// click-free crossfade. Toggling bypass never produces a
// sample-to-sample discontinuity larger than one block-averaged ramp
// step; the crossfade always runs on both edges of the toggle.
//
// Transition length is clamp(round(sampleRate*0.002), 16, 256) samples,
// derived once in SetSampleRate. A target flip that arrives mid-fade
// does not interrupt the fade in progress; it is only honored once the
// machine returns to Stable.
type Bypass struct {
	child ProcessorWithParams

	sampleRate    float64
	transitionLen int

	source bool
	phase  bypassPhase
	remain int

	scratch [maxBypassChannels][]float32
}

// NewBypass wraps child with a bypass crossfade.
func NewBypass(child ProcessorWithParams) *Bypass {
	b := &Bypass{child: child}
	b.SetSampleRate(48000)
	return b
}

// SetSampleRate recomputes the crossfade transition length and fans
// out to the child.
func (b *Bypass) SetSampleRate(rate float64) {
	b.sampleRate = rate
	n := int(math.Round(rate * 0.002))
	if n < 16 {
		n = 16
	}
	if n > 256 {
		n = 256
	}
	b.transitionLen = n
	b.child.SetSampleRate(rate)
}

// Reset restores the crossfade machine to Stable/dry and resets the
// child.
func (b *Bypass) Reset() {
	b.source = false
	b.phase = phaseStable
	b.remain = 0
	b.child.Reset()
}

// NewParams builds BypassParams wrapping the child's default Params.
func (b *Bypass) NewParams() Params {
	return &BypassParams{Inner: b.child.NewParams()}
}

// Process runs the crossfade state machine described in the processor
// model spec, splitting the block into sub-segments at each phase
// transition so a fade that completes mid-block immediately continues
// into the next phase within the same call.
func (b *Bypass) Process(channels [][]float32, transport Transport, params Params) {
	bp, ok := params.(*BypassParams)
	if !ok {
		return
	}
	target := bp.Bypass != 0
	n := blockLen(channels)
	if n == 0 {
		return
	}

	pos := 0
	for pos < n {
		switch b.phase {
		case phaseStable:
			if target != b.source {
				b.phase = phaseFadeOut
				b.remain = b.transitionLen
				continue
			}
			sub := b.sliceChannels(channels, pos, n)
			if !b.source {
				b.child.Process(sub, transport, bp.Inner)
			}
			pos = n

		case phaseFadeOut:
			seg := b.remain
			if n-pos < seg {
				seg = n - pos
			}
			sub := b.sliceChannels(channels, pos, pos+seg)
			if !b.source {
				b.child.Process(sub, transport, bp.Inner)
			}
			startGain := float32(b.remain) / float32(b.transitionLen)
			endGain := float32(b.remain-seg) / float32(b.transitionLen)
			applyRamp(sub, startGain, endGain)
			b.remain -= seg
			pos += seg
			if b.remain == 0 {
				b.source = target
				b.phase = phaseFadeIn
				b.remain = b.transitionLen
			}

		case phaseFadeIn:
			seg := b.remain
			if n-pos < seg {
				seg = n - pos
			}
			sub := b.sliceChannels(channels, pos, pos+seg)
			if !b.source {
				b.child.Process(sub, transport, bp.Inner)
			}
			startGain := 1 - float32(b.remain)/float32(b.transitionLen)
			endGain := 1 - float32(b.remain-seg)/float32(b.transitionLen)
			applyRamp(sub, startGain, endGain)
			b.remain -= seg
			pos += seg
			if b.remain == 0 {
				b.phase = phaseStable
			}
		}
	}
}

// sliceChannels returns a reusable, allocation-free view of
// channels[:][lo:hi].
func (b *Bypass) sliceChannels(channels [][]float32, lo, hi int) [][]float32 {
	count := len(channels)
	if count > maxBypassChannels {
		count = maxBypassChannels
	}
	for i := 0; i < count; i++ {
		b.scratch[i] = channels[i][lo:hi]
	}
	return b.scratch[:count]
}

func blockLen(channels [][]float32) int {
	if len(channels) == 0 {
		return 0
	}
	return len(channels[0])
}

// applyRamp scales each sample in buf by a linear gain ramp from
// startGain to endGain inclusive of the first sample and exclusive of
// one-past-the-last (i.e. sample i gets startGain + i*(endGain-startGain)/len).
func applyRamp(buf [][]float32, startGain, endGain float32) {
	if len(buf) == 0 || len(buf[0]) == 0 {
		return
	}
	n := len(buf[0])
	if n == 1 {
		for ch := range buf {
			buf[ch][0] *= startGain
		}
		return
	}
	step := (endGain - startGain) / float32(n)
	for ch := range buf {
		gain := startGain
		samples := buf[ch]
		for i := range samples {
			samples[i] *= gain
			gain += step
		}
	}
}

// BypassParams is the Params type for Bypass: the inner Params plus
// one extra stepped-boolean "bypass" parameter.
type BypassParams struct {
	Inner  Params
	Bypass float32
}

// bypassSpec is the parameter spec for the bypass toggle.
var bypassSpec = ParamSpec{
	ID:      "bypass",
	Name:    "Bypass",
	Kind:    KindBool,
	Range:   Range{Min: 0, Max: 1},
	Default: 0,
}

// Specs returns the inner specs followed by the bypass spec.
func (p *BypassParams) Specs() []ParamSpec {
	inner := p.Inner.Specs()
	out := make([]ParamSpec, 0, len(inner)+1)
	out = append(out, inner...)
	out = append(out, bypassSpec)
	return out
}

// PlainValueCount is the inner count plus one.
func (p *BypassParams) PlainValueCount() int {
	return p.Inner.PlainValueCount() + 1
}

// ApplyPlainValues applies the inner prefix to Inner and the trailing
// value (if present) to Bypass.
func (p *BypassParams) ApplyPlainValues(values []float32) {
	innerCount := p.Inner.PlainValueCount()
	split := innerCount
	if split > len(values) {
		split = len(values)
	}
	p.Inner.ApplyPlainValues(values[:split])
	if len(values) > innerCount {
		v := values[innerCount]
		if v != 0 {
			p.Bypass = 1
		} else {
			p.Bypass = 0
		}
	}
}
