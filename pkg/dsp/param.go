// Package dsp defines the real-time processor contract shared by every
// wavecraft DSP component: block-based, in-place, stereo-or-more audio
// processing with no allocation, no locking, and no panics on the audio
// thread.
package dsp

import "fmt"

// Kind identifies the wire representation of a parameter's value.
type Kind int

const (
	// KindFloat is a continuous floating point value.
	KindFloat Kind = iota
	// KindInt is a stepped integer value.
	KindInt
	// KindBool is a stepped boolean value (0 or 1).
	KindBool
	// KindEnum is an index into Variants.
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Range describes how a parameter's plain value is bounded and, for
// skewed ranges, how it maps to/from a normalized [0,1] host value.
type Range struct {
	Min   float64
	Max   float64
	// Skew is the cookbook power-curve factor for KindFloat parameters
	// with a non-linear response (e.g. frequency controls). A Skew of
	// 0 means linear.
	Skew float64
}

// ParamSpec is a stable description of one processor parameter.
//
// ID is snake_case ASCII and unique within the owning processor/chain.
// Invariant: Min <= Default <= Max; for KindEnum, Default is an index
// into Variants.
type ParamSpec struct {
	ID       string
	Name     string
	Kind     Kind
	Range    Range
	Default  float64
	Unit     string
	Group    string
	Variants []string
}

// Clamp restricts a plain value to the spec's declared range.
func (s ParamSpec) Clamp(v float64) float64 {
	if v < s.Range.Min {
		return s.Range.Min
	}
	if v > s.Range.Max {
		return s.Range.Max
	}
	return v
}

// Validate checks the invariants a ParamSpec must hold.
func (s ParamSpec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("param: empty id")
	}
	if s.Range.Min > s.Default || s.Default > s.Range.Max {
		return fmt.Errorf("param %q: default %v outside range [%v,%v]", s.ID, s.Default, s.Range.Min, s.Range.Max)
	}
	if s.Kind == KindEnum {
		idx := int(s.Default)
		if idx < 0 || idx >= len(s.Variants) {
			return fmt.Errorf("param %q: enum default %d outside variants %v", s.ID, idx, s.Variants)
		}
	}
	return nil
}

// Params is implemented by every processor's parameter value holder. It
// carries the current scalar values for one processing call.
type Params interface {
	// Specs returns the flat, ordered list of parameter specs this
	// Params type accepts.
	Specs() []ParamSpec

	// PlainValueCount equals len(Specs()).
	PlainValueCount() int

	// ApplyPlainValues ingests up to PlainValueCount() values in
	// declared order. A short slice is accepted; only the prefix is
	// applied and the remaining parameters retain their previous
	// values. Never allocates, never panics.
	ApplyPlainValues(values []float32)
}

// Defaults builds the default plain-value vector for a spec list.
func Defaults(specs []ParamSpec) []float32 {
	out := make([]float32, len(specs))
	for i, s := range specs {
		out[i] = float32(s.Default)
	}
	return out
}
