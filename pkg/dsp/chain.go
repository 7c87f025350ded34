package dsp

// Chain runs two processors serially on the same buffer: A then B.
//
// Its Params type (ChainParams) is the structural pair of the
// children's Params; its flat plain-value vector is the concatenation
// of the children's vectors in declared order. Lifecycle calls
// (SetSampleRate, Reset) fan out to both children.
//
// Grounded on pkg/framework/dsp.Chain's processor-slice composition,
// generalized here to a typed pair so ApplyPlainValues can split the
// incoming slice at a compile-time-known boundary instead of walking a
// slice of interfaces.
type Chain struct {
	A, B ProcessorWithParams
}

// NewChain composes two processors into a serial chain.
func NewChain(a, b ProcessorWithParams) *Chain {
	return &Chain{A: a, B: b}
}

// Process runs A then B in place on the shared buffer.
func (c *Chain) Process(channels [][]float32, transport Transport, params Params) {
	cp, ok := params.(*ChainParams)
	if !ok {
		return
	}
	c.A.Process(channels, transport, cp.A)
	c.B.Process(channels, transport, cp.B)
}

// SetSampleRate fans out to both children.
func (c *Chain) SetSampleRate(rate float64) {
	c.A.SetSampleRate(rate)
	c.B.SetSampleRate(rate)
}

// Reset fans out to both children.
func (c *Chain) Reset() {
	c.A.Reset()
	c.B.Reset()
}

// NewParams builds the structural pair of the children's default
// Params.
func (c *Chain) NewParams() Params {
	return &ChainParams{A: c.A.NewParams(), B: c.B.NewParams()}
}

// ChainParams is the Params type for a Chain: the structural pair of
// the children's Params.
type ChainParams struct {
	A, B Params
}

// Specs concatenates the children's spec lists in declared order.
func (p *ChainParams) Specs() []ParamSpec {
	a := p.A.Specs()
	b := p.B.Specs()
	out := make([]ParamSpec, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// PlainValueCount is the sum of the children's counts.
func (p *ChainParams) PlainValueCount() int {
	return p.A.PlainValueCount() + p.B.PlainValueCount()
}

// ApplyPlainValues splits the incoming slice at A.PlainValueCount() and
// applies each half to the corresponding child. A short slice still
// applies whatever prefix it can to A before B sees an empty remainder.
func (p *ChainParams) ApplyPlainValues(values []float32) {
	split := p.A.PlainValueCount()
	if split > len(values) {
		split = len(values)
	}
	p.A.ApplyPlainValues(values[:split])
	p.B.ApplyPlainValues(values[split:])
}
