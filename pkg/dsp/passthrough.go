package dsp

// Passthrough is the dev server's stand-in processor before the first
// successful hot-reload build: it leaves every channel untouched and
// exposes no parameters. A "no DSP loaded yet" state is ordinary, not
// exceptional, so the audio callback always has a real processor to
// drive rather than a special-cased nil check.
type Passthrough struct{}

// NewPassthrough constructs a Passthrough.
func NewPassthrough() *Passthrough { return &Passthrough{} }

func (Passthrough) Process([][]float32, Transport, Params) {}
func (Passthrough) SetSampleRate(float64)                  {}
func (Passthrough) Reset()                                 {}
func (Passthrough) NewParams() Params                      { return noParams{} }

// noParams is the empty Params for Passthrough.
type noParams struct{}

func (noParams) Specs() []ParamSpec         { return nil }
func (noParams) PlainValueCount() int       { return 0 }
func (noParams) ApplyPlainValues([]float32) {}
