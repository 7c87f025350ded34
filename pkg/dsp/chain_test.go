package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type gainProcessor struct{ gain float32 }

func (g *gainProcessor) Process(channels [][]float32, _ Transport, params Params) {
	gp := params.(*gainParams)
	for _, ch := range channels {
		for i := range ch {
			ch[i] *= gp.Gain
		}
	}
}
func (g *gainProcessor) SetSampleRate(float64) {}
func (g *gainProcessor) Reset()                {}
func (g *gainProcessor) NewParams() Params     { return &gainParams{Gain: 1} }

type gainParams struct{ Gain float32 }

var gainSpec = []ParamSpec{{ID: "gain", Name: "Gain", Kind: KindFloat, Range: Range{Min: 0, Max: 4}, Default: 1}}

func (p *gainParams) Specs() []ParamSpec   { return gainSpec }
func (p *gainParams) PlainValueCount() int { return 1 }
func (p *gainParams) ApplyPlainValues(values []float32) {
	if len(values) > 0 {
		p.Gain = values[0]
	}
}

func TestChainRunsBothProcessorsInOrder(t *testing.T) {
	c := NewChain(&gainProcessor{}, &gainProcessor{})
	params := c.NewParams().(*ChainParams)
	params.A.(*gainParams).Gain = 2
	params.B.(*gainParams).Gain = 3

	buf := []float32{1, 1, 1}
	c.Process([][]float32{buf}, Transport{SampleRate: 48000}, params)

	for _, v := range buf {
		assert.Equal(t, float32(6), v)
	}
}

func TestChainParamsSplitAcrossChildren(t *testing.T) {
	c := NewChain(&gainProcessor{}, &gainProcessor{})
	params := c.NewParams().(*ChainParams)

	assert.Equal(t, 2, params.PlainValueCount())
	params.ApplyPlainValues([]float32{2, 3})
	assert.Equal(t, float32(2), params.A.(*gainParams).Gain)
	assert.Equal(t, float32(3), params.B.(*gainParams).Gain)

	specs := params.Specs()
	assert.Len(t, specs, 2)
}

func TestChainParamsShortSliceAppliesPrefixOnly(t *testing.T) {
	c := NewChain(&gainProcessor{}, &gainProcessor{})
	params := c.NewParams().(*ChainParams)
	params.ApplyPlainValues([]float32{2})

	assert.Equal(t, float32(2), params.A.(*gainParams).Gain)
	assert.Equal(t, float32(1), params.B.(*gainParams).Gain) // untouched default
}
