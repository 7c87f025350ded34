package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOscilloscopeEmitsFramePointsPerChannel(t *testing.T) {
	var last ScopeFrame
	o := NewOscilloscope(func(f ScopeFrame) { last = f })

	buf0 := make([]float32, 512)
	buf1 := make([]float32, 512)
	for i := range buf0 {
		buf0[i] = float32(math.Sin(2 * math.Pi * 100 * float64(i) / 48000))
		buf1[i] = buf0[i]
	}
	o.Process([][]float32{buf0, buf1}, Transport{SampleRate: 48000}, emptyParams{})

	require.Len(t, last.PointsL, framePoints)
	require.Len(t, last.PointsR, framePoints)
}

func TestOscilloscopePassthroughInvariance(t *testing.T) {
	o := NewOscilloscope(nil)
	buf := make([]float32, 256)
	for i := range buf {
		buf[i] = float32(i) * 0.001
	}
	orig := append([]float32(nil), buf...)
	o.Process([][]float32{buf}, Transport{SampleRate: 48000}, emptyParams{})
	assert.Equal(t, orig, buf)
}

func TestOscilloscopeSilentBlockReportsNoSignal(t *testing.T) {
	var last ScopeFrame
	o := NewOscilloscope(func(f ScopeFrame) { last = f })
	buf := make([]float32, 1024)
	o.Process([][]float32{buf}, Transport{SampleRate: 48000}, emptyParams{})
	assert.True(t, last.NoSignal)
}

func TestOscilloscopeResetClearsHistory(t *testing.T) {
	o := NewOscilloscope(nil)
	buf := make([]float32, 1024)
	for i := range buf {
		buf[i] = 1.0
	}
	o.Process([][]float32{buf}, Transport{SampleRate: 48000}, emptyParams{})
	o.Reset()
	assert.Equal(t, 0, o.filled)
	for _, v := range o.historyL {
		assert.Equal(t, float32(0), v)
	}
}
