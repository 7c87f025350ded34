package devserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecraft-dev/wavecraft/pkg/dsp"
	"github.com/wavecraft-dev/wavecraft/pkg/dsp/parambridge"
)

type passthrough struct{}

func (passthrough) Process([][]float32, dsp.Transport, dsp.Params) {}
func (passthrough) SetSampleRate(float64)                          {}
func (passthrough) Reset()                                         {}
func (passthrough) NewParams() dsp.Params                          { return emptyParams{} }

type emptyParams struct{}

func (emptyParams) Specs() []dsp.ParamSpec     { return nil }
func (emptyParams) PlainValueCount() int       { return 0 }
func (emptyParams) ApplyPlainValues([]float32) {}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	layout := parambridge.NewLayout(nil)
	bridge := parambridge.NewBridge(layout, nil)
	holder := parambridge.NewHolder(bridge)

	s := NewServer(Config{BufferSize: 64}, passthrough{}, holder)
	s.sampleRate = 48000
	return s
}

func TestProcessInputDeinterleavesMonoToBothChannels(t *testing.T) {
	s := newTestServer(t)
	in := []float32{0.1, 0.2, 0.3}
	s.processInput(in, 1)

	assert.Equal(t, float32(0.1), s.left[0])
	assert.Equal(t, float32(0.1), s.right[0])
	assert.Equal(t, float32(0.3), s.left[2])
}

func TestProcessInputStagesSamplesIntoAudioRing(t *testing.T) {
	s := newTestServer(t)
	in := []float32{0.5, -0.5, 0.25, -0.25}
	s.processInput(in, 2)

	l, ok := s.audioRing.Pop()
	require.True(t, ok)
	assert.Equal(t, float32(0.5), l)
	r, ok := s.audioRing.Pop()
	require.True(t, ok)
	assert.Equal(t, float32(-0.5), r)
}

func TestProcessInputPushesMeterFrameEverySecondCallback(t *testing.T) {
	s := newTestServer(t)
	in := []float32{1, -1}

	s.processInput(in, 1)
	_, ok := s.meterRing.Pop()
	assert.False(t, ok, "no meter frame on the first callback")

	s.processInput(in, 1)
	frame, ok := s.meterRing.Pop()
	require.True(t, ok, "meter frame expected on the second callback")
	assert.InDelta(t, 1.0, frame.PeakL, 1e-6)
}

func TestProcessOutputFillsSilenceOnUnderflow(t *testing.T) {
	s := newTestServer(t)
	out := make([]float32, 4)
	s.processOutput(out, 2)

	for _, v := range out {
		assert.Equal(t, float32(0), v)
	}
}

func TestProcessOutputMixesToMonoWhenDeviceHasOneChannel(t *testing.T) {
	s := newTestServer(t)
	s.audioRing.Push(1.0)
	s.audioRing.Push(0.5)

	out := make([]float32, 1)
	s.processOutput(out, 1)
	assert.InDelta(t, 0.75, out[0], 1e-6)
}

func TestSwapProcessorReplacesActiveEngine(t *testing.T) {
	s := newTestServer(t)
	beforePtr := s.active.Load()

	s.SwapProcessor(passthrough{})
	afterPtr := s.active.Load()

	assert.NotSame(t, beforePtr, afterPtr)
	assert.Equal(t, passthrough{}, afterPtr.processor)
}

func TestStartErrorUnwrapsUnderlyingError(t *testing.T) {
	inner := assert.AnError
	err := &StartError{Kind: NoInputDevice, Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "no_input_device")
}
