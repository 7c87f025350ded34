package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// polarityFlip is a trivial processor used only to exercise Bypass:
// it negates every sample and has no parameters.
type polarityFlip struct{}

func (polarityFlip) Process(channels [][]float32, _ Transport, _ Params) {
	for _, ch := range channels {
		for i := range ch {
			ch[i] = -ch[i]
		}
	}
}
func (polarityFlip) SetSampleRate(float64) {}
func (polarityFlip) Reset()                {}
func (polarityFlip) NewParams() Params     { return emptyParams{} }

func constBlock(n, channels int, v float32) [][]float32 {
	out := make([][]float32, channels)
	for c := range out {
		buf := make([]float32, n)
		for i := range buf {
			buf[i] = v
		}
		out[c] = buf
	}
	return out
}

func TestBypassTransitionEndsAtDryPassthrough(t *testing.T) {
	b := NewBypass(polarityFlip{})
	b.SetSampleRate(48000)
	params := b.NewParams().(*BypassParams)

	for i := 0; i < 200; i++ {
		buf := constBlock(64, 2, 1.0)
		b.Process(buf, Transport{SampleRate: 48000}, params)
		for _, ch := range buf {
			for _, v := range ch {
				assert.InDelta(t, -1.0, v, 1e-6)
			}
		}
	}

	params.Bypass = 1
	var lastBlock [][]float32
	for i := 0; i < 200; i++ {
		buf := constBlock(64, 2, 1.0)
		b.Process(buf, Transport{SampleRate: 48000}, params)
		lastBlock = buf
	}

	for _, ch := range lastBlock {
		for _, v := range ch {
			assert.InDelta(t, 1.0, v, 1e-6)
		}
	}
}

func TestBypassNoSampleToSampleDiscontinuity(t *testing.T) {
	b := NewBypass(polarityFlip{})
	b.SetSampleRate(48000)
	params := b.NewParams().(*BypassParams)
	maxStep := 1.0 / float64(b.transitionLen)

	var prev float32
	have := false
	params.Bypass = 1
	for i := 0; i < 20; i++ {
		buf := constBlock(32, 1, 1.0)
		b.Process(buf, Transport{SampleRate: 48000}, params)
		for _, v := range buf[0] {
			if have {
				delta := float64(v - prev)
				if delta < 0 {
					delta = -delta
				}
				assert.LessOrEqual(t, delta, maxStep+1e-6)
			}
			prev = v
			have = true
		}
	}
}

func TestBypassResetIdempotence(t *testing.T) {
	b := NewBypass(polarityFlip{})
	b.SetSampleRate(44100)
	params := b.NewParams().(*BypassParams)

	// Leave b part-way through a fade-out so Reset has state to clear.
	params.Bypass = 1
	buf1 := constBlock(16, 1, 0.5)
	b.Process(buf1, Transport{SampleRate: 44100}, params)

	b.Reset()
	params.Bypass = 0
	afterReset := constBlock(16, 1, 0.5)
	b.Process(afterReset, Transport{SampleRate: 44100}, params)

	fresh := NewBypass(polarityFlip{})
	fresh.SetSampleRate(44100)
	freshParams := fresh.NewParams().(*BypassParams)
	buf2 := constBlock(16, 1, 0.5)
	fresh.Process(buf2, Transport{SampleRate: 44100}, freshParams)

	require.Equal(t, len(afterReset[0]), len(buf2[0]))
	for i := range afterReset[0] {
		assert.Equal(t, buf2[0][i], afterReset[0][i])
	}
}

func TestBypassTransitionLengthClamp(t *testing.T) {
	b := &Bypass{child: polarityFlip{}}
	b.SetSampleRate(1000) // round(1000*0.002) = 2, clamped to 16
	assert.Equal(t, 16, b.transitionLen)

	b.SetSampleRate(1_000_000) // round(2000) clamped to 256
	assert.Equal(t, 256, b.transitionLen)

	b.SetSampleRate(48000) // round(96) within range
	assert.Equal(t, 96, b.transitionLen)
}
