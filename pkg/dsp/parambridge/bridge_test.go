package parambridge

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeReadReflectsLatestWrite(t *testing.T) {
	layout := NewLayout([]string{"cutoff_hz", "resonance_q", "bypass"})
	b := NewBridge(layout, []float32{1000, 0.707, 0})

	v, ok := b.Read("resonance_q")
	require.True(t, ok)
	assert.Equal(t, float32(0.707), v)

	b.Write("resonance_q", 3.5)
	v, ok = b.Read("resonance_q")
	require.True(t, ok)
	assert.Equal(t, float32(3.5), v)
}

func TestBridgeUnknownIDIsNoop(t *testing.T) {
	layout := NewLayout([]string{"cutoff_hz"})
	b := NewBridge(layout, []float32{1000})

	b.Write("nonexistent", 42)
	_, ok := b.Read("nonexistent")
	assert.False(t, ok)
}

func TestBridgeApplyToFillsPrefix(t *testing.T) {
	layout := NewLayout([]string{"a", "b", "c"})
	b := NewBridge(layout, []float32{1, 2, 3})

	dst := make([]float32, 5)
	b.ApplyTo(dst)
	assert.Equal(t, []float32{1, 2, 3, 0, 0}, dst)
}

func TestBridgeConcurrentReadWrite(t *testing.T) {
	layout := NewLayout([]string{"gain"})
	b := NewBridge(layout, []float32{1})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			b.Write("gain", float32(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			b.Read("gain")
		}
	}()
	wg.Wait()
}

func TestHolderSwapReplacesActiveBridge(t *testing.T) {
	layout1 := NewLayout([]string{"a"})
	b1 := NewBridge(layout1, []float32{1})
	h := NewHolder(b1)

	assert.Same(t, b1, h.Load())

	layout2 := NewLayout([]string{"a", "b"})
	b2 := NewBridge(layout2, []float32{1, 2})
	old := h.Swap(b2)

	assert.Same(t, b1, old)
	assert.Same(t, b2, h.Load())
}
