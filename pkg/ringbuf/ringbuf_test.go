package ringbuf

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoundsCapacityToPowerOfTwo(t *testing.T) {
	r := New[int](5)
	assert.Equal(t, 8, r.Cap())

	r2 := New[int](8)
	assert.Equal(t, 8, r2.Cap())
}

func TestPushPopFIFOOrder(t *testing.T) {
	r := New[int](4)
	require.True(t, r.Push(1))
	require.True(t, r.Push(2))
	require.True(t, r.Push(3))

	v, ok := r.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = r.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestPushFailsWhenFull(t *testing.T) {
	r := New[int](2)
	require.True(t, r.Push(1))
	require.True(t, r.Push(2))
	assert.False(t, r.Push(3))
}

func TestPopOnEmptyReturnsFalse(t *testing.T) {
	r := New[int](2)
	_, ok := r.Pop()
	assert.False(t, ok)
}

func TestDrainLatestReturnsMostRecent(t *testing.T) {
	r := New[int](8)
	r.Push(1)
	r.Push(2)
	r.Push(3)

	v, ok := r.DrainLatest()
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = r.DrainLatest()
	assert.False(t, ok)
}

func TestConcurrentSPSCProducerConsumer(t *testing.T) {
	r := New[int](64)
	const n = 10000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		i := 0
		for i < n {
			if r.Push(i) {
				i++
			}
		}
	}()

	received := make([]int, 0, n)
	go func() {
		defer wg.Done()
		for len(received) < n {
			if v, ok := r.Pop(); ok {
				received = append(received, v)
			}
		}
	}()

	wg.Wait()
	require.Len(t, received, n)
	for i, v := range received {
		assert.Equal(t, i, v)
	}
}
