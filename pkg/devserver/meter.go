package devserver

import (
	"github.com/wavecraft-dev/wavecraft/pkg/dsp"
	"github.com/wavecraft-dev/wavecraft/pkg/ringbuf"
)

// MeterFrame is one peak/RMS snapshot pushed to the meter ring by the
// input callback, at most once every second callback.
type MeterFrame struct {
	PeakL, PeakR float32
	RMSL, RMSR   float32
	Timestamp    uint64
}

// MeterConsumer is the non-real-time read side of the meter ring. The
// meter drainer task calls DrainLatest on a ~16ms tick and discards
// everything but the newest frame.
type MeterConsumer struct {
	ring *ringbuf.Ring[MeterFrame]
}

// DrainLatest returns the most recently produced meter frame, if any
// were pushed since the last drain.
func (c *MeterConsumer) DrainLatest() (MeterFrame, bool) {
	return c.ring.DrainLatest()
}

// ScopeConsumer is the non-real-time read side of the oscilloscope
// ring, used by the UI drainer.
type ScopeConsumer struct {
	ring *ringbuf.Ring[dsp.ScopeFrame]
}

// Next pops the oldest buffered oscilloscope frame, if any.
func (c *ScopeConsumer) Next() (dsp.ScopeFrame, bool) {
	return c.ring.Pop()
}
