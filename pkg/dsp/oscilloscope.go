package dsp

// framePoints is the fixed number of points per channel in every
// emitted oscilloscope frame.
const framePoints = 1024

// historyFrames is the number of framePoints-sized segments kept per
// channel so a trigger search always has a full contiguous window to
// extract without wrapping. Three frames are required: a low-frequency
// signal's period can exceed one 1024-sample frame, so a crossing in
// the previous frame must remain searchable (see DESIGN.md).
const historyFrames = 3
const historyLen = historyFrames * framePoints

// TriggerMode identifies how the oscilloscope tap aligns its window.
type TriggerMode int

const (
	// TriggerRisingZero aligns the window to the first rising
	// zero-crossing in the legal search range.
	TriggerRisingZero TriggerMode = iota
)

// ScopeFrame is one emitted oscilloscope snapshot: exactly 1024 points
// per channel, stereo.
type ScopeFrame struct {
	PointsL    [framePoints]float32
	PointsR    [framePoints]float32
	SampleRate float64
	Timestamp  uint64
	NoSignal   bool
	Trigger    TriggerMode
}

// silenceThreshold is the peak level below which a block is considered
// silent (no_signal = true).
const silenceThreshold = 1e-4

// Oscilloscope is an observation-only tap: it never modifies the
// samples passing through it. Each process call downsamples (or
// upsamples) the incoming block to exactly 1024 points per channel,
// appends that to a rolling history, and selects a trigger-aligned
// 1024-sample window.
//
// Grounded on pkg/dsp/analysis's circular-buffer meters (writePos,
// modulo advance), generalized here from a scalar running statistic to
// a fixed-size shift-and-append sample history.
type Oscilloscope struct {
	historyL [historyLen]float32
	historyR [historyLen]float32
	filled   int // number of valid history samples, saturating at historyLen

	frameCounter uint64
	lastFrame    ScopeFrame
	hasFrame     bool

	emit func(ScopeFrame)
}

// NewOscilloscope creates a tap. emit is called with each produced
// frame; the caller is responsible for any further queuing (e.g. a
// push to the oscilloscope SPSC ring) and must not block.
func NewOscilloscope(emit func(ScopeFrame)) *Oscilloscope {
	return &Oscilloscope{emit: emit}
}

// SetSampleRate is a no-op: the tap holds no rate-derived
// coefficients, and emitted frames take their rate from the Transport
// passed to Process.
func (o *Oscilloscope) SetSampleRate(float64) {}

// Reset clears history and frame state.
func (o *Oscilloscope) Reset() {
	for i := range o.historyL {
		o.historyL[i] = 0
		o.historyR[i] = 0
	}
	o.filled = 0
	o.frameCounter = 0
	o.hasFrame = false
}

// NewParams returns an empty Params; the tap has no parameters.
func (o *Oscilloscope) NewParams() Params { return emptyParams{} }

// Process downsamples/upsamples the block, appends to history, selects
// a trigger window, and emits a frame. The input buffer is never
// modified (passthrough_invariance).
func (o *Oscilloscope) Process(channels [][]float32, transport Transport, _ Params) {
	n := blockLen(channels)
	if n == 0 {
		return
	}
	var left, right []float32
	left = channels[0]
	if len(channels) > 1 {
		right = channels[1]
	} else {
		right = channels[0]
	}

	o.appendResampled(&o.historyL, left, n)
	o.appendResampled(&o.historyR, right, n)
	if o.filled < historyLen {
		o.filled += framePoints
		if o.filled > historyLen {
			o.filled = historyLen
		}
	}

	start := o.selectTriggerStart()
	var frame ScopeFrame
	copy(frame.PointsL[:], o.historyL[start:start+framePoints])
	copy(frame.PointsR[:], o.historyR[start:start+framePoints])
	frame.SampleRate = transport.SampleRate
	frame.Timestamp = o.frameCounter
	frame.Trigger = TriggerRisingZero

	peak := float32(0)
	for _, v := range frame.PointsL {
		a := v
		if a < 0 {
			a = -a
		}
		if a > peak {
			peak = a
		}
	}
	frame.NoSignal = peak < silenceThreshold

	o.frameCounter++
	o.lastFrame = frame
	o.hasFrame = true
	if o.emit != nil {
		o.emit(frame)
	}
}

// appendResampled downsamples (or upsamples via nearest-neighbor) buf
// to framePoints points using src_index = i*block_len/1024, then
// shifts history left by framePoints and writes the new points at the
// tail.
func (o *Oscilloscope) appendResampled(history *[historyLen]float32, buf []float32, n int) {
	copy(history[:historyLen-framePoints], history[framePoints:])
	tail := history[historyLen-framePoints:]
	for i := 0; i < framePoints; i++ {
		srcIndex := i * n / framePoints
		if srcIndex >= n {
			srcIndex = n - 1
		}
		tail[i] = buf[srcIndex]
	}
}

// selectTriggerStart looks for indices k with
// historyL[k-1] <= 0 < historyL[k], restricted to [minStart, maxStart].
// Among several crossings it picks the one nearest the midpoint of the
// legal range, breaking ties toward the larger index. If no crossing
// exists, or the searched history is silent, it falls back to the tail
// start.
func (o *Oscilloscope) selectTriggerStart() int {
	const maxStart = 2 * framePoints
	minStart := historyLen - o.filled + 1
	if minStart < 1 {
		minStart = 1
	}
	if minStart > maxStart {
		minStart = maxStart
	}

	peak := float32(0)
	for i := minStart; i < maxStart+framePoints && i < historyLen; i++ {
		a := o.historyL[i]
		if a < 0 {
			a = -a
		}
		if a > peak {
			peak = a
		}
	}
	if peak < silenceThreshold {
		return maxStart
	}

	midpoint := float64(minStart+maxStart) / 2
	bestK := -1
	bestDist := -1.0
	for k := minStart; k <= maxStart; k++ {
		if o.historyL[k-1] <= 0 && o.historyL[k] > 0 {
			dist := midpoint - float64(k)
			if dist < 0 {
				dist = -dist
			}
			if bestK == -1 || dist < bestDist || (dist == bestDist && k > bestK) {
				bestK = k
				bestDist = dist
			}
		}
	}
	if bestK == -1 {
		return maxStart
	}
	return bestK
}

// emptyParams is the Params implementation for processors (like
// Oscilloscope) that accept no parameters.
type emptyParams struct{}

func (emptyParams) Specs() []ParamSpec        { return nil }
func (emptyParams) PlainValueCount() int      { return 0 }
func (emptyParams) ApplyPlainValues([]float32) {}
