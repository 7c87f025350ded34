// Package devserver implements the full-duplex development audio
// server: it opens the default input and output devices, drives a DSP
// processor chain each callback, and publishes meter and oscilloscope
// snapshots on SPSC rings for non-real-time consumers.
//
// Grounded on rayboyd-audio-engine's Engine (pre-allocated
// deinterleave buffers, runtime.LockOSThread in the callback,
// branchless-style defensive early returns) and rayboyd-phase4-server's
// stream lifecycle (OpenStream/Start, classified errors,
// context-driven shutdown), both built on
// github.com/gordonklaus/portaudio. Ring buffer wiring is this
// package's own (pkg/ringbuf, pkg/dsp/parambridge), since neither
// teacher source handles full-duplex SPSC staging.
package devserver

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/wavecraft-dev/wavecraft/pkg/dsp"
	"github.com/wavecraft-dev/wavecraft/pkg/dsp/parambridge"
	"github.com/wavecraft-dev/wavecraft/pkg/ringbuf"
)

// Config controls how the audio server opens its devices and sizes
// its buffers.
type Config struct {
	// BufferSize is the requested frames-per-buffer; PortAudio may
	// adjust it to a device-preferred value.
	BufferSize int
}

// DefaultConfig returns the conventional dev-server buffer size.
func DefaultConfig() Config {
	return Config{BufferSize: 512}
}

const maxServerChannels = 2

// activeProcessor bundles a processor with the Params instance and
// plain-value scratch buffer sized for it. The audio thread swaps
// these in one atomic load rather than three, so it never observes a
// processor paired with another engine's params mid-callback.
type activeProcessor struct {
	processor   dsp.ProcessorWithParams
	params      dsp.Params
	plainValues []float32
}

// Server owns a full-duplex PortAudio stream and the SPSC rings that
// connect its callbacks to the rest of the dev-runtime core.
type Server struct {
	cfg        Config
	sampleRate float64

	active atomic.Pointer[activeProcessor]
	bridge *parambridge.Holder
	scope  *dsp.Oscilloscope

	stream *portaudio.Stream

	left, right []float32
	channelView [maxServerChannels][]float32

	audioRing *ringbuf.Ring[float32]
	meterRing *ringbuf.Ring[MeterFrame]
	scopeRing *ringbuf.Ring[dsp.ScopeFrame]

	frameCounter atomic.Uint64
}

// NewServer constructs a Server. processor is the (possibly
// FFI-backed) DSP chain to drive every callback; bridge is the shared,
// hot-reload-swappable parameter bridge holder.
func NewServer(cfg Config, processor dsp.ProcessorWithParams, bridge *parambridge.Holder) *Server {
	if cfg.BufferSize <= 0 {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg:       cfg,
		bridge:    bridge,
		left:      make([]float32, cfg.BufferSize),
		right:     make([]float32, cfg.BufferSize),
		audioRing: ringbuf.New[float32](cfg.BufferSize * maxServerChannels * 4),
		meterRing: ringbuf.New[MeterFrame](64),
		scopeRing: ringbuf.New[dsp.ScopeFrame](8),
	}
	s.scope = dsp.NewOscilloscope(func(f dsp.ScopeFrame) {
		s.scopeRing.Push(f)
	})
	s.active.Store(newActiveProcessor(processor))
	return s
}

func newActiveProcessor(processor dsp.ProcessorWithParams) *activeProcessor {
	params := processor.NewParams()
	return &activeProcessor{
		processor:   processor,
		params:      params,
		plainValues: make([]float32, params.PlainValueCount()),
	}
}

// SwapProcessor installs a new DSP engine (typically a freshly
// rebuilt, FFI-loaded plugin) as of the next audio callback. The
// caller is responsible for the library-handle drop order: the old
// processor's backing library must not be closed until after this
// call has taken effect on the audio thread, which the caller cannot
// directly observe, so callers should prefer a generation delay or an
// explicit settle period before closing the previous library.
func (s *Server) SwapProcessor(processor dsp.ProcessorWithParams) {
	next := newActiveProcessor(processor)
	if s.sampleRate > 0 {
		processor.SetSampleRate(s.sampleRate)
	}
	s.active.Store(next)
}

// AudioHandle represents ownership of the running streams. Closing it
// stops both streams synchronously; it is the only way to stop the
// server.
type AudioHandle struct {
	srv *Server
}

// Close stops and closes the underlying PortAudio stream.
func (h *AudioHandle) Close() error {
	if h.srv.stream == nil {
		return nil
	}
	var errs []error
	if err := h.srv.stream.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop: %w", err))
	}
	if err := h.srv.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close: %w", err))
	}
	h.srv.stream = nil
	return errors.Join(errs...)
}

// Start opens the default input and output devices, pre-allocates
// every audio-callback buffer, calls processor.SetSampleRate exactly
// once, and starts the full-duplex stream.
func Start(s *Server) (*AudioHandle, *MeterConsumer, *ScopeConsumer, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, nil, nil, &StartError{Kind: Unknown, Err: err}
	}

	inDevice, err := portaudio.DefaultInputDevice()
	if err != nil || inDevice == nil {
		return nil, nil, nil, &StartError{Kind: NoInputDevice, Err: err}
	}
	outDevice, err := portaudio.DefaultOutputDevice()
	if err != nil || outDevice == nil {
		return nil, nil, nil, &StartError{Kind: NoOutputDevice, Err: err}
	}

	sampleRate := inDevice.DefaultSampleRate
	if sampleRate <= 0 {
		sampleRate = outDevice.DefaultSampleRate
	}
	if sampleRate != outDevice.DefaultSampleRate {
		// Input and output devices disagree on preferred rate: process
		// at the input rate and let the output device resample. Warn,
		// don't fail.
		fmt.Printf("devserver: input/output sample rate mismatch (%.0f vs %.0f), processing at input rate\n",
			sampleRate, outDevice.DefaultSampleRate)
	}
	s.sampleRate = sampleRate

	inChannels := inDevice.MaxInputChannels
	if inChannels > maxServerChannels {
		inChannels = maxServerChannels
	}
	if inChannels < 1 {
		inChannels = 1
	}
	outChannels := outDevice.MaxOutputChannels
	if outChannels > maxServerChannels {
		outChannels = maxServerChannels
	}
	if outChannels < 1 {
		outChannels = 1
	}

	s.active.Load().processor.SetSampleRate(sampleRate)
	s.scope.SetSampleRate(sampleRate)

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   inDevice,
			Channels: inChannels,
			Latency:  inDevice.DefaultLowInputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Device:   outDevice,
			Channels: outChannels,
			Latency:  outDevice.DefaultLowOutputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: s.cfg.BufferSize,
	}

	stream, err := portaudio.OpenStream(params, s.makeCallback(inChannels, outChannels))
	if err != nil {
		portaudio.Terminate()
		return nil, nil, nil, &StartError{Kind: StreamStartFailed, Err: err}
	}
	s.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, nil, nil, &StartError{Kind: StreamStartFailed, Err: err}
	}

	handle := &AudioHandle{srv: s}
	meters := &MeterConsumer{ring: s.meterRing}
	scopes := &ScopeConsumer{ring: s.scopeRing}
	return handle, meters, scopes, nil
}

// makeCallback builds the full-duplex RT callback, which PortAudio
// invokes on its own callback thread. The LockOSThread call here pins
// the goroutine that builds the callback (the caller of Start), not
// the callback thread.
func (s *Server) makeCallback(inChannels, outChannels int) func(in, out []float32) {
	runtime.LockOSThread()
	return func(in, out []float32) {
		s.processInput(in, inChannels)
		s.processOutput(out, outChannels)
	}
}

// processInput deinterleaves, reads parameters, runs the processor
// chain and the oscilloscope tap, computes meter values, and stages
// output into the audio ring. It never allocates.
func (s *Server) processInput(in []float32, inChannels int) {
	if len(in) == 0 || inChannels < 1 {
		return
	}
	n := len(in) / inChannels
	if n > len(s.left) {
		n = len(s.left)
	}
	for i := 0; i < n; i++ {
		l := in[i*inChannels]
		r := l
		if inChannels > 1 {
			r = in[i*inChannels+1]
		}
		s.left[i] = l
		s.right[i] = r
	}

	active := s.active.Load()
	bridge := s.bridge.Load()
	bridge.ApplyTo(active.plainValues)
	active.params.ApplyPlainValues(active.plainValues)

	s.channelView[0] = s.left[:n]
	s.channelView[1] = s.right[:n]
	view := s.channelView[:2]

	transport := dsp.Transport{SampleRate: s.sampleRate}
	active.processor.Process(view, transport, active.params)
	s.scope.Process(view, transport, nil)

	var peakL, peakR, sumSqL, sumSqR float32
	for i := 0; i < n; i++ {
		l, r := s.left[i], s.right[i]
		if a := abs32(l); a > peakL {
			peakL = a
		}
		if a := abs32(r); a > peakR {
			peakR = a
		}
		sumSqL += l * l
		sumSqR += r * r
	}

	frame := s.frameCounter.Add(1)
	if frame%2 == 0 && n > 0 {
		s.meterRing.Push(MeterFrame{
			PeakL:     peakL,
			PeakR:     peakR,
			RMSL:      sqrt32(sumSqL / float32(n)),
			RMSR:      sqrt32(sumSqR / float32(n)),
			Timestamp: frame,
		})
	}

	for i := 0; i < n; i++ {
		if !s.audioRing.Push(s.left[i]) {
			return
		}
		if !s.audioRing.Push(s.right[i]) {
			return
		}
	}
}

// processOutput pops staged samples from the audio ring into the
// device's output buffer. Underflow is filled with silence, never a
// repeated sample, to avoid audible artifacts during a transient
// stall.
func (s *Server) processOutput(out []float32, outChannels int) {
	if len(out) == 0 || outChannels < 1 {
		return
	}
	n := len(out) / outChannels
	for i := 0; i < n; i++ {
		l, lok := s.audioRing.Pop()
		r, rok := s.audioRing.Pop()
		if !lok {
			l = 0
		}
		if !rok {
			r = 0
		}
		switch outChannels {
		case 1:
			out[i] = 0.5 * (l + r)
		case 2:
			out[i*2] = l
			out[i*2+1] = r
		default:
			out[i*outChannels] = l
			out[i*outChannels+1] = r
			for ch := 2; ch < outChannels; ch++ {
				out[i*outChannels+ch] = 0
			}
		}
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func sqrt32(v float32) float32 {
	if v <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(v)))
}
