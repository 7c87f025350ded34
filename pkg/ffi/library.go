package ffi

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/purego"
)

// ErrVersionMismatch is returned by Load when a plugin library's
// reported vtable version does not equal Version.
var ErrVersionMismatch = errors.New("ffi: plugin vtable version mismatch")

// ErrProcessorCreateFailed is returned by NewInstance when the
// plugin's create() entry point returns null.
var ErrProcessorCreateFailed = errors.New("ffi: processor create returned null")

// ErrLibraryBusy is returned by Close when live instances still
// reference the library; the caller must close every Instance created
// from this Library before closing the Library itself (see
// Library.Close).
var ErrLibraryBusy = errors.New("ffi: library has live instances")

// Library is a loaded plugin shared library. It is safe to create
// multiple Instances from one Library; the Library must strictly
// outlive every Instance created from it.
type Library struct {
	path            string
	handle          uintptr
	createProcessor func() VTable
	liveInstances   atomic.Int64

	discoverySyms *discoverySymbols
}

// Load dlopens path and resolves its wavecraft_dev_create_processor
// entry point. It does not itself create a processor instance.
func Load(path string) (*Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("ffi: dlopen %s: %w", path, err)
	}

	lib := &Library{path: path, handle: handle}
	purego.RegisterLibFunc(&lib.createProcessor, handle, "wavecraft_dev_create_processor")

	vt := lib.createProcessor()
	if vt.Version != Version {
		purego.Dlclose(handle)
		return nil, fmt.Errorf("%w: library reports %d, host expects %d", ErrVersionMismatch, vt.Version, Version)
	}
	return lib, nil
}

// Path returns the path this Library was loaded from.
func (l *Library) Path() string { return l.path }

// NewInstance creates a new processor instance inside the loaded
// library. The returned Instance must be closed before the Library is
// closed.
func (l *Library) NewInstance() (*Instance, error) {
	vt := l.createProcessor()
	ptr, _, _ := purego.SyscallN(vt.CreateFn)
	if ptr == 0 {
		return nil, ErrProcessorCreateFailed
	}
	l.liveInstances.Add(1)
	return &Instance{lib: l, vt: vt, ptr: ptr}, nil
}

// Close unloads the library. It refuses to do so while any Instance
// created from it is still open, enforcing the library-outlives-every-
// instance lifetime rule: dropping them in the wrong order is
// undefined behavior inside the loaded code.
func (l *Library) Close() error {
	if l.liveInstances.Load() > 0 {
		return ErrLibraryBusy
	}
	return purego.Dlclose(l.handle)
}

// cString copies a NUL-terminated C string at ptr into a Go byte
// slice. The caller is responsible for freeing the original pointer
// via the library's wavecraft_free_string.
func cString(ptr uintptr) []byte {
	if ptr == 0 {
		return nil
	}
	var out []byte
	for i := uintptr(0); ; i++ {
		b := *(*byte)(unsafe.Pointer(ptr + i))
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return out
}

// Instance is one processor created inside a Library. Every call here
// invokes a raw function pointer via purego.SyscallN rather than a
// named symbol, matching the vtable's function-pointer-record shape.
type Instance struct {
	lib *Library
	vt  VTable
	ptr uintptr

	channelPtrs [maxVTableChannels]uintptr
}

// Process runs one block through the loaded processor in place.
// Blocks with more than maxVTableChannels channels are silently
// ignored, matching the dev-audio path's stereo-only cap.
func (inst *Instance) Process(channels [][]float32) {
	n := len(channels)
	if n == 0 || n > maxVTableChannels {
		return
	}
	numSamples := len(channels[0])
	for i, ch := range channels {
		if len(ch) == 0 {
			inst.channelPtrs[i] = 0
			continue
		}
		inst.channelPtrs[i] = uintptr(unsafe.Pointer(&ch[0]))
	}
	channelsPtr := uintptr(unsafe.Pointer(&inst.channelPtrs[0]))
	purego.SyscallN(inst.vt.ProcessFn, inst.ptr, channelsPtr, uintptr(n), uintptr(numSamples))
}

// ApplyPlainValues forwards a plain-value parameter vector to the
// loaded processor.
func (inst *Instance) ApplyPlainValues(values []float32) {
	if len(values) == 0 {
		purego.SyscallN(inst.vt.ApplyPlainValuesFn, inst.ptr, 0, 0)
		return
	}
	ptr := uintptr(unsafe.Pointer(&values[0]))
	purego.SyscallN(inst.vt.ApplyPlainValuesFn, inst.ptr, ptr, uintptr(len(values)))
}

// SetSampleRate forwards a sample-rate change to the loaded processor.
func (inst *Instance) SetSampleRate(rate float32) {
	bits := uintptr(*(*uint32)(unsafe.Pointer(&rate)))
	purego.SyscallN(inst.vt.SetSampleRateFn, inst.ptr, bits)
}

// Reset restores the loaded processor's internal state.
func (inst *Instance) Reset() {
	purego.SyscallN(inst.vt.ResetFn, inst.ptr)
}

// Close drops the processor inside the loaded library and releases
// this Instance's hold on the Library. Must be called before the
// owning Library is closed.
func (inst *Instance) Close() {
	purego.SyscallN(inst.vt.DropFn, inst.ptr)
	inst.lib.liveInstances.Add(-1)
}
