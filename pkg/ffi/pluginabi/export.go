// Package pluginabi is imported by a plugin's own main package to
// produce the six C-linkage vtable entry points a freshly-built
// shared library must export. It is the plugin side of the FFI
// boundary described in pkg/ffi; the host never imports this package
// directly (cgo here requires a C compiler, which only the plugin
// build step needs).
//
// Grounded on pkg/plugin/wrapper.go's //export shim style (global
// instance table keyed by an integer handle, protected by a mutex,
// plus its recoverPanic containment), adapted from VST3's
// component-factory surface to the simpler single-processor vtable
// this spec defines.
package pluginabi

// #include <stdlib.h>
//
// typedef void* (*create_fn)(void);
// typedef void (*process_fn)(void*, float**, unsigned int, unsigned int);
// typedef void (*apply_plain_values_fn)(void*, float*, unsigned long);
// typedef void (*set_sample_rate_fn)(void*, float);
// typedef void (*reset_fn)(void*);
// typedef void (*drop_fn)(void*);
//
// typedef struct {
//     unsigned int version;
//     unsigned int _pad;
//     create_fn create;
//     process_fn process;
//     apply_plain_values_fn apply_plain_values;
//     set_sample_rate_fn set_sample_rate;
//     reset_fn reset;
//     drop_fn drop;
// } wavecraft_vtable_t;
//
// extern void* wavecraft_dev_create(void);
// extern void wavecraft_dev_process(void*, float**, unsigned int, unsigned int);
// extern void wavecraft_dev_apply_plain_values(void*, float*, unsigned long);
// extern void wavecraft_dev_set_sample_rate(void*, float);
// extern void wavecraft_dev_reset(void*);
// extern void wavecraft_dev_drop(void*);
//
// static wavecraft_vtable_t wavecraft_build_vtable(unsigned int version) {
//     wavecraft_vtable_t vt;
//     vt.version = version;
//     vt._pad = 0;
//     vt.create = wavecraft_dev_create;
//     vt.process = wavecraft_dev_process;
//     vt.apply_plain_values = wavecraft_dev_apply_plain_values;
//     vt.set_sample_rate = wavecraft_dev_set_sample_rate;
//     vt.reset = wavecraft_dev_reset;
//     vt.drop = wavecraft_dev_drop;
//     return vt;
// }
import "C"

import (
	"log"
	"sync"
	"unsafe"

	"github.com/wavecraft-dev/wavecraft/pkg/dsp"
)

// abiVersion must track ffi.Version. Duplicated here (rather than
// importing pkg/ffi) so this package stays buildable without pulling
// the host's purego dependency into a plugin .so.
const abiVersion = 1

// Factory builds the processor a plugin .so exposes. A plugin's main
// package calls Register during init.
type Factory func() dsp.ProcessorWithParams

var (
	factory Factory

	instancesMu sync.Mutex
	instances   = make(map[uintptr]*liveInstance)
	nextHandle  uintptr = 1
)

type liveInstance struct {
	proc       dsp.ProcessorWithParams
	params     dsp.Params
	sampleRate float32
}

// Register installs the processor factory this plugin exposes. Must
// be called from the plugin's main package before the host loads the
// library (an init function is the conventional place).
func Register(f Factory) {
	factory = f
}

// wavecraft_dev_create_processor returns the by-value vtable a freshly
// loaded library must expose under this C symbol name.
//
//export wavecraft_dev_create_processor
func wavecraft_dev_create_processor() C.wavecraft_vtable_t {
	return C.wavecraft_build_vtable(C.uint(abiVersion))
}

//export wavecraft_dev_create
func wavecraft_dev_create() unsafe.Pointer {
	defer recoverPanic("create")
	if factory == nil {
		return nil
	}
	proc := factory()
	inst := &liveInstance{proc: proc, params: proc.NewParams(), sampleRate: 48000}

	instancesMu.Lock()
	handle := nextHandle
	nextHandle++
	instances[handle] = inst
	instancesMu.Unlock()

	return unsafe.Pointer(handle) //nolint:govet // handle, not a real pointer; matches the vtable's opaque-instance contract
}

//export wavecraft_dev_process
func wavecraft_dev_process(instance unsafe.Pointer, channels **C.float, numChannels, numSamples C.uint) {
	defer recoverPanic("process")
	inst := lookup(instance)
	if inst == nil || numChannels == 0 || numChannels > maxABIChannels {
		return
	}

	n := int(numChannels)
	bufs := make([][]float32, n)
	chPtrs := unsafe.Slice(channels, n)
	for i := 0; i < n; i++ {
		bufs[i] = unsafe.Slice((*float32)(unsafe.Pointer(chPtrs[i])), int(numSamples))
	}

	inst.proc.Process(bufs, dsp.Transport{SampleRate: float64(inst.sampleRate)}, inst.params)
}

//export wavecraft_dev_apply_plain_values
func wavecraft_dev_apply_plain_values(instance unsafe.Pointer, values *C.float, length C.ulong) {
	defer recoverPanic("apply_plain_values")
	inst := lookup(instance)
	if inst == nil {
		return
	}
	if length == 0 {
		inst.params.ApplyPlainValues(nil)
		return
	}
	slice := unsafe.Slice((*float32)(unsafe.Pointer(values)), int(length))
	inst.params.ApplyPlainValues(slice)
}

//export wavecraft_dev_set_sample_rate
func wavecraft_dev_set_sample_rate(instance unsafe.Pointer, rate C.float) {
	defer recoverPanic("set_sample_rate")
	inst := lookup(instance)
	if inst == nil {
		return
	}
	inst.sampleRate = float32(rate)
	inst.proc.SetSampleRate(float64(rate))
}

//export wavecraft_dev_reset
func wavecraft_dev_reset(instance unsafe.Pointer) {
	defer recoverPanic("reset")
	inst := lookup(instance)
	if inst == nil {
		return
	}
	inst.proc.Reset()
}

//export wavecraft_dev_drop
func wavecraft_dev_drop(instance unsafe.Pointer) {
	defer recoverPanic("drop")
	handle := uintptr(instance)
	instancesMu.Lock()
	delete(instances, handle)
	instancesMu.Unlock()
}

const maxABIChannels = 2

func lookup(instance unsafe.Pointer) *liveInstance {
	handle := uintptr(instance)
	instancesMu.Lock()
	defer instancesMu.Unlock()
	return instances[handle]
}

// recoverPanic contains a panic inside user DSP code at the vtable
// boundary. Every exported entry point defers this so a panic inside
// a plugin's Process/Reset/etc. never unwinds into the host.
func recoverPanic(operation string) {
	if r := recover(); r != nil {
		log.Printf("pluginabi: recovered panic in %s: %v", operation, r)
	}
}
