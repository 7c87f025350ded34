// Package ffi defines the C-ABI vtable contract used to drive a
// processor loaded from a freshly-built plugin shared library without
// sharing a compiler ABI between the long-lived dev-server host
// process and the plugin build.
//
// Grounded on pkg/plugin/wrapper.go's C-linkage export surface
// (//export GoCreateInstance, GoComponentGetState, ...) and its
// recoverPanic containment discipline, but split across two
// sub-concerns the teacher keeps fused: the plugin side still needs
// cgo to produce C-linkage symbols (pkg/ffi/pluginabi), while the host
// side uses github.com/ebitengine/purego so the long-lived dev-server
// binary never itself needs a C compiler — only the plugin build step
// does.
package ffi

// Version is the compile-time vtable layout version. A loaded
// library's reported version must equal this constant; any mismatch
// is fatal at load time (see Load).
const Version uint32 = 1

// VTable is the by-value C-ABI structure a plugin shared library
// returns from its wavecraft_dev_create_processor entry point: a
// version tag followed by six function pointers (exposed here as raw
// addresses, invoked via purego.SyscallN on the host side).
//
//	create()                                      -> *mut void
//	process(instance, channels **f32, num_channels, num_samples u32)
//	apply_plain_values(instance, values *const f32, len usize)
//	set_sample_rate(instance, rate f32)
//	reset(instance)
//	drop(instance)
type VTable struct {
	Version uint32
	_       uint32 // pad: align the following pointer-sized fields on 8 bytes

	CreateFn             uintptr
	ProcessFn            uintptr
	ApplyPlainValuesFn   uintptr
	SetSampleRateFn      uintptr
	ResetFn              uintptr
	DropFn               uintptr
}

// maxVTableChannels is the dev-audio path's channel cap. The shim
// refuses to process blocks with more channels than this and returns
// silently; production hosts implement their own vtable with broader
// topology support.
const maxVTableChannels = 2
