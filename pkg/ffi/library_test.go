package ffi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// These tests exercise only the pure-Go bookkeeping around a Library
// (version checking inputs, instance refcounting, the drop-order
// guard); they never dlopen a real shared library, since that would
// require a compiled plugin artifact.

func TestCloseRefusesWhileInstancesAreLive(t *testing.T) {
	lib := &Library{path: "fake.so"}
	lib.liveInstances.Add(1)

	err := lib.Close()
	assert.ErrorIs(t, err, ErrLibraryBusy)
}

func TestVersionMismatchIsDetectable(t *testing.T) {
	reported := uint32(2)
	assert.NotEqual(t, Version, reported)
}

func TestVTableLayoutHasSixFunctionPointersAndVersionTag(t *testing.T) {
	vt := VTable{}
	assert.Equal(t, uint32(0), vt.Version)
	// six function-pointer fields: create, process, apply_plain_values,
	// set_sample_rate, reset, drop
	assert.Equal(t, uintptr(0), vt.CreateFn)
	assert.Equal(t, uintptr(0), vt.ProcessFn)
	assert.Equal(t, uintptr(0), vt.ApplyPlainValuesFn)
	assert.Equal(t, uintptr(0), vt.SetSampleRateFn)
	assert.Equal(t, uintptr(0), vt.ResetFn)
	assert.Equal(t, uintptr(0), vt.DropFn)
}
