package reload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecraft-dev/wavecraft/pkg/dsp"
	"github.com/wavecraft-dev/wavecraft/pkg/dsp/parambridge"
)

func TestSwapPreservesValuesForUnchangedIdentifiers(t *testing.T) {
	layout := parambridge.NewLayout([]string{"cutoff_hz", "resonance_q"})
	bridge := parambridge.NewBridge(layout, []float32{1000, 0.707})
	bridge.Write("cutoff_hz", 5000)
	holder := parambridge.NewHolder(bridge)

	specs := []dsp.ParamSpec{
		{ID: "cutoff_hz", Default: 1000, Range: dsp.Range{Min: 20, Max: 20000}},
		{ID: "resonance_q", Default: 0.707, Range: dsp.Range{Min: 0.1, Max: 10}},
	}

	failure := Swap(holder, nil, specs)
	require.Nil(t, failure)

	v, ok := holder.Load().Read("cutoff_hz")
	require.True(t, ok)
	assert.Equal(t, float32(5000), v, "preserved value for an unchanged identifier")
}

func TestSwapDefaultsNewIdentifiersAndDropsRemoved(t *testing.T) {
	layout := parambridge.NewLayout([]string{"old_param"})
	bridge := parambridge.NewBridge(layout, []float32{42})
	holder := parambridge.NewHolder(bridge)

	specs := []dsp.ParamSpec{
		{ID: "new_param", Default: 7, Range: dsp.Range{Min: 0, Max: 10}},
	}

	failure := Swap(holder, nil, specs)
	require.Nil(t, failure)

	_, ok := holder.Load().Read("old_param")
	assert.False(t, ok, "removed identifier should be absent from the new layout")

	v, ok := holder.Load().Read("new_param")
	require.True(t, ok)
	assert.Equal(t, float32(7), v)
}

func TestSwapRejectsInvalidSpec(t *testing.T) {
	layout := parambridge.NewLayout(nil)
	bridge := parambridge.NewBridge(layout, nil)
	holder := parambridge.NewHolder(bridge)

	specs := []dsp.ParamSpec{
		{ID: "bad", Default: 100, Range: dsp.Range{Min: 0, Max: 10}},
	}

	failure := Swap(holder, nil, specs)
	require.NotNil(t, failure)
	assert.Equal(t, ParameterSwapFailed, failure.Kind)
	assert.Same(t, bridge, holder.Load(), "a rejected swap must leave the old bridge in place")
}
