package reload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildGuardOnlyOneBuildAtATime(t *testing.T) {
	var g BuildGuard
	assert.True(t, g.TryStart())
	assert.False(t, g.TryStart(), "a second TryStart while building must fail")
}

func TestBuildGuardCoalescesBurstIntoOnePending(t *testing.T) {
	var g BuildGuard
	assert.True(t, g.TryStart())
	assert.False(t, g.TryStart())
	assert.False(t, g.TryStart())
	assert.False(t, g.TryStart())

	wasPending := g.Complete()
	assert.True(t, wasPending, "three coalesced events should leave exactly one pending build")

	// The pending bit was consumed by Complete; after the looped build
	// starts again, its Complete reports nothing pending.
	assert.True(t, g.TryStart())
	assert.False(t, g.Complete())
}

func TestBuildGuardCompleteWithNoPending(t *testing.T) {
	var g BuildGuard
	g.TryStart()
	assert.False(t, g.Complete())
}
