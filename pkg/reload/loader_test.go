package reload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecraft-dev/wavecraft/pkg/dsp"
)

func TestLoadParamsReturnsSpecsOnSuccess(t *testing.T) {
	want := []dsp.ParamSpec{{ID: "gain", Default: 1}}
	loader := func(ctx context.Context) ([]dsp.ParamSpec, error) {
		return want, nil
	}

	specs, failure := LoadParams(context.Background(), loader, make(chan struct{}))
	require.Nil(t, failure)
	assert.Equal(t, want, specs)
}

func TestLoadParamsRecoversPanic(t *testing.T) {
	loader := func(ctx context.Context) ([]dsp.ParamSpec, error) {
		panic("boom")
	}

	specs, failure := LoadParams(context.Background(), loader, make(chan struct{}))
	require.Nil(t, specs)
	require.NotNil(t, failure)
	assert.Equal(t, LoaderPanic, failure.Kind)
	assert.Contains(t, failure.Message, "boom")
}

func TestLoadParamsReportsPlainErrorAsLoaderPanic(t *testing.T) {
	loader := func(ctx context.Context) ([]dsp.ParamSpec, error) {
		return nil, errors.New("discovery failed")
	}

	_, failure := LoadParams(context.Background(), loader, make(chan struct{}))
	require.NotNil(t, failure)
	assert.Equal(t, LoaderPanic, failure.Kind)
}

func TestLoadParamsCancelledBySupersedingEvent(t *testing.T) {
	cancel := make(chan struct{})
	started := make(chan struct{})
	loader := func(ctx context.Context) ([]dsp.ParamSpec, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	go func() {
		<-started
		close(cancel)
	}()

	_, failure := LoadParams(context.Background(), loader, cancel)
	require.NotNil(t, failure)
	assert.Equal(t, BuildCancelled, failure.Kind)
}

func TestLoadParamsTimesOutPastCeiling(t *testing.T) {
	loader := func(ctx context.Context) ([]dsp.ParamSpec, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	parent, stop := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer stop()

	_, failure := LoadParams(parent, loader, make(chan struct{}))
	require.NotNil(t, failure)
	assert.Equal(t, LoaderTimeout, failure.Kind)
}
