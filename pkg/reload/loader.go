package reload

import (
	"context"
	"fmt"
	"time"

	"github.com/wavecraft-dev/wavecraft/pkg/dsp"
)

// loaderTimeout is the hard ceiling on one parameter-discovery cycle.
const loaderTimeout = 30 * time.Second

// ParamLoader is the injected "load parameters from the freshly-built
// artifact" operation. It is treated as an external collaborator: the
// pipeline only specifies how it is raced against timeout and
// cancellation, not how it inspects the build output.
type ParamLoader func(ctx context.Context) ([]dsp.ParamSpec, error)

// LoadParams runs loader with a 30-second ceiling, racing it against
// cancel; a closed cancel is reported as BuildCancelled. Pipeline
// passes its shutdown channel here, so a newer file event does not
// cancel a load already in flight. A panic inside loader is recovered
// and reported as LoaderPanic rather than propagated.
func LoadParams(parent context.Context, loader ParamLoader, cancel <-chan struct{}) ([]dsp.ParamSpec, *Failure) {
	ctx, stop := context.WithTimeout(parent, loaderTimeout)
	defer stop()

	type result struct {
		specs []dsp.ParamSpec
		err   error
		panic any
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{panic: r}
			}
		}()
		specs, err := loader(ctx)
		done <- result{specs: specs, err: err}
	}()

	select {
	case <-cancel:
		return nil, &Failure{Kind: BuildCancelled, Message: "cancelled before the loader finished"}

	case <-ctx.Done():
		return nil, &Failure{Kind: LoaderTimeout}

	case r := <-done:
		if r.panic != nil {
			return nil, &Failure{Kind: LoaderPanic, Message: fmt.Sprint(r.panic)}
		}
		if r.err != nil {
			// The spec's taxonomy only names LoaderTimeout and
			// LoaderPanic explicitly; a plain (non-panic, non-timeout)
			// loader error is folded into LoaderPanic since both mean
			// "the loader failed to produce usable specs" (see
			// DESIGN.md).
			return nil, &Failure{Kind: LoaderPanic, Message: r.err.Error()}
		}
		return r.specs, nil
	}
}
