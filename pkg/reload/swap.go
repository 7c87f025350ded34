package reload

import (
	"fmt"

	"github.com/wavecraft-dev/wavecraft/pkg/dsp"
	"github.com/wavecraft-dev/wavecraft/pkg/dsp/parambridge"
)

// Swap builds a new parameter bridge from the freshly discovered spec
// list, migrating preserved values for identifiers that still exist
// and defaulting any newly added identifier. Identifiers that were
// removed are simply absent from the new layout; their old values are
// discarded.
//
// A panic anywhere in this process (malformed specs, for instance) is
// recovered and reported as ParameterSwapFailed, leaving holder
// untouched.
func Swap(holder *parambridge.Holder, specsHolder *parambridge.SpecsHolder, specs []dsp.ParamSpec) (failure *Failure) {
	defer func() {
		if r := recover(); r != nil {
			failure = &Failure{Kind: ParameterSwapFailed, Reason: fmt.Sprint(r)}
		}
	}()

	old := holder.Load()
	ids := make([]string, len(specs))
	values := make([]float32, len(specs))
	for i, spec := range specs {
		if err := spec.Validate(); err != nil {
			return &Failure{Kind: ParameterSwapFailed, Reason: err.Error()}
		}
		ids[i] = spec.ID
		values[i] = float32(spec.Default)
		if old != nil {
			if v, ok := old.Read(spec.ID); ok {
				values[i] = v
			}
		}
	}

	layout := parambridge.NewLayout(ids)
	fresh := parambridge.NewBridge(layout, values)
	holder.Swap(fresh)
	if specsHolder != nil {
		specsHolder.Store(append([]dsp.ParamSpec(nil), specs...))
	}
	return nil
}
