package ffi

import (
	"encoding/json"
	"fmt"

	"github.com/ebitengine/purego"

	"github.com/wavecraft-dev/wavecraft/pkg/dsp"
)

// paramJSON mirrors the external parameter descriptor JSON shape
// (one element per parameter, current value included).
type paramJSON struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Value    float64  `json:"value"`
	Default  float64  `json:"default"`
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	Unit     *string  `json:"unit"`
	Group    *string  `json:"group"`
	Variants []string `json:"variants"`
}

// discoverySymbols resolves the three wavecraft_get_*_json /
// wavecraft_free_string C symbols once per Library. They're separate
// from the six-entry dev vtable because they're queried before (and
// independently of) creating any processor instance.
type discoverySymbols struct {
	getParamsJSON     func() uintptr
	getProcessorsJSON func() uintptr
	freeString        func(uintptr)
}

func (l *Library) discovery() *discoverySymbols {
	if l.discoverySyms == nil {
		d := &discoverySymbols{}
		purego.RegisterLibFunc(&d.getParamsJSON, l.handle, "wavecraft_get_params_json")
		purego.RegisterLibFunc(&d.getProcessorsJSON, l.handle, "wavecraft_get_processors_json")
		purego.RegisterLibFunc(&d.freeString, l.handle, "wavecraft_free_string")
		l.discoverySyms = d
	}
	return l.discoverySyms
}

// ParamSpecs queries the loaded library for its current parameter
// list and decodes it into the host's dsp.ParamSpec shape. The
// reload.ParamLoader that cmd/wavecraft-dev builds calls it on each
// freshly built plugin.
func (l *Library) ParamSpecs() ([]dsp.ParamSpec, error) {
	d := l.discovery()
	ptr := d.getParamsJSON()
	if ptr == 0 {
		return nil, fmt.Errorf("ffi: %s returned a null parameter list", l.path)
	}
	defer d.freeString(ptr)

	raw := cString(ptr)
	var decoded []paramJSON
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("ffi: decoding parameter list: %w", err)
	}

	specs := make([]dsp.ParamSpec, len(decoded))
	for i, p := range decoded {
		specs[i] = dsp.ParamSpec{
			ID:      p.ID,
			Name:    p.Name,
			Kind:    parseKind(p.Type),
			Range:   dsp.Range{Min: p.Min, Max: p.Max},
			Default: p.Default,
		}
		if p.Unit != nil {
			specs[i].Unit = *p.Unit
		}
		if p.Group != nil {
			specs[i].Group = *p.Group
		}
		if p.Variants != nil {
			specs[i].Variants = p.Variants
		}
	}
	return specs, nil
}

// ProcessorNames queries the loaded library for the processor
// identifiers present in its signal chain, for diagnostics.
func (l *Library) ProcessorNames() ([]string, error) {
	d := l.discovery()
	ptr := d.getProcessorsJSON()
	if ptr == 0 {
		return nil, fmt.Errorf("ffi: %s returned a null processor list", l.path)
	}
	defer d.freeString(ptr)

	var names []string
	if err := json.Unmarshal(cString(ptr), &names); err != nil {
		return nil, fmt.Errorf("ffi: decoding processor list: %w", err)
	}
	return names, nil
}

func parseKind(t string) dsp.Kind {
	switch t {
	case "int":
		return dsp.KindInt
	case "bool":
		return dsp.KindBool
	case "enum":
		return dsp.KindEnum
	default:
		return dsp.KindFloat
	}
}
