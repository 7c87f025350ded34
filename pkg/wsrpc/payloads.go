package wsrpc

// ParameterInfo is the wire shape of one parameter descriptor paired
// with its current value, per the external-interface parameter JSON
// shape.
type ParameterInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Value    float32  `json:"value"`
	Default  float32  `json:"default"`
	Min      float32  `json:"min"`
	Max      float32  `json:"max"`
	Unit     *string  `json:"unit"`
	Group    *string  `json:"group"`
	Variants []string `json:"variants,omitempty"`
}

// MeterFrameWire is the wire shape of a meter snapshot.
type MeterFrameWire struct {
	TimestampUs uint64  `json:"timestamp_us"`
	LeftPeak    float32 `json:"left_peak"`
	LeftRMS     float32 `json:"left_rms"`
	RightPeak   float32 `json:"right_peak"`
	RightRMS    float32 `json:"right_rms"`
}

// AudioPhase enumerates the dev audio runtime's lifecycle phases.
type AudioPhase string

const (
	AudioPhaseStopped AudioPhase = "Stopped"
	AudioPhaseRunning AudioPhase = "Running"
	AudioPhaseFailed  AudioPhase = "Failed"
)

// AudioStatusChangedParams is the payload of audioStatusChanged.
type AudioStatusChangedParams struct {
	Phase      AudioPhase `json:"phase"`
	Diagnostic string     `json:"diagnostic,omitempty"`
	SampleRate float64    `json:"sample_rate,omitempty"`
	BufferSize int        `json:"buffer_size,omitempty"`
}

type getAllParametersResult struct {
	Parameters []ParameterInfo `json:"parameters"`
}

type getParameterResult struct {
	ID    string  `json:"id"`
	Value float32 `json:"value"`
}

type setParameterParams struct {
	ID    string  `json:"id"`
	Value float32 `json:"value"`
}

type setParameterResult struct{}

type getMeterFrameResult struct {
	Frame *MeterFrameWire `json:"frame"`
}

type requestResizeParams struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type requestResizeResult struct {
	Accepted bool `json:"accepted"`
}

type pingResult struct {
	Pong bool `json:"pong"`
}

type registerAudioParams struct {
	ClientID string `json:"client_id"`
}

type registerAudioResult struct {
	Status string `json:"status"`
}

// ParameterChangedParams is the payload of parameterChanged.
type ParameterChangedParams struct {
	ID    string  `json:"id"`
	Value float32 `json:"value"`
}
