// Package api composes the domain packages (pkg/dsp/parambridge,
// pkg/devserver, pkg/reload) into the wsrpc.RequestHandler the
// WebSocket hub dispatches to. It is kept separate from pkg/wsrpc so
// that package stays a pure protocol/transport layer with no
// knowledge of parameters or audio.
package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/wavecraft-dev/wavecraft/pkg/dsp"
	"github.com/wavecraft-dev/wavecraft/pkg/dsp/parambridge"
	"github.com/wavecraft-dev/wavecraft/pkg/devserver"
	"github.com/wavecraft-dev/wavecraft/pkg/wsrpc"
)

// Router holds everything a request handler needs to answer the core
// WebSocket subset: the live parameter bridge/specs, the meter
// consumer, and the hub itself (for registerAudio role promotion and
// parameterChanged fanout).
type Router struct {
	Bridge      *parambridge.Holder
	Specs       *parambridge.SpecsHolder
	Meters      *devserver.MeterConsumer
	Hub         *wsrpc.Hub
	WindowSizer func(width, height int) bool
}

// Handle implements wsrpc.RequestHandler.
func (rt *Router) Handle(client *wsrpc.Client, req wsrpc.Request) []byte {
	var id json.RawMessage
	if req.ID != nil {
		id = *req.ID
	}

	switch req.Method {
	case wsrpc.MethodGetAllParameters:
		return rt.reply(id, rt.getAllParameters())

	case wsrpc.MethodGetParameter:
		return rt.handleGetParameter(id, req.Params)

	case wsrpc.MethodSetParameter:
		return rt.handleSetParameter(id, req.Params)

	case wsrpc.MethodGetMeterFrame:
		return rt.reply(id, rt.getMeterFrame())

	case wsrpc.MethodRequestResize:
		return rt.handleRequestResize(id, req.Params)

	case wsrpc.MethodPing:
		return rt.reply(id, struct {
			Pong bool `json:"pong"`
		}{Pong: true})

	case wsrpc.MethodRegisterAudio:
		return rt.handleRegisterAudio(client, id, req.Params)

	default:
		return rt.errorReply(id, wsrpc.ErrMethodNotFound, "unknown method: "+req.Method)
	}
}

func (rt *Router) reply(id json.RawMessage, result any) []byte {
	if id == nil {
		return nil
	}
	resp := wsrpc.NewResultResponse(id, result)
	data, _ := json.Marshal(resp)
	return data
}

func (rt *Router) errorReply(id json.RawMessage, code int, message string) []byte {
	if id == nil {
		return nil
	}
	resp := wsrpc.NewErrorResponse(id, code, message)
	data, _ := json.Marshal(resp)
	return data
}

func (rt *Router) getAllParameters() any {
	specs := rt.Specs.Load()
	bridge := rt.Bridge.Load()

	out := make([]wsrpc.ParameterInfo, 0, len(specs))
	for _, s := range specs {
		value := float32(s.Default)
		if bridge != nil {
			if v, ok := bridge.Read(s.ID); ok {
				value = v
			}
		}
		out = append(out, specToInfo(s, value))
	}
	return struct {
		Parameters []wsrpc.ParameterInfo `json:"parameters"`
	}{Parameters: out}
}

func specToInfo(s dsp.ParamSpec, value float32) wsrpc.ParameterInfo {
	info := wsrpc.ParameterInfo{
		ID:      s.ID,
		Name:    s.Name,
		Type:    s.Kind.String(),
		Value:   value,
		Default: float32(s.Default),
		Min:     float32(s.Range.Min),
		Max:     float32(s.Range.Max),
	}
	if s.Unit != "" {
		u := s.Unit
		info.Unit = &u
	}
	if s.Group != "" {
		g := s.Group
		info.Group = &g
	}
	if s.Kind == dsp.KindEnum {
		info.Variants = s.Variants
	}
	return info
}

func (rt *Router) handleGetParameter(id json.RawMessage, params json.RawMessage) []byte {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return rt.errorReply(id, wsrpc.ErrInvalidParams, "invalid params")
	}

	bridge := rt.Bridge.Load()
	value, ok := bridge.Read(req.ID)
	if !ok {
		return rt.errorReply(id, wsrpc.ErrParameterNotFound, "parameter not found: "+req.ID)
	}
	return rt.reply(id, struct {
		ID    string  `json:"id"`
		Value float32 `json:"value"`
	}{ID: req.ID, Value: value})
}

func (rt *Router) handleSetParameter(id json.RawMessage, params json.RawMessage) []byte {
	var req struct {
		ID    string  `json:"id"`
		Value float32 `json:"value"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return rt.errorReply(id, wsrpc.ErrInvalidParams, "invalid params")
	}

	spec, ok := findSpec(rt.Specs.Load(), req.ID)
	if !ok {
		return rt.errorReply(id, wsrpc.ErrParameterNotFound, "parameter not found: "+req.ID)
	}
	if float64(req.Value) < spec.Range.Min || float64(req.Value) > spec.Range.Max {
		return rt.errorReply(id, wsrpc.ErrParameterOutOfRange, "value outside [min,max]")
	}

	rt.Bridge.Load().Write(req.ID, req.Value)

	if rt.Hub != nil {
		n := wsrpc.NewNotification(wsrpc.MethodParameterChanged, wsrpc.ParameterChangedParams{ID: req.ID, Value: req.Value})
		if data, err := json.Marshal(n); err == nil {
			rt.Hub.BroadcastToUI(data)
		}
	}

	return rt.reply(id, struct{}{})
}

func findSpec(specs []dsp.ParamSpec, id string) (dsp.ParamSpec, bool) {
	for _, s := range specs {
		if s.ID == id {
			return s, true
		}
	}
	return dsp.ParamSpec{}, false
}

func (rt *Router) getMeterFrame() any {
	if rt.Meters == nil {
		return struct {
			Frame *wsrpc.MeterFrameWire `json:"frame"`
		}{}
	}
	frame, ok := rt.Meters.DrainLatest()
	if !ok {
		return struct {
			Frame *wsrpc.MeterFrameWire `json:"frame"`
		}{}
	}
	wire := &wsrpc.MeterFrameWire{
		TimestampUs: frame.Timestamp,
		LeftPeak:    frame.PeakL,
		LeftRMS:     frame.RMSL,
		RightPeak:   frame.PeakR,
		RightRMS:    frame.RMSR,
	}
	return struct {
		Frame *wsrpc.MeterFrameWire `json:"frame"`
	}{Frame: wire}
}

func (rt *Router) handleRequestResize(id json.RawMessage, params json.RawMessage) []byte {
	var req struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return rt.errorReply(id, wsrpc.ErrInvalidParams, "invalid params")
	}
	accepted := true
	if rt.WindowSizer != nil {
		accepted = rt.WindowSizer(req.Width, req.Height)
	}
	return rt.reply(id, struct {
		Accepted bool `json:"accepted"`
	}{Accepted: accepted})
}

func (rt *Router) handleRegisterAudio(client *wsrpc.Client, id json.RawMessage, params json.RawMessage) []byte {
	var req struct {
		ClientID string `json:"client_id"`
	}
	_ = json.Unmarshal(params, &req)
	if req.ClientID == "" {
		req.ClientID = client.ID.String()
	}
	if _, err := uuid.Parse(req.ClientID); err != nil {
		return rt.errorReply(id, wsrpc.ErrInvalidParams, "client_id must be a uuid")
	}

	if rt.Hub != nil {
		rt.Hub.SetRole(client, wsrpc.RoleAudioForward)
	}
	return rt.reply(id, struct {
		Status string `json:"status"`
	}{Status: "registered"})
}

// BroadcastMeterFrame sends a meterUpdate notification to every
// audio-forwarding client and every UI client. Called from
// cmd/wavecraft-dev's meter drainer.
func BroadcastMeterFrame(hub *wsrpc.Hub, frame devserver.MeterFrame, now time.Time) {
	payload := wsrpc.MeterFrameWire{
		TimestampUs: frame.Timestamp,
		LeftPeak:    frame.PeakL,
		LeftRMS:     frame.RMSL,
		RightPeak:   frame.PeakR,
		RightRMS:    frame.RMSR,
	}
	n := wsrpc.NewNotification(wsrpc.MethodMeterUpdate, payload)
	data, err := json.Marshal(n)
	if err != nil {
		return
	}
	hub.BroadcastAudioForward(data)
	hub.BroadcastToUI(data)
}
