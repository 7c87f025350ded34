// Package wsrpc implements the WebSocket JSON-RPC 2.0 protocol surface
// the dev-runtime core emits and consumes: a per-connection
// reader/writer pump funneled through one writer goroutine, and a
// broadcast fanout that distinguishes UI clients from audio-forwarding
// clients.
//
// Grounded on github.com/gorilla/websocket's per-connection goroutine
// pattern (one reader pump, one writer pump, a buffered send channel
// in between so a slow client can't block the broadcaster) and on
// google/uuid for client identity, the same way
// Conceptual-Machines-magda-api mints a uuid per inbound request.
package wsrpc

import "encoding/json"

// ProtocolVersion is the JSON-RPC version string every message here
// carries.
const ProtocolVersion = "2.0"

// Request is an inbound JSON-RPC 2.0 call. ID is nil for a
// notification (no reply expected).
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      *json.RawMessage `json:"id,omitempty"`
}

// Response is a reply to a Request with a non-nil ID.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Notification is a server-to-client push with no reply expected and
// no id field.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MethodParametersChanged is broadcast after a successful parameter
// swap. It carries no payload; clients are expected to re-fetch the
// current parameter layout via a separate request.
const MethodParametersChanged = "parametersChanged"

// NewParametersChangedNotification builds the payload-free
// parametersChanged notification.
func NewParametersChangedNotification() Notification {
	return Notification{JSONRPC: ProtocolVersion, Method: MethodParametersChanged}
}

// NewErrorResponse builds an error Response for the given request ID.
func NewErrorResponse(id json.RawMessage, code int, message string) Response {
	return Response{
		JSONRPC: ProtocolVersion,
		Error:   &RPCError{Code: code, Message: message},
		ID:      id,
	}
}

// Standard JSON-RPC 2.0 error codes used by this surface.
const (
	ErrParseError     = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

// Server-defined error codes, in JSON-RPC's reserved -32000..-32099
// application range, for the two domain-specific failures a parameter
// request can report.
const (
	ErrParameterNotFound   = -32001
	ErrParameterOutOfRange = -32002
)

// Request method names (UI -> server).
const (
	MethodGetAllParameters = "getAllParameters"
	MethodGetParameter     = "getParameter"
	MethodSetParameter     = "setParameter"
	MethodGetMeterFrame    = "getMeterFrame"
	MethodRequestResize    = "requestResize"
	MethodPing             = "ping"
	MethodRegisterAudio    = "registerAudio"
)

// Notification method names (server -> UI).
const (
	MethodParameterChanged   = "parameterChanged"
	MethodMeterUpdate        = "meterUpdate"
	MethodAudioStatusChanged = "audioStatusChanged"
)

// NewNotification marshals params and builds a Notification, panicking
// only if params itself is not marshalable (a programmer error, since
// every payload here is a plain struct of primitives).
func NewNotification(method string, params any) Notification {
	data, err := json.Marshal(params)
	if err != nil {
		panic("wsrpc: unmarshalable notification payload: " + err.Error())
	}
	return Notification{JSONRPC: ProtocolVersion, Method: method, Params: data}
}

// NewResultResponse builds a successful Response carrying result.
func NewResultResponse(id json.RawMessage, result any) Response {
	data, err := json.Marshal(result)
	if err != nil {
		return NewErrorResponse(id, ErrInternal, err.Error())
	}
	return Response{JSONRPC: ProtocolVersion, Result: data, ID: id}
}
