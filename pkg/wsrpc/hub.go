package wsrpc

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/google/uuid"
)

// RequestHandler processes one decoded Request from a client and
// returns the raw frame to send back, or nil for a notification /
// fire-and-forget request.
type RequestHandler func(client *Client, req Request) []byte

// Hub owns the set of connected clients and the broadcast fanout. Its
// client map is only ever mutated by run, which receives
// registrations over channels; broadcast and ClientCount read the map
// directly under mu's read lock.
type Hub struct {
	upgrader websocket.Upgrader
	handler  RequestHandler

	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
}

// NewHub constructs a Hub. handler processes every decoded inbound
// request; it is invoked on the connection's own goroutine, so it must
// not block for long.
func NewHub(handler RequestHandler) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		handler:    handler,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID]*Client),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.ID] = c
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.ID]; ok {
				delete(h.clients, c.ID)
				close(c.send)
			}
			h.mu.Unlock()
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and starts
// its reader/writer pumps. The client's role is selected by a
// "register" query parameter: "audio" requests RoleAudioForward;
// anything else (including absent) is RoleUI.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	role := RoleUI
	if r.URL.Query().Get("register") == "audio" {
		role = RoleAudioForward
	}

	client := newClient(h, conn, role)
	h.register <- client

	go client.writePump()
	go client.readPump(h.dispatch)
}

func (h *Hub) dispatch(client *Client, data []byte) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		resp := NewErrorResponse(nil, ErrParseError, "invalid JSON")
		if encoded, err := json.Marshal(resp); err == nil {
			client.TrySend(encoded)
		}
		return
	}
	if h.handler == nil {
		return
	}
	if reply := h.handler(client, req); reply != nil {
		client.TrySend(reply)
	}
}

// BroadcastToUI sends msg to every connected UI client, dropping it
// for any client whose send buffer is full.
func (h *Hub) BroadcastToUI(msg []byte) {
	h.broadcast(msg, RoleUI)
}

// BroadcastAudioForward sends msg to every client registered for
// audio forwarding, dropping it for any client whose send buffer is
// full.
func (h *Hub) BroadcastAudioForward(msg []byte) {
	h.broadcast(msg, RoleAudioForward)
}

func (h *Hub) broadcast(msg []byte, role Role) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.Role == role {
			c.TrySend(msg)
		}
	}
}

// BroadcastParametersChanged implements pkg/reload.Broadcaster: it
// sends the payload-free parametersChanged notification to every UI
// client.
func (h *Hub) BroadcastParametersChanged() error {
	n := NewParametersChangedNotification()
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	h.BroadcastToUI(data)
	return nil
}

// SetRole reassigns an already-connected client's role, used by the
// registerAudio request handler to promote a client after the fact
// (the query-param role selected at Upgrade time is only the default).
func (h *Hub) SetRole(client *Client, role Role) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.Role = role
}

// ClientCount returns the number of currently connected clients,
// primarily for diagnostics/tests.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
