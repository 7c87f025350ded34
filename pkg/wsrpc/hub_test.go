package wsrpc

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubEchoesHandlerReply(t *testing.T) {
	hub := NewHub(func(c *Client, req Request) []byte {
		resp := Response{JSONRPC: ProtocolVersion, Result: json.RawMessage(`"ok"`), ID: json.RawMessage(`1`)}
		data, _ := json.Marshal(resp)
		return data
	})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv, "/ws")
	req := Request{JSONRPC: ProtocolVersion, Method: "ping"}
	require.NoError(t, conn.WriteJSON(req))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, json.RawMessage(`"ok"`), resp.Result)
}

func TestHubRegistersAudioForwardRoleFromQueryParam(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	dialHub(t, srv, "/ws?register=audio")

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.mu.RLock()
	var role Role
	for _, c := range hub.clients {
		role = c.Role
	}
	hub.mu.RUnlock()
	assert.Equal(t, RoleAudioForward, role)
}

func TestBroadcastParametersChangedReachesUIClientOnly(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ui := dialHub(t, srv, "/ws")
	audio := dialHub(t, srv, "/ws?register=audio")

	assert.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.BroadcastParametersChanged())

	ui.SetReadDeadline(time.Now().Add(2 * time.Second))
	var n Notification
	require.NoError(t, ui.ReadJSON(&n))
	assert.Equal(t, MethodParametersChanged, n.Method)

	audio.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := audio.ReadMessage()
	assert.Error(t, err, "the audio-forward client should not receive a UI-only broadcast")
}

func TestDispatchReturnsParseErrorOnInvalidJSON(t *testing.T) {
	hub := NewHub(func(c *Client, req Request) []byte { return nil })
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv, "/ws")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrParseError, resp.Error.Code)
}
