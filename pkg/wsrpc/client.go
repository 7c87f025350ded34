package wsrpc

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/google/uuid"
)

// Role distinguishes the two kinds of connection the hub fans out to:
// a browser UI client, and an audio-forwarding client (registerAudio).
// Each broadcast targets one role, so an audio-forwarding client does
// not receive UI-only broadcasts such as parametersChanged.
type Role int

const (
	RoleUI Role = iota
	RoleAudioForward
)

const (
	sendBufferSize = 32
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
)

// Client is one WebSocket connection. Exactly one goroutine (writePump)
// ever calls conn.Write*; every other goroutine that wants to send a
// message enqueues onto send instead, so a slow reader can't corrupt
// the connection's write side.
type Client struct {
	ID   uuid.UUID
	Role Role

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, role Role) *Client {
	return &Client{
		ID:   uuid.New(),
		Role: role,
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// readPump reads inbound frames and dispatches them to the hub's
// request handler. It owns the connection's read side exclusively.
func (c *Client) readPump(handle func(*Client, []byte)) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		handle(c, data)
	}
}

// writePump is the connection's sole writer: it drains send and
// issues periodic pings. It exits (closing the connection) when send
// is closed by the hub on unregister, or on any write error.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend enqueues msg without blocking; it drops the message if the
// client's send buffer is full rather than stalling the broadcaster
// over one slow connection.
func (c *Client) TrySend(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}
