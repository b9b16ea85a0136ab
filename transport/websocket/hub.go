package websocket

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/castline/castline/game/lobby"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. The largest legal client
	// frame is a 200-character chat message plus envelope.
	maxMessageSize = 512

	// Outbound frames buffered per connection before the peer counts
	// as too slow.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The lobby code is the admission gate, not the Origin header.
		return true
	},
}

// Hub accepts WebSocket connections and hands them to the lobby.
type Hub struct {
	lobby *lobby.Lobby
}

// NewHub creates a hub serving the given lobby.
func NewHub(l *lobby.Lobby) *Hub {
	return &Hub{lobby: l}
}

// ServeWS upgrades an HTTP request and starts the connection's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{
		lobby: h.lobby,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
	}

	h.lobby.Track(c)

	go c.writePump()
	go c.readPump()
}

// client wraps one WebSocket connection and implements lobby.Conn.
type client struct {
	lobby *lobby.Lobby
	conn  *websocket.Conn
	send  chan []byte

	closeOnce sync.Once
	closeMsg  []byte
	done      chan struct{}
}

// Send enqueues a frame without blocking. A full buffer or a closing
// connection reports failure; the lobby treats that as a dead peer.
func (c *client) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close starts the close handshake with the given status. Queued frames
// (such as the error reply that precedes a policy-violation close) are
// flushed before the close frame goes out. Safe to call repeatedly.
func (c *client) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeMsg = websocket.FormatCloseMessage(code, reason)
		close(c.done)
	})
}

// readPump pumps frames from the connection into the lobby. One pump
// per connection guarantees per-connection receipt order.
func (c *client) readPump() {
	defer func() {
		c.lobby.Disconnect(c)
		c.Close(websocket.CloseNormalClosure, "")
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}
		c.lobby.HandleFrame(c, message)
	}
}

// writePump pumps frames from the send channel to the connection and
// keeps the transport alive with periodic pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Flush whatever else is already queued.
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-c.done:
			// Drain pending frames so replies ordered before the close
			// (like handshake errors) still reach the peer.
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}
			c.conn.WriteMessage(websocket.CloseMessage, c.closeMsg)
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
