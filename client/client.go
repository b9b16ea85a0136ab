// Package client implements a Go client for the lobby protocol. It is
// used by the lobbyctl diagnostics tool and the MCP transport, and it
// doubles as the reference for how peripheral programs talk to the
// server: one join handshake, then free-form frames in both directions.
package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/castline/castline/game/protocol"
)

// ErrJoinRejected wraps the server's reason for refusing a join.
type ErrJoinRejected struct {
	Reason string
}

func (e *ErrJoinRejected) Error() string {
	return fmt.Sprintf("join rejected: %s", e.Reason)
}

// Client is a connected lobby participant. Create one with Dial, then
// call Join before anything else; the server closes connections whose
// first frame is not a join request.
type Client struct {
	conn *websocket.Conn

	// Populated by a successful Join.
	ClientID   string
	PlayerName string
	LobbyCode  string

	writeMu sync.Mutex

	events    chan protocol.Event
	done      chan struct{}
	closeOnce sync.Once

	errMu sync.Mutex
	err   error
}

// Dial connects to the server's WebSocket endpoint, e.g.
// ws://localhost:8765/ws.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{
		conn:   conn,
		events: make(chan protocol.Event, 64),
		done:   make(chan struct{}),
	}, nil
}

// Join performs the registration handshake. The code is trimmed and
// upper-cased client-side, matching the server's normalization. On
// success the event loop starts and Events begins delivering frames.
func (c *Client) Join(code, name string) error {
	join := protocol.Inbound{
		Type:       protocol.TypeJoinLobby,
		LobbyCode:  strings.ToUpper(strings.TrimSpace(code)),
		PlayerName: strings.TrimSpace(name),
	}
	if err := c.writeJSON(join); err != nil {
		return err
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read join response: %w", err)
	}
	ev, err := protocol.DecodeEvent(data)
	if err != nil {
		return fmt.Errorf("decode join response: %w", err)
	}

	switch ev.Type {
	case protocol.TypeWelcome:
		c.ClientID = ev.ClientID
		c.PlayerName = ev.PlayerName
		c.LobbyCode = ev.LobbyCode
	case protocol.TypeError:
		c.conn.Close()
		return &ErrJoinRejected{Reason: ev.Message}
	default:
		c.conn.Close()
		return fmt.Errorf("unexpected join response type %q", ev.Type)
	}

	go c.readLoop()
	return nil
}

// Events delivers every server frame received after the handshake. The
// channel closes when the connection ends; check Err afterwards.
func (c *Client) Events() <-chan protocol.Event {
	return c.events
}

// Err reports why the event loop stopped, nil for a clean local Close.
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Close ends the session with a normal close handshake.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// SendChat sends a chat line. The server drops empty or oversized text
// silently, so callers wanting validation should check length first.
func (c *Client) SendChat(text string) error {
	return c.writeJSON(protocol.Inbound{Type: protocol.TypeChatMessage, Text: text})
}

// Move requests a move to (x, y). The server clamps to world bounds.
func (c *Client) Move(x, y float64) error {
	return c.writeJSON(protocol.Inbound{
		Type: protocol.TypePlayerAction,
		Data: &protocol.ActionData{Action: protocol.ActionMove, X: x, Y: y},
	})
}

// CastLine casts the fishing line at (x, y).
func (c *Client) CastLine(x, y float64) error {
	return c.writeJSON(protocol.Inbound{
		Type: protocol.TypePlayerAction,
		Data: &protocol.ActionData{Action: protocol.ActionCastLine, X: x, Y: y},
	})
}

// ReportCatch tells the lobby about a catch. The current server ignores
// the action; it exists so peers sharing a newer server see catches.
func (c *Client) ReportCatch(fishType string) error {
	return c.writeJSON(protocol.Inbound{
		Type: protocol.TypePlayerAction,
		Data: &protocol.ActionData{Action: protocol.ActionFishCaught, FishType: fishType},
	})
}

// Ping sends an application-level ping. The pong arrives on Events.
func (c *Client) Ping() error {
	return c.writeJSON(protocol.Inbound{Type: protocol.TypePing})
}

// RequestGameState asks for a state snapshot, delivered on Events.
func (c *Client) RequestGameState() error {
	return c.writeJSON(protocol.Inbound{Type: protocol.TypeGetGameState})
}

// Keepalive sends a ping every interval until the client closes.
// Advisory only; the server enforces no idle timeout of its own.
func (c *Client) Keepalive(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.Ping(); err != nil {
					return
				}
			case <-c.done:
				return
			}
		}
	}()
}

func (c *Client) writeJSON(v any) error {
	data, err := protocol.Encode(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				// Local close; not an error.
			default:
				c.setErr(err)
			}
			return
		}

		ev, err := protocol.DecodeEvent(data)
		if err != nil {
			// A frame we cannot parse is worth surfacing, but it does
			// not end the session.
			continue
		}

		select {
		case c.events <- *ev:
		case <-c.done:
			return
		}
	}
}

func (c *Client) setErr(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.err == nil {
		c.err = err
	}
}
