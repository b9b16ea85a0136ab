package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/castline/castline/game/config"
	"github.com/castline/castline/game/lobby"
	"github.com/castline/castline/game/protocol"
	ws "github.com/castline/castline/transport/websocket"
)

func newTestServer(t *testing.T) (*lobby.Lobby, string) {
	t.Helper()
	lb, err := lobby.New(config.Default())
	if err != nil {
		t.Fatalf("lobby.New: %v", err)
	}
	hub := ws.NewHub(lb)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)
	return lb, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialJoin(t *testing.T, url, code, name string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	if err := c.Join(code, name); err != nil {
		t.Fatalf("Join: %v", err)
	}
	return c
}

func waitEvent(t *testing.T, c *Client, typ protocol.Type) protocol.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				t.Fatalf("events channel closed while waiting for %q (err: %v)", typ, c.Err())
			}
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", typ)
		}
	}
}

func TestJoinHandshake(t *testing.T) {
	lb, url := newTestServer(t)

	c := dialJoin(t, url, strings.ToLower(" "+lb.Code()+" "), "alice")

	if c.ClientID == "" {
		t.Fatal("expected a client ID after join")
	}
	if c.PlayerName != "alice" {
		t.Fatalf("PlayerName = %q, want alice", c.PlayerName)
	}
	if c.LobbyCode != lb.Code() {
		t.Fatalf("LobbyCode = %q, want %q", c.LobbyCode, lb.Code())
	}
}

func TestJoinWrongCode(t *testing.T) {
	_, url := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	err = c.Join("NOPE42", "mallory")
	var rejected *ErrJoinRejected
	if !errors.As(err, &rejected) {
		t.Fatalf("Join error = %v, want ErrJoinRejected", err)
	}
	if rejected.Reason != "Invalid lobby code" {
		t.Fatalf("Reason = %q, want Invalid lobby code", rejected.Reason)
	}
}

func TestPingPong(t *testing.T) {
	lb, url := newTestServer(t)
	c := dialJoin(t, url, lb.Code(), "alice")

	if err := c.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	waitEvent(t, c, protocol.TypePong)
}

func TestChatBetweenClients(t *testing.T) {
	lb, url := newTestServer(t)
	alice := dialJoin(t, url, lb.Code(), "alice")
	bob := dialJoin(t, url, lb.Code(), "bob")
	waitEvent(t, alice, protocol.TypePlayerJoined)

	if err := alice.SendChat("tight lines"); err != nil {
		t.Fatalf("SendChat: %v", err)
	}

	ev := waitEvent(t, bob, protocol.TypeChatMessage)
	if ev.Text != "tight lines" {
		t.Fatalf("Text = %q, want tight lines", ev.Text)
	}
	if ev.ClientID != alice.ClientID {
		t.Fatalf("ClientID = %q, want %q", ev.ClientID, alice.ClientID)
	}

	// The sender hears its own chat too.
	echo := waitEvent(t, alice, protocol.TypeChatMessage)
	if echo.Text != "tight lines" {
		t.Fatalf("echo Text = %q, want tight lines", echo.Text)
	}
}

func TestMoveAndCast(t *testing.T) {
	lb, url := newTestServer(t)
	alice := dialJoin(t, url, lb.Code(), "alice")
	bob := dialJoin(t, url, lb.Code(), "bob")
	waitEvent(t, alice, protocol.TypePlayerJoined)

	if err := alice.Move(100, 9999); err != nil {
		t.Fatalf("Move: %v", err)
	}
	moved := waitEvent(t, bob, protocol.TypePlayerMoved)
	if moved.Position == nil || moved.Position.X != 100 || moved.Position.Y != 600 {
		t.Fatalf("moved position = %+v, want clamped (100, 600)", moved.Position)
	}

	if err := alice.CastLine(150, 200); err != nil {
		t.Fatalf("CastLine: %v", err)
	}
	cast := waitEvent(t, bob, protocol.TypePlayerCastLine)
	if cast.CastPosition == nil || cast.CastPosition.X != 150 || cast.CastPosition.Y != 200 {
		t.Fatalf("cast position = %+v, want (150, 200)", cast.CastPosition)
	}
}

func TestRequestGameState(t *testing.T) {
	lb, url := newTestServer(t)
	c := dialJoin(t, url, lb.Code(), "alice")

	if err := c.RequestGameState(); err != nil {
		t.Fatalf("RequestGameState: %v", err)
	}
	ev := waitEvent(t, c, protocol.TypeGameState)
	if ev.State == nil {
		t.Fatal("expected game state payload")
	}
	if _, ok := ev.State.Players[c.ClientID]; !ok {
		t.Fatalf("game state missing player %q", c.ClientID)
	}
}

func TestCloseEndsEventStream(t *testing.T) {
	lb, url := newTestServer(t)
	c := dialJoin(t, url, lb.Code(), "alice")

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-c.Events():
			if !ok {
				if err := c.Err(); err != nil {
					t.Fatalf("Err after local close = %v, want nil", err)
				}
				return
			}
		case <-deadline:
			t.Fatal("events channel did not close")
		}
	}
}
