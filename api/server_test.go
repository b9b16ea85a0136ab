package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/castline/castline/game/config"
	"github.com/castline/castline/game/lobby"
	"github.com/castline/castline/game/protocol"
	"github.com/castline/castline/transport/websocket"
)

func newTestAPI(t *testing.T) (*lobby.Lobby, *httptest.Server) {
	t.Helper()
	l, err := lobby.New(config.Default())
	if err != nil {
		t.Fatalf("lobby.New: %v", err)
	}
	hub := websocket.NewHub(l)
	srv := httptest.NewServer(NewServer(l, hub))
	t.Cleanup(srv.Close)
	return l, srv
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestStatusEndpoint(t *testing.T) {
	l, srv := newTestAPI(t)

	var status StatusResponse
	resp := getJSON(t, srv.URL+"/api/status", &status)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}
	if status.LobbyCode != l.Code() {
		t.Errorf("LobbyCode = %q, want %q", status.LobbyCode, l.Code())
	}
	if status.Players != 0 {
		t.Errorf("Players = %d, want 0", status.Players)
	}
	if status.MaxPlayers != 2 {
		t.Errorf("MaxPlayers = %d, want 2", status.MaxPlayers)
	}
	if status.Started {
		t.Error("Started should be false for a fresh lobby")
	}
}

func TestStateEndpoint(t *testing.T) {
	l, srv := newTestAPI(t)

	// Join one player over the WebSocket so state is non-empty.
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	join, _ := protocol.Encode(protocol.Inbound{
		Type:       protocol.TypeJoinLobby,
		LobbyCode:  l.Code(),
		PlayerName: "alice",
	})
	if err := conn.WriteMessage(gorilla.TextMessage, join); err != nil {
		t.Fatalf("write join: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read welcome: %v", err)
	}

	var state protocol.GameState
	getJSON(t, srv.URL+"/api/state", &state)
	if len(state.Players) != 1 {
		t.Fatalf("state has %d players, want 1", len(state.Players))
	}
	for _, p := range state.Players {
		if p.Name != "alice" {
			t.Errorf("player name = %q, want alice", p.Name)
		}
	}
}

func TestAnnounceEndpoint(t *testing.T) {
	_, srv := newTestAPI(t)

	t.Run("valid message", func(t *testing.T) {
		body := bytes.NewBufferString(`{"message": "maintenance at noon"}`)
		resp, err := http.Post(srv.URL+"/api/announce", "application/json", body)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status code = %d, want 200", resp.StatusCode)
		}

		var out struct {
			Delivered int `json:"delivered"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.Delivered != 0 {
			t.Errorf("delivered = %d, want 0 for an empty lobby", out.Delivered)
		}
	})

	t.Run("empty message rejected", func(t *testing.T) {
		body := bytes.NewBufferString(`{"message": "   "}`)
		resp, err := http.Post(srv.URL+"/api/announce", "application/json", body)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status code = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		body := bytes.NewBufferString(`{nope`)
		resp, err := http.Post(srv.URL+"/api/announce", "application/json", body)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status code = %d, want 400", resp.StatusCode)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	_, srv := newTestAPI(t)

	var out map[string]string
	resp := getJSON(t, srv.URL+"/healthz", &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}
	if out["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", out["status"])
	}
}

func TestWebSocketRouteUpgrades(t *testing.T) {
	l, srv := newTestAPI(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	join, _ := protocol.Encode(protocol.Inbound{
		Type:      protocol.TypeJoinLobby,
		LobbyCode: l.Code(),
	})
	if err := conn.WriteMessage(gorilla.TextMessage, join); err != nil {
		t.Fatalf("write join: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	ev, err := protocol.DecodeEvent(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != protocol.TypeWelcome {
		t.Fatalf("event type = %q, want welcome", ev.Type)
	}
}
