package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/castline/castline/api"
	"github.com/castline/castline/game/config"
	"github.com/castline/castline/game/lobby"
	"github.com/castline/castline/game/protocol"
	"github.com/castline/castline/transport/websocket"
)

func newTestStack(t *testing.T) (*lobby.Lobby, *Client) {
	t.Helper()
	l, err := lobby.New(config.Default())
	if err != nil {
		t.Fatalf("lobby.New: %v", err)
	}
	hub := websocket.NewHub(l)
	srv := httptest.NewServer(api.NewServer(l, hub))
	t.Cleanup(srv.Close)
	return l, NewClient(srv.URL)
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]interface{}) mcp.TextContent {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	result, err := handler(context.Background(), request)
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	if result == nil {
		t.Fatalf("%s returned nil result", name)
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("%s: expected text content in result", name)
	}
	return text
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8765"
	client := NewClient(baseURL)

	if client == nil {
		t.Fatal("Expected client to be created")
	}
	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}
	if client.wsURL != "ws://localhost:8765/ws" {
		t.Errorf("Expected derived ws URL, got %s", client.wsURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.mcpServer == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	err := client.apiCall("GET", "/api/status", nil, nil)
	if err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall("GET", "/api/status", nil, nil)
	if err == nil {
		t.Error("Expected error for HTTP 500 response")
	}
	if !strings.Contains(err.Error(), "API error") {
		t.Errorf("Expected 'API error' in error message, got: %v", err)
	}
}

func TestClient_handleLobbyStatus(t *testing.T) {
	l, client := newTestStack(t)

	text := callTool(t, client.handleLobbyStatus, "lobby_status", map[string]interface{}{})
	if !strings.Contains(text.Text, l.Code()) {
		t.Errorf("Expected lobby code in result, got: %s", text.Text)
	}
	if !strings.Contains(text.Text, "0/2 players") {
		t.Errorf("Expected player count in result, got: %s", text.Text)
	}
}

func TestClient_JoinAndPlay(t *testing.T) {
	l, client := newTestStack(t)

	t.Run("gameplay before join rejected", func(t *testing.T) {
		text := callTool(t, client.handleSendChat, "send_chat", map[string]interface{}{"text": "hi"})
		if !strings.Contains(text.Text, "join_lobby first") {
			t.Errorf("Expected join hint, got: %s", text.Text)
		}
	})

	t.Run("join", func(t *testing.T) {
		text := callTool(t, client.handleJoinLobby, "join_lobby", map[string]interface{}{
			"lobby_code":  l.Code(),
			"player_name": "agent",
		})
		if !strings.Contains(text.Text, "Joined lobby "+l.Code()) {
			t.Errorf("Expected join confirmation, got: %s", text.Text)
		}
		if !strings.Contains(text.Text, "agent") {
			t.Errorf("Expected player name in result, got: %s", text.Text)
		}
	})

	t.Run("double join rejected", func(t *testing.T) {
		text := callTool(t, client.handleJoinLobby, "join_lobby", map[string]interface{}{
			"lobby_code": l.Code(),
		})
		if !strings.Contains(text.Text, "already joined") {
			t.Errorf("Expected rejection, got: %s", text.Text)
		}
	})

	t.Run("move and cast", func(t *testing.T) {
		callTool(t, client.handleMove, "move", map[string]interface{}{"x": 100.0, "y": 200.0})
		callTool(t, client.handleCastLine, "cast_line", map[string]interface{}{"x": 150.0, "y": 250.0})
	})

	t.Run("game state shows player", func(t *testing.T) {
		text := callTool(t, client.handleGameState, "game_state", map[string]interface{}{})
		if !strings.Contains(text.Text, "agent") {
			t.Errorf("Expected joined player in state, got: %s", text.Text)
		}
	})

	t.Run("leave", func(t *testing.T) {
		text := callTool(t, client.handleLeaveLobby, "leave_lobby", map[string]interface{}{})
		if !strings.Contains(text.Text, "Left the lobby") {
			t.Errorf("Expected leave confirmation, got: %s", text.Text)
		}
		if client.currentSession() != nil {
			t.Error("Session should be cleared after leave")
		}
	})
}

func TestClient_handleJoinLobby_WrongCode(t *testing.T) {
	_, client := newTestStack(t)

	text := callTool(t, client.handleJoinLobby, "join_lobby", map[string]interface{}{
		"lobby_code": "WRONG1",
	})
	if !strings.Contains(text.Text, "Invalid lobby code") {
		t.Errorf("Expected rejection reason, got: %s", text.Text)
	}
	if client.currentSession() != nil {
		t.Error("Failed join should not leave a session behind")
	}
}

func TestClient_handleAnnounce(t *testing.T) {
	_, client := newTestStack(t)

	text := callTool(t, client.handleAnnounce, "announce", map[string]interface{}{
		"message": "server restarting soon",
	})
	if !strings.Contains(text.Text, "delivered to 0") {
		t.Errorf("Expected delivery count, got: %s", text.Text)
	}
}

func TestFormatGameState(t *testing.T) {
	state := &protocol.GameState{
		Players: map[string]protocol.Player{
			"client_1_100": {Name: "alice", Score: 3, Position: protocol.Position{X: 100, Y: 200}},
			"client_2_101": {Name: "bob", Score: 0, Position: protocol.Position{X: 400, Y: 300}},
		},
		Started: true,
	}

	result := formatGameState(state)

	expectedFields := []string{
		"2 player(s)",
		"started=true",
		"alice (client_1_100): score 3 at (100, 200)",
		"bob (client_2_101): score 0 at (400, 300)",
	}
	for _, field := range expectedFields {
		if !strings.Contains(result, field) {
			t.Errorf("Expected field '%s' in formatted output, got: %s", field, result)
		}
	}
}
