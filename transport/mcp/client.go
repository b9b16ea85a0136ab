package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/castline/castline/api"
	lobbyclient "github.com/castline/castline/client"
	"github.com/castline/castline/game/protocol"
)

// Client is a thin MCP client for the lobby server. Read-only tools
// proxy to the REST API; gameplay tools drive a live WebSocket session
// through the lobby client.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	mcpServer  *server.MCPServer

	mu      sync.Mutex
	session *lobbyclient.Client
}

// NewClient creates a new MCP client. baseURL is the REST API root,
// e.g. http://localhost:8765.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		wsURL:   "ws" + strings.TrimPrefix(baseURL, "http") + "/ws",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Castline Lobby",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Castline Lobby - MCP Interface

This is a thin client for a two-player fishing lobby server. Read-only
tools go through the REST API; gameplay tools hold one live WebSocket
session on your behalf.

AVAILABLE TOOLS:
- lobby_status: Lobby code, player count, capacity
- game_state: Current players, positions and scores
- announce: Push a server announcement to all players
- join_lobby: Join the lobby (requires the lobby code)
- send_chat: Send a chat line to every player
- move: Move your player to (x, y); coordinates are clamped to the world
- cast_line: Cast your fishing line at (x, y)
- leave_lobby: Close your session

NOTE: join_lobby must succeed before send_chat, move, cast_line or
leave_lobby will work. The lobby holds at most two players.`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Read-only lobby tools
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "lobby_status",
		Description: "Get the lobby code, player count, capacity and uptime",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleLobbyStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state: players, positions, scores",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "announce",
		Description: "Push a server announcement to every connected player",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Announcement text",
				},
			},
			Required: []string{"message"},
		},
	}, c.handleAnnounce)

	// Gameplay tools
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "join_lobby",
		Description: "Join the lobby as a player. Requires the 6-character lobby code printed by the server on startup.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"lobby_code": map[string]interface{}{
					"type":        "string",
					"description": "6-character lobby code",
				},
				"player_name": map[string]interface{}{
					"type":        "string",
					"description": "Display name (optional)",
				},
			},
			Required: []string{"lobby_code"},
		},
	}, c.handleJoinLobby)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "send_chat",
		Description: "Send a chat message to every player in the lobby. At most 200 characters.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Chat text",
				},
			},
			Required: []string{"text"},
		},
	}, c.handleSendChat)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move your player to (x, y). The server clamps coordinates to the 800x600 world.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"x": map[string]interface{}{
					"type":        "number",
					"description": "Target x coordinate",
				},
				"y": map[string]interface{}{
					"type":        "number",
					"description": "Target y coordinate",
				},
			},
			Required: []string{"x", "y"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "cast_line",
		Description: "Cast your fishing line at (x, y)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"x": map[string]interface{}{
					"type":        "number",
					"description": "Cast x coordinate",
				},
				"y": map[string]interface{}{
					"type":        "number",
					"description": "Cast y coordinate",
				},
			},
			Required: []string{"x", "y"},
		},
	}, c.handleCastLine)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "leave_lobby",
		Description: "Leave the lobby and close your session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleLeaveLobby)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func (c *Client) currentSession() *lobbyclient.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Tool handlers

func (c *Client) handleLobbyStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var status api.StatusResponse
	err := c.apiCall("GET", "/api/status", nil, &status)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Lobby %s: %d/%d players, started=%t, up %ds\n",
		status.LobbyCode, status.Players, status.MaxPlayers, status.Started, status.UptimeSeconds)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var state protocol.GameState
	err := c.apiCall("GET", "/api/state", nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleAnnounce(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	message, _ := args["message"].(string)

	var resp struct {
		Delivered int `json:"delivered"`
	}
	err := c.apiCall("POST", "/api/announce", map[string]string{"message": message}, &resp)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Announcement delivered to %d player(s)", resp.Delivered)), nil
}

func (c *Client) handleJoinLobby(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	code, _ := args["lobby_code"].(string)
	name, _ := args["player_name"].(string)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return mcp.NewToolResultError("already joined; use leave_lobby first"), nil
	}

	session, err := lobbyclient.Dial(ctx, c.wsURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := session.Join(code, name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// The lobby has no idle timeout, but a silent session looks dead to
	// network middleboxes.
	session.Keepalive(30 * time.Second)
	c.session = session

	result := fmt.Sprintf("Joined lobby %s as %s (client_id %s)\n",
		session.LobbyCode, session.PlayerName, session.ClientID)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSendChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session := c.currentSession()
	if session == nil {
		return mcp.NewToolResultError("not in a lobby; use join_lobby first"), nil
	}

	args := request.Params.Arguments.(map[string]interface{})
	text, _ := args["text"].(string)

	if err := session.SendChat(text); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Chat sent"), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session := c.currentSession()
	if session == nil {
		return mcp.NewToolResultError("not in a lobby; use join_lobby first"), nil
	}

	args := request.Params.Arguments.(map[string]interface{})
	x, _ := args["x"].(float64)
	y, _ := args["y"].(float64)

	if err := session.Move(x, y); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Move requested to (%.0f, %.0f)", x, y)), nil
}

func (c *Client) handleCastLine(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session := c.currentSession()
	if session == nil {
		return mcp.NewToolResultError("not in a lobby; use join_lobby first"), nil
	}

	args := request.Params.Arguments.(map[string]interface{})
	x, _ := args["x"].(float64)
	y, _ := args["y"].(float64)

	if err := session.CastLine(x, y); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Line cast at (%.0f, %.0f)", x, y)), nil
}

func (c *Client) handleLeaveLobby(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return mcp.NewToolResultError("not in a lobby"), nil
	}

	err := c.session.Close()
	c.session = nil
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Left the lobby"), nil
}

// Formatting helpers

func formatGameState(state *protocol.GameState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game state: %d player(s), started=%t\n", len(state.Players), state.Started)

	ids := make([]string, 0, len(state.Players))
	for id := range state.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := state.Players[id]
		fmt.Fprintf(&b, "- %s (%s): score %d at (%.0f, %.0f)\n",
			p.Name, id, p.Score, p.Position.X, p.Position.Y)
	}
	return b.String()
}

// ServeStdio runs the MCP server over stdio until the client hangs up.
func (c *Client) ServeStdio() error {
	return server.ServeStdio(c.mcpServer)
}
