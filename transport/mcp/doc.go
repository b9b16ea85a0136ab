// Package mcp provides a Model Context Protocol interface to the lobby
// server.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions for lobby inspection and gameplay
//   - One managed WebSocket session per MCP client
//   - Stdio transport
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - lobby_status: Lobby code, player count, capacity, uptime
//   - game_state: Players, positions and scores
//   - announce: Push a server announcement to all players
//   - join_lobby: Join the lobby over WebSocket
//   - send_chat: Chat with the other player
//   - move: Move to world coordinates
//   - cast_line: Cast the fishing line
//   - leave_lobby: Close the managed session
//
// Read-only tools proxy to the REST API and work without joining.
// Gameplay tools require a prior join_lobby call; the package keeps a
// single live session and rejects a second join until leave_lobby.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8765")
//	client.ServeStdio()
package mcp
