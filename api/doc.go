// Package api provides the HTTP surface of the lobby server.
//
// The api package implements:
//   - Read-only REST endpoints describing the lobby
//   - An announcement endpoint for operators
//   - WebSocket upgrade handling for the game protocol
//   - A health check for process supervisors
//
// Endpoints:
//
// Lobby:
//   - GET /api/status - Lobby code, player count, capacity, uptime
//   - GET /api/state - Current game state snapshot
//   - POST /api/announce - Push an announcement to all players
//
// Connections:
//   - GET /ws - WebSocket upgrade; the game protocol runs on top
//
// Health:
//   - GET /healthz - Liveness check
//
// All REST endpoints return JSON. Errors are returned as JSON with the
// appropriate HTTP status code:
//
//	{
//	  "error": "error message"
//	}
//
// The REST surface is deliberately read-mostly. Gameplay happens over
// the WebSocket protocol; see the protocol package for the frame
// formats.
package api
