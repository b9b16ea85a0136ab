// Package websocket provides the WebSocket transport for the lobby
// server.
//
// Each connection gets two goroutines: a read pump that feeds received
// frames into the lobby's serialization domain, and a write pump that
// drains a buffered send channel. The lobby never blocks on a peer:
// sends are channel enqueues, and a peer whose channel is full or whose
// transport is gone is treated as failed and unregistered after the
// current broadcast pass.
//
// Connection lifecycle:
//
//  1. Client connects and is tracked as PENDING
//  2. First frame must be join_lobby; anything else closes with 1008
//  3. Registered clients exchange frames until the transport drops
//  4. Any closure funnels through the lobby's unregister routine
//
// Keepalive is twofold: protocol-level pings from the write pump keep
// intermediaries from timing the socket out, and the application-level
// ping/pong message pair is available to clients as an advisory check.
package websocket
