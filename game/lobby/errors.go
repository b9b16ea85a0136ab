package lobby

import "errors"

// Handshake failures. Fatal: the connection is closed with a
// policy-violation status and never reaches ACTIVE.
var (
	ErrBadHandshake = errors.New("first message must be join_lobby")
	ErrInvalidCode  = errors.New("invalid lobby code")
	ErrLobbyFull    = errors.New("lobby is full")
)

// Recoverable per-message failures. The offending client gets an error
// reply and the connection stays open.
var (
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrMalformedFrame = errors.New("malformed frame")
	ErrInternal       = errors.New("internal server error")
)

// wireMessage maps a taxonomy error onto the client-facing error text.
// The strings are part of the wire contract and must not drift.
func wireMessage(err error) string {
	switch {
	case errors.Is(err, ErrBadHandshake):
		return "First message must be join_lobby"
	case errors.Is(err, ErrInvalidCode):
		return "Invalid lobby code"
	case errors.Is(err, ErrLobbyFull):
		return "Lobby is full"
	case errors.Is(err, ErrRateLimited):
		return "Rate limit exceeded. Slow down!"
	case errors.Is(err, ErrMalformedFrame):
		return "Invalid JSON format"
	}
	return "Server error processing your request"
}
