package lobby

import (
	"errors"
	"testing"
)

func TestWireMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"bad handshake", ErrBadHandshake, "First message must be join_lobby"},
		{"invalid code", ErrInvalidCode, "Invalid lobby code"},
		{"lobby full", ErrLobbyFull, "Lobby is full"},
		{"rate limited", ErrRateLimited, "Rate limit exceeded. Slow down!"},
		{"malformed frame", ErrMalformedFrame, "Invalid JSON format"},
		{"internal", ErrInternal, "Server error processing your request"},
		{"unknown", errors.New("something else"), "Server error processing your request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wireMessage(tt.err); got != tt.want {
				t.Errorf("wireMessage(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestWireMessage_WrappedError(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), ErrLobbyFull)
	if got := wireMessage(wrapped); got != "Lobby is full" {
		t.Errorf("wireMessage(wrapped) = %q, want %q", got, "Lobby is full")
	}
}
