package lobby

import (
	"log"
	"strings"

	"github.com/castline/castline/game/protocol"
)

// routeLocked dispatches one decoded message from an active connection.
// Unknown types are tolerated here, unlike the strict handshake phase:
// a registered client sending garbage loses the message, not the
// connection. Panics inside handlers are converted to a generic error
// reply and never reach the connection goroutine.
func (l *Lobby) routeLocked(c Conn, s *session, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered handling message from client %s: %v", s.clientID, r)
			l.reply(c, protocol.NewError(wireMessage(ErrInternal)))
		}
	}()

	msg, err := protocol.DecodeInbound(data)
	if err != nil {
		l.reply(c, protocol.NewError(wireMessage(ErrMalformedFrame)))
		return
	}

	if !l.limiter.Allow(s.clientID) {
		l.reply(c, protocol.NewError(wireMessage(ErrRateLimited)))
		log.Printf("Rate limit exceeded for client %s", s.clientID)
		return
	}

	switch msg.Type {
	case protocol.TypePing:
		l.reply(c, protocol.NewPong())

	case protocol.TypeGetGameState:
		l.reply(c, protocol.NewGameState(l.snapshotLocked()))

	case protocol.TypeChatMessage:
		l.handleChatLocked(s, msg.Text)

	case protocol.TypePlayerAction:
		l.handleActionLocked(s, msg.Data)

	case protocol.TypeJoinLobby:
		// Exactly one registration attempt per connection; a second
		// join from an active client is just an unknown message.
		log.Printf("Ignoring join_lobby from already registered client %s", s.clientID)

	default:
		log.Printf("Unknown message type %q from client %s", msg.Type, s.clientID)
	}
}

// handleChatLocked validates and broadcasts a chat line. Empty or
// oversized text is dropped silently: no reply, no broadcast.
func (l *Lobby) handleChatLocked(s *session, text string) {
	text = strings.TrimSpace(text)
	if text == "" || len([]rune(text)) > l.cfg.MaxChatLen {
		return
	}

	frame, err := protocol.Encode(protocol.NewChatMessage(s.name, s.clientID, text, l.now()))
	if err != nil {
		return
	}
	// Chat goes to everyone, sender included.
	l.broadcastLocked(frame, nil)
}

// handleActionLocked dispatches a player_action by its action field.
func (l *Lobby) handleActionLocked(s *session, data *protocol.ActionData) {
	if data == nil {
		log.Printf("player_action without data from client %s", s.clientID)
		return
	}

	switch data.Action {
	case protocol.ActionMove:
		x := clamp(data.X, 0, l.cfg.WorldWidth)
		y := clamp(data.Y, 0, l.cfg.WorldHeight)

		p, ok := l.players[s.clientID]
		if !ok {
			return
		}
		p.Position = protocol.Position{X: x, Y: y}

		if frame, err := protocol.Encode(protocol.NewPlayerMoved(s.clientID, p.Position)); err == nil {
			l.broadcastLocked(frame, nil)
		}

	case protocol.ActionCastLine:
		// Cast coordinates travel verbatim. Whether anything bites is
		// the fishing collaborator's business, not the lobby's.
		pos := protocol.Position{X: data.X, Y: data.Y}
		if frame, err := protocol.Encode(protocol.NewPlayerCastLine(s.clientID, pos)); err == nil {
			l.broadcastLocked(frame, nil)
		}

	default:
		log.Printf("Ignoring unknown action %q from client %s", data.Action, s.clientID)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
