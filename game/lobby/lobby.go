// Package lobby implements the session core of the fishing game server:
// the connection registry and its lifecycle state machine, the message
// router, and the broadcast fan-out. All shared state is fenced behind a
// single mutex, so every mutation happens inside one serialization
// domain regardless of how many connection goroutines feed it.
package lobby

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/castline/castline/game/config"
	"github.com/castline/castline/game/protocol"
	"github.com/castline/castline/game/ratelimit"
)

// Close statuses from RFC 6455: ClosePolicyViolation is sent on failed
// handshakes, CloseNormalClosure when the registry drops a connection.
const (
	CloseNormalClosure   = 1000
	ClosePolicyViolation = 1008
)

// Conn is the transport handle the lobby holds for each connection.
// Send must not block: it enqueues a frame and reports false when the
// peer is gone or too slow to keep up. Close starts the close handshake
// with the given status code; it must be safe to call more than once.
type Conn interface {
	Send(data []byte) bool
	Close(code int, reason string)
}

type phase int

const (
	phasePending phase = iota
	phaseActive
	phaseClosed
)

// session is the registry entry for one connection.
type session struct {
	phase    phase
	clientID string
	name     string
}

// Lobby owns the connection registry, the aggregate game state, and the
// rate limiter. It is constructed once and passed explicitly to every
// collaborator; there is no ambient global instance.
type Lobby struct {
	mu      sync.Mutex
	cfg     config.Config
	code    string
	limiter *ratelimit.Limiter

	seq     int
	conns   map[Conn]*session
	players map[string]*protocol.Player
	started bool

	now func() time.Time
}

// New creates a lobby with a freshly generated code. The configuration
// is validated here so a misconfigured lobby cannot be constructed.
func New(cfg config.Config) (*Lobby, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Lobby{
		cfg:     cfg,
		code:    GenerateCode(),
		limiter: ratelimit.New(cfg.RateLimit, cfg.RateWindow),
		conns:   make(map[Conn]*session),
		players: make(map[string]*protocol.Player),
		now:     time.Now,
	}, nil
}

// Code returns the lobby's join code. Immutable for the server's lifetime.
func (l *Lobby) Code() string {
	return l.code
}

// Config returns the lobby's configuration.
func (l *Lobby) Config() config.Config {
	return l.cfg
}

// Track admits a new connection in the PENDING state. The connection
// stays pending until its first frame arrives; only a valid join_lobby
// frame promotes it to ACTIVE.
func (l *Lobby) Track(c Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.conns[c]; ok {
		return
	}
	l.conns[c] = &session{phase: phasePending}
}

// HandleFrame processes one frame received on c, in receipt order for
// that connection. Pending connections get exactly one registration
// attempt; active connections go through the router.
func (l *Lobby) HandleFrame(c Conn, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.conns[c]
	if !ok || s.phase == phaseClosed {
		return
	}

	if s.phase == phasePending {
		l.registerLocked(c, s, data)
		return
	}
	l.routeLocked(c, s, data)
}

// Disconnect funnels every transport-level closure through the registry.
// It is idempotent: a second call for the same connection is a no-op.
func (l *Lobby) Disconnect(c Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unregisterLocked(c)
}

// Snapshot returns a deep copy of the aggregate game state. Callers can
// mutate the result freely without touching the live registry.
func (l *Lobby) Snapshot() protocol.GameState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// ActiveCount returns the number of registered players.
func (l *Lobby) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeCountLocked()
}

// SetStarted flips the aggregate started flag. External collaborators
// (a game loop, an admin surface) use this instead of mutating state
// from their own goroutines.
func (l *Lobby) SetStarted(started bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = started
}

// Announce broadcasts a server notice to every active connection and
// reports how many connections accepted the frame. Recipients whose
// sends fail are reaped during the fan-out and not counted. This is the
// serialized entry point for collaborators that want to push their own
// events through the lobby's fan-out.
func (l *Lobby) Announce(message string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	frame, err := protocol.Encode(protocol.NewAnnouncement(message, l.now()))
	if err != nil {
		log.Printf("Failed to encode announcement: %v", err)
		return 0
	}
	return l.broadcastLocked(frame, nil)
}

// registerLocked evaluates a pending connection's single registration
// attempt. Handshake errors from admitLocked are fatal to the
// connection; this is the only place they are mapped onto wire replies.
func (l *Lobby) registerLocked(c Conn, s *session, data []byte) {
	if err := l.admitLocked(c, s, data); err != nil {
		l.reply(c, protocol.NewError(wireMessage(err)))
		reason := "registration failed"
		if errors.Is(err, ErrBadHandshake) {
			reason = "invalid handshake"
		}
		l.discardLocked(c, s, reason)
	}
}

// admitLocked performs the join_lobby handshake, returning a handshake
// taxonomy error on any outcome other than a valid join with the right
// code and free capacity.
func (l *Lobby) admitLocked(c Conn, s *session, data []byte) error {
	msg, err := protocol.DecodeInbound(data)
	if err != nil || msg.Type != protocol.TypeJoinLobby {
		return ErrBadHandshake
	}

	code := strings.ToUpper(strings.TrimSpace(msg.LobbyCode))
	if code != l.code {
		return ErrInvalidCode
	}

	if l.activeCountLocked() >= l.cfg.MaxPlayers {
		return ErrLobbyFull
	}

	l.seq++
	clientID := fmt.Sprintf("client_%d_%d", l.seq, l.now().Unix())
	name := strings.TrimSpace(msg.PlayerName)
	if name == "" {
		name = fmt.Sprintf("Player_%d", l.seq)
	}

	s.phase = phaseActive
	s.clientID = clientID
	s.name = name
	l.players[clientID] = &protocol.Player{
		Name:     name,
		Score:    0,
		Position: protocol.Position{X: 0, Y: 0},
		JoinedAt: l.now(),
	}

	l.reply(c, protocol.NewWelcome(clientID, name, l.code))

	total := l.activeCountLocked()
	if frame, err := protocol.Encode(protocol.NewPlayerJoined(name, clientID, total)); err == nil {
		l.broadcastLocked(frame, c)
	}

	log.Printf("Client %s (%s) joined the lobby (%d/%d)", clientID, name, total, l.cfg.MaxPlayers)
	return nil
}

// discardLocked removes a connection that never reached ACTIVE and
// closes it with a policy-violation status. No departure broadcast.
func (l *Lobby) discardLocked(c Conn, s *session, reason string) {
	s.phase = phaseClosed
	delete(l.conns, c)
	c.Close(ClosePolicyViolation, reason)
}

// unregisterLocked transitions a connection to CLOSED, removing its
// player state and limiter window. The transport is closed here too, so
// a connection reaped for a failed send does not linger with an open
// socket the lobby will never service again. Broadcasts player_left
// only if the connection had been ACTIVE. Safe to call repeatedly.
func (l *Lobby) unregisterLocked(c Conn) {
	s, ok := l.conns[c]
	if !ok {
		return
	}

	wasActive := s.phase == phaseActive
	s.phase = phaseClosed
	delete(l.conns, c)
	c.Close(CloseNormalClosure, "unregistered")

	if s.clientID != "" {
		delete(l.players, s.clientID)
		l.limiter.Remove(s.clientID)
	}

	if !wasActive {
		return
	}

	total := l.activeCountLocked()
	if frame, err := protocol.Encode(protocol.NewPlayerLeft(s.name, s.clientID, total)); err == nil {
		l.broadcastLocked(frame, nil)
	}
	log.Printf("Client %s (%s) left the lobby (%d/%d)", s.clientID, s.name, total, l.cfg.MaxPlayers)
}

func (l *Lobby) activeCountLocked() int {
	n := 0
	for _, s := range l.conns {
		if s.phase == phaseActive {
			n++
		}
	}
	return n
}

func (l *Lobby) snapshotLocked() protocol.GameState {
	players := make(map[string]protocol.Player, len(l.players))
	for id, p := range l.players {
		players[id] = *p
	}
	return protocol.GameState{Players: players, Started: l.started}
}

// reply sends a frame to one connection. Send failures are ignored here;
// a dead peer is reaped by the next broadcast pass or its read pump.
func (l *Lobby) reply(c Conn, v any) {
	frame, err := protocol.Encode(v)
	if err != nil {
		log.Printf("Failed to encode reply: %v", err)
		return
	}
	c.Send(frame)
}
