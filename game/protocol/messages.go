// Package protocol defines the JSON wire messages exchanged between the
// lobby server and its clients. Every frame is a single UTF-8 JSON object
// with a mandatory "type" field.
package protocol

import (
	"encoding/json"
	"time"
)

// Type identifies a wire message.
type Type string

// Client -> server message types.
const (
	TypeJoinLobby    Type = "join_lobby"
	TypePing         Type = "ping"
	TypeGetGameState Type = "get_game_state"
	TypeChatMessage  Type = "chat_message"
	TypePlayerAction Type = "player_action"
)

// Server -> client message types.
const (
	TypeWelcome        Type = "welcome"
	TypeError          Type = "error"
	TypePlayerJoined   Type = "player_joined"
	TypePlayerLeft     Type = "player_left"
	TypeGameState      Type = "game_state"
	TypePlayerMoved    Type = "player_moved"
	TypePlayerCastLine Type = "player_cast_line"
	TypePong           Type = "pong"
	TypeAnnouncement   Type = "announcement"
)

// Action identifies the sub-kind of a player_action message.
type Action string

const (
	ActionMove       Action = "move"
	ActionCastLine   Action = "cast_line"
	ActionFishCaught Action = "fish_caught"
)

// Position is a 2D point in world coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ActionData carries the payload of a player_action message.
type ActionData struct {
	Action   Action  `json:"action"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FishType string  `json:"fish_type,omitempty"`
}

// Inbound is the decoded form of a client frame. All known client message
// types share this envelope; the Type field selects which other fields are
// meaningful.
type Inbound struct {
	Type       Type        `json:"type"`
	LobbyCode  string      `json:"lobby_code,omitempty"`
	PlayerName string      `json:"player_name,omitempty"`
	Text       string      `json:"text,omitempty"`
	Data       *ActionData `json:"data,omitempty"`
}

// DecodeInbound parses a client frame.
func DecodeInbound(data []byte) (*Inbound, error) {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Player is the per-participant state tracked by the lobby.
type Player struct {
	Name     string    `json:"name"`
	Score    int       `json:"score"`
	Position Position  `json:"position"`
	JoinedAt time.Time `json:"joined_at"`
}

// GameState is the aggregate lobby state returned by get_game_state.
type GameState struct {
	Players map[string]Player `json:"players"`
	Started bool              `json:"started"`
}

// Outbound server messages. Each carries its own Type so it can be
// marshaled directly into a frame.

// Welcome confirms a successful registration.
type Welcome struct {
	Type       Type   `json:"type"`
	ClientID   string `json:"client_id"`
	PlayerName string `json:"player_name"`
	LobbyCode  string `json:"lobby_code"`
}

// Error reports a problem to a single client. It is never broadcast.
type Error struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

// PlayerJoined notifies existing players about a new participant.
type PlayerJoined struct {
	Type         Type   `json:"type"`
	PlayerName   string `json:"player_name"`
	ClientID     string `json:"client_id"`
	TotalPlayers int    `json:"total_players"`
}

// PlayerLeft notifies remaining players about a departure.
type PlayerLeft struct {
	Type         Type   `json:"type"`
	PlayerName   string `json:"player_name"`
	ClientID     string `json:"client_id"`
	TotalPlayers int    `json:"total_players"`
}

// GameStateMessage wraps a state snapshot for the wire.
type GameStateMessage struct {
	Type  Type      `json:"type"`
	State GameState `json:"state"`
}

// ChatMessage is the broadcast form of a chat line.
type ChatMessage struct {
	Type       Type   `json:"type"`
	PlayerName string `json:"player_name"`
	ClientID   string `json:"client_id"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"`
}

// PlayerMoved carries a clamped position update.
type PlayerMoved struct {
	Type     Type     `json:"type"`
	ClientID string   `json:"client_id"`
	Position Position `json:"position"`
}

// PlayerCastLine carries the cast coordinates, verbatim.
type PlayerCastLine struct {
	Type         Type     `json:"type"`
	ClientID     string   `json:"client_id"`
	CastPosition Position `json:"cast_position"`
}

// Pong answers a client ping.
type Pong struct {
	Type Type `json:"type"`
}

// Announcement is a server-originated notice pushed to all players.
type Announcement struct {
	Type      Type   `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

func NewWelcome(clientID, playerName, lobbyCode string) Welcome {
	return Welcome{Type: TypeWelcome, ClientID: clientID, PlayerName: playerName, LobbyCode: lobbyCode}
}

func NewError(message string) Error {
	return Error{Type: TypeError, Message: message}
}

func NewPlayerJoined(playerName, clientID string, total int) PlayerJoined {
	return PlayerJoined{Type: TypePlayerJoined, PlayerName: playerName, ClientID: clientID, TotalPlayers: total}
}

func NewPlayerLeft(playerName, clientID string, total int) PlayerLeft {
	return PlayerLeft{Type: TypePlayerLeft, PlayerName: playerName, ClientID: clientID, TotalPlayers: total}
}

func NewGameState(state GameState) GameStateMessage {
	return GameStateMessage{Type: TypeGameState, State: state}
}

func NewChatMessage(playerName, clientID, text string, ts time.Time) ChatMessage {
	return ChatMessage{Type: TypeChatMessage, PlayerName: playerName, ClientID: clientID, Text: text, Timestamp: ts.Unix()}
}

func NewPlayerMoved(clientID string, pos Position) PlayerMoved {
	return PlayerMoved{Type: TypePlayerMoved, ClientID: clientID, Position: pos}
}

func NewPlayerCastLine(clientID string, pos Position) PlayerCastLine {
	return PlayerCastLine{Type: TypePlayerCastLine, ClientID: clientID, CastPosition: pos}
}

func NewPong() Pong {
	return Pong{Type: TypePong}
}

func NewAnnouncement(message string, ts time.Time) Announcement {
	return Announcement{Type: TypeAnnouncement, Message: message, Timestamp: ts.Unix()}
}

// Encode marshals an outbound message into a frame.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Event is the decoded form of any server frame, used by clients. Like
// Inbound it is a shared envelope selected by Type.
type Event struct {
	Type         Type       `json:"type"`
	Message      string     `json:"message,omitempty"`
	ClientID     string     `json:"client_id,omitempty"`
	PlayerName   string     `json:"player_name,omitempty"`
	LobbyCode    string     `json:"lobby_code,omitempty"`
	TotalPlayers int        `json:"total_players,omitempty"`
	Text         string     `json:"text,omitempty"`
	Timestamp    int64      `json:"timestamp,omitempty"`
	Position     *Position  `json:"position,omitempty"`
	CastPosition *Position  `json:"cast_position,omitempty"`
	State        *GameState `json:"state,omitempty"`
}

// DecodeEvent parses a server frame.
func DecodeEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
