package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	worldWidth        = 800
	worldHeight       = 600
	headerHeight      = 40
	chatHeight        = 80
	screenWidth       = worldWidth
	screenHeight      = headerHeight + worldHeight + chatHeight
	moveStep          = 10
	animationDuration = 150 * time.Millisecond
	castMarkerTTL     = 5 * time.Second
	catchChance       = 0.05 // per second with the line in the water
)

// ScreenType represents different screens in the app
type ScreenType int

const (
	ScreenJoin ScreenType = iota
	ScreenGame
)

// Player colors, assigned in join order.
var playerColors = []color.RGBA{
	{255, 100, 100, 255}, // Red
	{100, 100, 255, 255}, // Blue
	{100, 255, 100, 255}, // Green
	{255, 255, 100, 255}, // Yellow
}

// Fish rarities, most common first. The letter is what travels on the
// wire; the label is for the catch log.
var fishKinds = []string{"a", "b", "c", "d", "e", "f", "g"}
var fishWeights = []float64{0.40, 0.20, 0.15, 0.12, 0.08, 0.03, 0.02}

// Position represents a point in world coordinates
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlayerState is the per-player data tracked locally
type PlayerState struct {
	Name      string
	Score     int
	Pos       Position
	PrevPos   Position
	TargetPos Position
	MoveStart time.Time
}

// CastMarker shows where a line hit the water
type CastMarker struct {
	Pos      Position
	PlacedAt time.Time
	ClientID string
}

// ServerEvent is the envelope for every frame the server pushes
type ServerEvent struct {
	Type         string    `json:"type"`
	Message      string    `json:"message,omitempty"`
	ClientID     string    `json:"client_id,omitempty"`
	PlayerName   string    `json:"player_name,omitempty"`
	LobbyCode    string    `json:"lobby_code,omitempty"`
	TotalPlayers int       `json:"total_players,omitempty"`
	Text         string    `json:"text,omitempty"`
	Position     *Position `json:"position,omitempty"`
	CastPosition *Position `json:"cast_position,omitempty"`
	State        *struct {
		Players map[string]struct {
			Name     string   `json:"name"`
			Score    int      `json:"score"`
			Position Position `json:"position"`
		} `json:"players"`
	} `json:"state,omitempty"`
}

// Game represents the desktop lobby client
type Game struct {
	serverURL string
	conn      *websocket.Conn
	writeMu   sync.Mutex

	stateMutex    sync.RWMutex
	currentScreen ScreenType

	// Join screen state
	codeInput  string
	playerName string
	joinErr    string
	joining    bool

	// Lobby state
	clientID  string
	lobbyCode string
	players   map[string]*PlayerState
	joinOrder []string
	casts     []CastMarker
	chatLog   []string

	// Fishing state: set while our line is in the water
	fishing      bool
	lastBiteRoll time.Time
	excitedUntil time.Time
	rng          *rand.Rand
}

// NewGame creates a new client instance
func NewGame(serverURL, code, name string) *Game {
	g := &Game{
		serverURL:     serverURL,
		currentScreen: ScreenJoin,
		codeInput:     strings.ToUpper(strings.TrimSpace(code)),
		playerName:    name,
		players:       make(map[string]*PlayerState),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	// A code on the command line skips the join screen
	if g.codeInput != "" {
		g.join()
	}
	return g
}

// join dials the server and performs the registration handshake
func (g *Game) join() {
	g.joining = true
	g.joinErr = ""

	conn, _, err := websocket.DefaultDialer.Dial(g.serverURL, nil)
	if err != nil {
		g.joinErr = fmt.Sprintf("connect failed: %v", err)
		g.joining = false
		return
	}

	joinMsg := map[string]string{
		"type":        "join_lobby",
		"lobby_code":  g.codeInput,
		"player_name": g.playerName,
	}
	if err := conn.WriteJSON(joinMsg); err != nil {
		g.joinErr = fmt.Sprintf("send failed: %v", err)
		conn.Close()
		g.joining = false
		return
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		g.joinErr = fmt.Sprintf("read failed: %v", err)
		conn.Close()
		g.joining = false
		return
	}

	var ev ServerEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.Type != "welcome" {
		if ev.Type == "error" {
			g.joinErr = ev.Message
		} else {
			g.joinErr = "unexpected server response"
		}
		conn.Close()
		g.joining = false
		return
	}

	g.conn = conn
	g.clientID = ev.ClientID
	g.lobbyCode = ev.LobbyCode
	g.addPlayer(ev.ClientID, ev.PlayerName, Position{X: worldWidth / 2, Y: worldHeight / 2})
	g.currentScreen = ScreenGame
	g.joining = false

	go g.listen()
	g.send(map[string]string{"type": "get_game_state"})
}

// addPlayer registers a player locally, preserving join order for colors
func (g *Game) addPlayer(id, name string, pos Position) {
	g.stateMutex.Lock()
	defer g.stateMutex.Unlock()
	if _, ok := g.players[id]; ok {
		return
	}
	g.players[id] = &PlayerState{Name: name, Pos: pos, PrevPos: pos, TargetPos: pos}
	g.joinOrder = append(g.joinOrder, id)
}

// listen consumes server frames until the connection drops
func (g *Game) listen() {
	defer g.conn.Close()

	for {
		_, data, err := g.conn.ReadMessage()
		if err != nil {
			log.Printf("connection lost: %v", err)
			g.stateMutex.Lock()
			g.chatLog = append(g.chatLog, "* connection lost")
			g.stateMutex.Unlock()
			return
		}

		var ev ServerEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Printf("bad frame: %v", err)
			continue
		}
		g.handleEvent(&ev)
	}
}

func (g *Game) handleEvent(ev *ServerEvent) {
	switch ev.Type {
	case "player_joined":
		g.addPlayer(ev.ClientID, ev.PlayerName, Position{X: worldWidth / 2, Y: worldHeight / 2})
		g.appendChat(fmt.Sprintf("* %s joined (%d players)", ev.PlayerName, ev.TotalPlayers))

	case "player_left":
		g.stateMutex.Lock()
		delete(g.players, ev.ClientID)
		for i, id := range g.joinOrder {
			if id == ev.ClientID {
				g.joinOrder = append(g.joinOrder[:i], g.joinOrder[i+1:]...)
				break
			}
		}
		g.stateMutex.Unlock()
		g.appendChat(fmt.Sprintf("* %s left", ev.PlayerName))

	case "player_moved":
		if ev.Position == nil {
			return
		}
		g.stateMutex.Lock()
		if p, ok := g.players[ev.ClientID]; ok {
			p.PrevPos = p.Pos
			p.TargetPos = *ev.Position
			p.MoveStart = time.Now()
		}
		g.stateMutex.Unlock()

	case "player_cast_line":
		if ev.CastPosition == nil {
			return
		}
		g.stateMutex.Lock()
		g.casts = append(g.casts, CastMarker{Pos: *ev.CastPosition, PlacedAt: time.Now(), ClientID: ev.ClientID})
		g.stateMutex.Unlock()

	case "chat_message":
		g.appendChat(fmt.Sprintf("%s: %s", ev.PlayerName, ev.Text))

	case "announcement":
		g.appendChat(fmt.Sprintf("* SERVER: %s", ev.Message))

	case "game_state":
		if ev.State == nil {
			return
		}
		for id, p := range ev.State.Players {
			g.addPlayer(id, p.Name, p.Position)
			g.stateMutex.Lock()
			g.players[id].Score = p.Score
			g.stateMutex.Unlock()
		}

	case "error":
		g.appendChat(fmt.Sprintf("* error: %s", ev.Message))
	}
}

func (g *Game) appendChat(line string) {
	g.stateMutex.Lock()
	defer g.stateMutex.Unlock()
	g.chatLog = append(g.chatLog, line)
	if len(g.chatLog) > 5 {
		g.chatLog = g.chatLog[len(g.chatLog)-5:]
	}
}

// send writes a frame; the write mutex keeps the pump goroutine and the
// input handler from interleaving writes
func (g *Game) send(v interface{}) {
	if g.conn == nil {
		return
	}
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	if err := g.conn.WriteJSON(v); err != nil {
		log.Printf("send failed: %v", err)
	}
}

// Update updates game logic
func (g *Game) Update() error {
	switch g.currentScreen {
	case ScreenJoin:
		return g.updateJoinScreen()
	case ScreenGame:
		return g.updateGameScreen()
	}
	return nil
}

// updateJoinScreen handles lobby code entry
func (g *Game) updateJoinScreen() error {
	for _, r := range ebiten.AppendInputChars(nil) {
		if len(g.codeInput) < 6 {
			g.codeInput += strings.ToUpper(string(r))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(g.codeInput) > 0 {
		g.codeInput = g.codeInput[:len(g.codeInput)-1]
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) && len(g.codeInput) == 6 && !g.joining {
		g.join()
	}
	return nil
}

// updateGameScreen handles movement, casting and fishing
func (g *Game) updateGameScreen() error {
	me := g.myPlayer()
	if me == nil {
		return nil
	}

	// Movement: arrows or WASD, one step per press
	dx, dy := 0.0, 0.0
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) || inpututil.IsKeyJustPressed(ebiten.KeyA) {
		dx = -moveStep
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) || inpututil.IsKeyJustPressed(ebiten.KeyD) {
		dx = moveStep
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) || inpututil.IsKeyJustPressed(ebiten.KeyW) {
		dy = -moveStep
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) || inpututil.IsKeyJustPressed(ebiten.KeyS) {
		dy = moveStep
	}
	if dx != 0 || dy != 0 {
		x := clamp(me.TargetPos.X+dx, 0, worldWidth)
		y := clamp(me.TargetPos.Y+dy, 0, worldHeight)
		g.send(map[string]interface{}{
			"type": "player_action",
			"data": map[string]interface{}{"action": "move", "x": x, "y": y},
		})
		g.fishing = false
	}

	// Space casts the line a little ahead of the player
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		x := clamp(me.TargetPos.X+30, 0, worldWidth)
		y := clamp(me.TargetPos.Y+40, 0, worldHeight)
		g.send(map[string]interface{}{
			"type": "player_action",
			"data": map[string]interface{}{"action": "cast_line", "x": x, "y": y},
		})
		g.fishing = true
		g.lastBiteRoll = time.Now()
	}

	// Number keys send canned chat lines
	cannedChats := map[ebiten.Key]string{
		ebiten.Key1: "Nice catch!",
		ebiten.Key2: "Nothing biting over here.",
		ebiten.Key3: "Heading to the other bank.",
	}
	for key, text := range cannedChats {
		if inpututil.IsKeyJustPressed(key) {
			g.send(map[string]string{"type": "chat_message", "text": text})
		}
	}

	// Fishing: one bite roll per second while the line is in the water
	if g.fishing && time.Since(g.lastBiteRoll) >= time.Second {
		g.lastBiteRoll = time.Now()
		if g.rng.Float64() < catchChance {
			kind := drawFish(g.rng)
			g.excitedUntil = time.Now().Add(2 * time.Second)
			g.appendChat(fmt.Sprintf("* you caught a %q fish!", kind))
			g.send(map[string]interface{}{
				"type": "player_action",
				"data": map[string]interface{}{"action": "fish_caught", "fish_type": kind},
			})
		}
	}

	// Drop expired cast markers
	g.stateMutex.Lock()
	kept := g.casts[:0]
	for _, c := range g.casts {
		if time.Since(c.PlacedAt) < castMarkerTTL {
			kept = append(kept, c)
		}
	}
	g.casts = kept
	g.stateMutex.Unlock()

	return nil
}

func (g *Game) myPlayer() *PlayerState {
	g.stateMutex.RLock()
	defer g.stateMutex.RUnlock()
	return g.players[g.clientID]
}

// drawFish picks a fish kind according to the rarity weights
func drawFish(rng *rand.Rand) string {
	roll := rng.Float64()
	acc := 0.0
	for i, w := range fishWeights {
		acc += w
		if roll < acc {
			return fishKinds[i]
		}
	}
	return fishKinds[len(fishKinds)-1]
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Draw renders the current screen
func (g *Game) Draw(screen *ebiten.Image) {
	switch g.currentScreen {
	case ScreenJoin:
		g.drawJoinScreen(screen)
	case ScreenGame:
		g.drawGameScreen(screen)
	}
}

func (g *Game) drawJoinScreen(screen *ebiten.Image) {
	y := 200
	ebitenutil.DebugPrintAt(screen, "=== CASTLINE - JOIN LOBBY ===", 280, y)
	y += 40
	ebitenutil.DebugPrintAt(screen, "Enter the 6-character lobby code printed by the server:", 200, y)
	y += 30
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("  CODE: %s_", g.codeInput), 200, y)
	y += 40
	if g.joining {
		ebitenutil.DebugPrintAt(screen, "Joining...", 200, y)
	} else if g.joinErr != "" {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("ERROR: %s", g.joinErr), 200, y)
	}
	y += 40
	ebitenutil.DebugPrintAt(screen, "ENTER - join   BACKSPACE - edit", 200, y)
}

func (g *Game) drawGameScreen(screen *ebiten.Image) {
	g.stateMutex.RLock()
	defer g.stateMutex.RUnlock()

	// Water
	ebitenutil.DrawRect(screen, 0, headerHeight, worldWidth, worldHeight, color.RGBA{20, 60, 110, 255})

	// Cast markers
	for _, c := range g.casts {
		x := c.Pos.X
		y := headerHeight + c.Pos.Y
		ebitenutil.DrawLine(screen, x-4, y-4, x+4, y+4, color.RGBA{230, 230, 230, 255})
		ebitenutil.DrawLine(screen, x-4, y+4, x+4, y-4, color.RGBA{230, 230, 230, 255})
	}

	// Players, animated toward their target positions
	for i, id := range g.joinOrder {
		p, ok := g.players[id]
		if !ok {
			continue
		}
		pos := animatedPos(p)
		c := playerColors[i%len(playerColors)]
		ebitenutil.DrawRect(screen, pos.X-8, headerHeight+pos.Y-8, 16, 16, c)

		label := p.Name
		if id == g.clientID {
			label += " (you)"
			if time.Now().Before(g.excitedUntil) {
				ebitenutil.DebugPrintAt(screen, "!", int(pos.X)-2, headerHeight+int(pos.Y)-30)
			}
		}
		ebitenutil.DebugPrintAt(screen, label, int(pos.X)-20, headerHeight+int(pos.Y)+12)
	}

	// Header
	ebitenutil.DrawRect(screen, 0, 0, screenWidth, headerHeight, color.RGBA{15, 15, 25, 255})
	header := fmt.Sprintf("Lobby %s | %d player(s)", g.lobbyCode, len(g.players))
	if me, ok := g.players[g.clientID]; ok {
		header += fmt.Sprintf(" | score %d", me.Score)
	}
	if g.fishing {
		header += " | line in the water..."
	}
	ebitenutil.DebugPrintAt(screen, header, 10, 12)

	// Chat panel
	chatTop := headerHeight + worldHeight
	ebitenutil.DrawRect(screen, 0, float64(chatTop), screenWidth, chatHeight, color.RGBA{15, 15, 25, 255})
	for i, line := range g.chatLog {
		ebitenutil.DebugPrintAt(screen, line, 10, chatTop+4+i*14)
	}
	ebitenutil.DebugPrintAt(screen, "Arrows/WASD: move | SPACE: cast | 1-3: chat", 10, screenHeight-16)
}

// animatedPos interpolates a player's drawn position toward its target
func animatedPos(p *PlayerState) Position {
	elapsed := time.Since(p.MoveStart)
	if elapsed >= animationDuration {
		p.Pos = p.TargetPos
		return p.Pos
	}
	t := float64(elapsed) / float64(animationDuration)
	p.Pos = Position{
		X: p.PrevPos.X + (p.TargetPos.X-p.PrevPos.X)*t,
		Y: p.PrevPos.Y + (p.TargetPos.Y-p.PrevPos.Y)*t,
	}
	return p.Pos
}

// Layout implements ebiten.Game
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	server := flag.String("server", "ws://localhost:8765/ws", "WebSocket URL of the lobby server")
	code := flag.String("code", os.Getenv("LOBBY_CODE"), "Lobby code (skips the join screen)")
	name := flag.String("name", "", "Player name")
	flag.Parse()

	game := NewGame(*server, *code, *name)

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Castline")
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
