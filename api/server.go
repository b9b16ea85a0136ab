package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/castline/castline/game/lobby"
	"github.com/castline/castline/transport/websocket"
)

// Server represents the HTTP server for the lobby.
type Server struct {
	lobby     *lobby.Lobby
	hub       *websocket.Hub
	router    *mux.Router
	startedAt time.Time
}

// NewServer creates a new API server around a lobby and its hub.
func NewServer(l *lobby.Lobby, hub *websocket.Hub) *Server {
	s := &Server{
		lobby:     l,
		hub:       hub,
		router:    mux.NewRouter(),
		startedAt: time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/state", s.handleState).Methods("GET")
	api.HandleFunc("/announce", s.handleAnnounce).Methods("POST")

	// WebSocket
	s.router.HandleFunc("/ws", s.hub.ServeWS)

	// Health check
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// StatusResponse describes the lobby for GET /api/status.
type StatusResponse struct {
	LobbyCode     string `json:"lobby_code"`
	Players       int    `json:"players"`
	MaxPlayers    int    `json:"max_players"`
	Started       bool   `json:"started"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state := s.lobby.Snapshot()
	respondJSON(w, http.StatusOK, StatusResponse{
		LobbyCode:     s.lobby.Code(),
		Players:       len(state.Players),
		MaxPlayers:    s.lobby.Config().MaxPlayers,
		Started:       state.Started,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.lobby.Snapshot())
}

func (s *Server) handleAnnounce(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "Message is required")
		return
	}

	delivered := s.lobby.Announce(req.Message)
	log.Printf("[ANNOUNCE] delivered=%d message=%q", delivered, req.Message)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Announcement sent",
		"delivered": delivered,
	})
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
