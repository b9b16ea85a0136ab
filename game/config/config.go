// Package config holds the lobby server's tunable settings. All values
// are configuration constants, not protocol-negotiated: clients never
// influence capacity, world bounds, or rate limits.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Defaults mirror the original deployment: a two-player lobby on an
// 800x600 world with a 15 messages/second ceiling.
const (
	DefaultHost        = "localhost"
	DefaultPort        = 8765
	DefaultMaxPlayers  = 2
	DefaultWorldWidth  = 800
	DefaultWorldHeight = 600
	DefaultRateLimit   = 15
	DefaultRateWindow  = time.Second
	DefaultMaxChatLen  = 200
)

// Config carries every tunable of the lobby server.
type Config struct {
	Host string
	Port int

	// MaxPlayers bounds the ACTIVE connection count. Nothing in the
	// protocol depends on exactly two participants.
	MaxPlayers int

	// World bounds used to clamp move actions.
	WorldWidth  float64
	WorldHeight float64

	// RateLimit messages per RateWindow per client.
	RateLimit  int
	RateWindow time.Duration

	// MaxChatLen is the chat text ceiling in characters.
	MaxChatLen int
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Host:        DefaultHost,
		Port:        DefaultPort,
		MaxPlayers:  DefaultMaxPlayers,
		WorldWidth:  DefaultWorldWidth,
		WorldHeight: DefaultWorldHeight,
		RateLimit:   DefaultRateLimit,
		RateWindow:  DefaultRateWindow,
		MaxChatLen:  DefaultMaxChatLen,
	}
}

// FromEnv overlays environment variables onto c. Unset or unparsable
// variables leave the current value in place. The .env file loaded by
// main feeds this via the process environment.
func (c Config) FromEnv() Config {
	if v := os.Getenv("LOBBY_HOST"); v != "" {
		c.Host = v
	}
	if n, ok := envInt("LOBBY_PORT"); ok {
		c.Port = n
	}
	if n, ok := envInt("LOBBY_MAX_PLAYERS"); ok {
		c.MaxPlayers = n
	}
	if n, ok := envInt("LOBBY_WORLD_WIDTH"); ok {
		c.WorldWidth = float64(n)
	}
	if n, ok := envInt("LOBBY_WORLD_HEIGHT"); ok {
		c.WorldHeight = float64(n)
	}
	if n, ok := envInt("LOBBY_RATE_LIMIT"); ok {
		c.RateLimit = n
	}
	return c
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.MaxPlayers < 1 {
		return fmt.Errorf("%w: max players must be at least 1, got %d", ErrInvalidConfig, c.MaxPlayers)
	}
	if c.WorldWidth <= 0 || c.WorldHeight <= 0 {
		return fmt.Errorf("%w: world bounds must be positive, got %.0fx%.0f", ErrInvalidConfig, c.WorldWidth, c.WorldHeight)
	}
	if c.RateLimit < 1 {
		return fmt.Errorf("%w: rate limit must be at least 1, got %d", ErrInvalidConfig, c.RateLimit)
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("%w: rate window must be positive, got %s", ErrInvalidConfig, c.RateWindow)
	}
	if c.MaxChatLen < 1 {
		return fmt.Errorf("%w: max chat length must be at least 1, got %d", ErrInvalidConfig, c.MaxChatLen)
	}
	return nil
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
