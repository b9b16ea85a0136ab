package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config should validate, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"zero players", func(c *Config) { c.MaxPlayers = 0 }},
		{"negative world width", func(c *Config) { c.WorldWidth = -1 }},
		{"zero world height", func(c *Config) { c.WorldHeight = 0 }},
		{"zero rate limit", func(c *Config) { c.RateLimit = 0 }},
		{"zero rate window", func(c *Config) { c.RateWindow = 0 }},
		{"zero chat length", func(c *Config) { c.MaxChatLen = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got: %v", err)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOBBY_MAX_PLAYERS", "4")
	t.Setenv("LOBBY_RATE_LIMIT", "30")
	t.Setenv("LOBBY_PORT", "not-a-number")

	cfg := Default().FromEnv()
	if cfg.MaxPlayers != 4 {
		t.Errorf("Expected MaxPlayers 4, got %d", cfg.MaxPlayers)
	}
	if cfg.RateLimit != 30 {
		t.Errorf("Expected RateLimit 30, got %d", cfg.RateLimit)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Unparsable LOBBY_PORT should keep the default, got %d", cfg.Port)
	}
	if cfg.RateWindow != time.Second {
		t.Errorf("Untouched fields should keep defaults, got %s", cfg.RateWindow)
	}
}

func TestAddr(t *testing.T) {
	cfg := Default()
	if cfg.Addr() != "localhost:8765" {
		t.Errorf("Unexpected addr: %s", cfg.Addr())
	}
}
