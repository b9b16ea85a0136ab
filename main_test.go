package main

import (
	"testing"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName == "" {
		t.Error("AppName should not be empty")
	}

	expectedAppName := "Castline Lobby Server"
	if AppName != expectedAppName {
		t.Errorf("Expected app name %s, got %s", expectedAppName, AppName)
	}
}

func TestFlagDefaults(t *testing.T) {
	if *port <= 0 || *port > 65535 {
		t.Errorf("Invalid default port: %d", *port)
	}
	if *host == "" {
		t.Error("Host should have a default value")
	}
	if *maxPlayers < 1 {
		t.Errorf("Invalid default player count: %d", *maxPlayers)
	}
}

func TestBuildConfig(t *testing.T) {
	cfg, err := buildConfig()
	if err != nil {
		t.Fatalf("buildConfig with defaults failed: %v", err)
	}
	if cfg.Port != *port {
		t.Errorf("Port = %d, want flag default %d", cfg.Port, *port)
	}
	if cfg.MaxPlayers != *maxPlayers {
		t.Errorf("MaxPlayers = %d, want flag default %d", cfg.MaxPlayers, *maxPlayers)
	}
}

func TestBuildConfig_EnvOverlay(t *testing.T) {
	t.Setenv("LOBBY_MAX_PLAYERS", "4")

	cfg, err := buildConfig()
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}
	if cfg.MaxPlayers != 4 {
		t.Errorf("MaxPlayers = %d, want env value 4", cfg.MaxPlayers)
	}
}

// Note: We can't easily test main(), runHTTPServer(), and
// runStdioMCPWithInternalServer() without significant mocking, as they
// start servers and block. The api and websocket packages cover those
// paths with httptest-backed integration tests.
