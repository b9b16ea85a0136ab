// Command lobbyctl is an operator tool for a running lobby server. It
// probes the join handshake and rate limiter, runs scripted sessions
// for smoke testing, and prints the fishing odds table used by game
// clients.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/castline/castline/client"
	"github.com/castline/castline/game/fishing"
	"github.com/castline/castline/game/protocol"
)

func main() {
	cmd := &cli.Command{
		Name:  "lobbyctl",
		Usage: "inspect and exercise a running lobby server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Value: "http://localhost:8765",
				Usage: "base URL of the lobby server",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "print the lobby status from the REST API",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStatus(cmd.String("server"))
				},
			},
			{
				Name:  "probe",
				Usage: "verify handshake, rejection and rate-limit behavior",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "code",
						Usage:    "lobby code printed by the server",
						Required: true,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runProbe(ctx, cmd.String("server"), cmd.String("code"))
				},
			},
			{
				Name:  "script",
				Usage: "join and run a short scripted session (chat, move, cast)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "code",
						Usage:    "lobby code printed by the server",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Value: "lobbyctl",
						Usage: "player name to join as",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runScript(ctx, cmd.String("server"), cmd.String("code"), cmd.String("name"))
				},
			},
			{
				Name:  "odds",
				Usage: "print the fishing odds table and a simulated session",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "casts",
						Value: 10000,
						Usage: "number of catches to simulate",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runOdds(int(cmd.Int("casts")))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func wsURL(server string) string {
	return "ws" + strings.TrimPrefix(server, "http") + "/ws"
}

func runStatus(server string) error {
	resp, err := http.Get(server + "/api/status")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var status struct {
		LobbyCode     string `json:"lobby_code"`
		Players       int    `json:"players"`
		MaxPlayers    int    `json:"max_players"`
		Started       bool   `json:"started"`
		UptimeSeconds int64  `json:"uptime_seconds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return err
	}

	fmt.Printf("Lobby:    %s\n", status.LobbyCode)
	fmt.Printf("Players:  %d/%d\n", status.Players, status.MaxPlayers)
	fmt.Printf("Started:  %t\n", status.Started)
	fmt.Printf("Uptime:   %s\n", time.Duration(status.UptimeSeconds)*time.Second)
	return nil
}

// runProbe checks the behaviors an operator most often needs to verify
// after a deploy: wrong codes are rejected, good codes are welcomed,
// and the rate limiter pushes back.
func runProbe(ctx context.Context, server, code string) error {
	url := wsURL(server)

	fmt.Println("1. wrong code is rejected")
	bad, err := client.Dial(ctx, url)
	if err != nil {
		return err
	}
	if err := bad.Join("XXXXXX", "probe"); err == nil {
		bad.Close()
		return fmt.Errorf("server accepted a bogus lobby code")
	} else {
		fmt.Printf("   rejected as expected: %v\n", err)
	}

	fmt.Println("2. correct code is welcomed")
	good, err := client.Dial(ctx, url)
	if err != nil {
		return err
	}
	defer good.Close()
	if err := good.Join(code, "probe"); err != nil {
		return fmt.Errorf("join with correct code failed: %w", err)
	}
	fmt.Printf("   joined as %s\n", good.ClientID)

	fmt.Println("3. rate limiter pushes back")
	for i := 0; i < 30; i++ {
		if err := good.Ping(); err != nil {
			return err
		}
	}
	limited := false
	deadline := time.After(2 * time.Second)
	for !limited {
		select {
		case ev, ok := <-good.Events():
			if !ok {
				return fmt.Errorf("connection dropped while waiting for rate limit: %v", good.Err())
			}
			if ev.Type == protocol.TypeError && strings.Contains(ev.Message, "Rate limit") {
				fmt.Printf("   limited as expected: %s\n", ev.Message)
				limited = true
			}
		case <-deadline:
			return fmt.Errorf("no rate limit error after 30 rapid pings")
		}
	}

	fmt.Println("probe passed")
	return nil
}

func runScript(ctx context.Context, server, code, name string) error {
	c, err := client.Dial(ctx, wsURL(server))
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Join(code, name); err != nil {
		return err
	}
	fmt.Printf("joined as %s (%s)\n", c.PlayerName, c.ClientID)

	// Log everything the server pushes while the script runs.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range c.Events() {
			fmt.Printf("<- %s %s\n", ev.Type, describeEvent(ev))
		}
	}()

	steps := []struct {
		desc string
		run  func() error
	}{
		{"chat", func() error { return c.SendChat("scripted session starting") }},
		{"move", func() error { return c.Move(400, 300) }},
		{"cast", func() error { return c.CastLine(450, 350) }},
		{"state", func() error { return c.RequestGameState() }},
		{"ping", func() error { return c.Ping() }},
	}
	for _, step := range steps {
		fmt.Printf("-> %s\n", step.desc)
		if err := step.run(); err != nil {
			return fmt.Errorf("%s: %w", step.desc, err)
		}
		time.Sleep(200 * time.Millisecond)
	}

	time.Sleep(500 * time.Millisecond)
	c.Close()
	<-done
	return nil
}

func describeEvent(ev protocol.Event) string {
	switch ev.Type {
	case protocol.TypeChatMessage:
		return fmt.Sprintf("%s: %s", ev.PlayerName, ev.Text)
	case protocol.TypePlayerMoved:
		if ev.Position != nil {
			return fmt.Sprintf("to (%.0f, %.0f)", ev.Position.X, ev.Position.Y)
		}
	case protocol.TypePlayerCastLine:
		if ev.CastPosition != nil {
			return fmt.Sprintf("at (%.0f, %.0f)", ev.CastPosition.X, ev.CastPosition.Y)
		}
	case protocol.TypeGameState:
		if ev.State != nil {
			return fmt.Sprintf("%d player(s)", len(ev.State.Players))
		}
	case protocol.TypeError:
		return ev.Message
	}
	return ""
}

func runOdds(casts int) error {
	fmt.Println("fishing odds:")
	for i, kind := range fishing.Kinds {
		fmt.Printf("  %-12s %5.1f%%\n", kind, fishing.Weights[i]*100)
	}

	rng := fishing.NewRNG()
	tally := fishing.SimulateCatches(rng, casts)
	fmt.Printf("\nsimulated %d catches:\n%s", casts, fishing.FormatTally(tally))
	return nil
}
