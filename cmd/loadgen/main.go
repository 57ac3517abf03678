package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// loadgen drives the public ingestion API the way a real game server
// would: start a session, connect players, stream kill events, then
// disconnect everyone and close the match.

type client struct {
	baseURL string
	apiKey  string
	http    *fasthttp.Client
	logger  zerolog.Logger
}

func newClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *client {
	return &client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

func (c *client) post(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.SetBody(body)

	if err := c.http.Do(req, resp); err != nil {
		return err
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode(), resp.Body())
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("%s: malformed response: %w", path, err)
		}
	}
	return nil
}

type syntheticPlayer struct {
	platformID string
	name       string
	faction    string
}

var weaponPool = []string{"M16A2", "AK74", "M21", "SVD", "M249", "PKM", "M9", "PM"}

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "base URL of the ingestion API")
		apiKey   = flag.String("key", os.Getenv("BATTLELOG_API_KEY"), "pre-shared API key")
		sessions = flag.Int("sessions", 1, "number of sessions to simulate")
		players  = flag.Int("players", 12, "players per session")
		kills    = flag.Int("kills", 100, "kill events per session")
		timeout  = flag.Duration("timeout", 10*time.Second, "HTTP request timeout")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	c := newClient(*baseURL, *apiKey, *timeout, logger)

	for i := 0; i < *sessions; i++ {
		if err := runSession(c, *players, *kills); err != nil {
			logger.Fatal().Err(err).Int("session", i).Msg("simulation failed")
		}
	}
	logger.Info().Int("sessions", *sessions).Msg("load generation complete")
}

func runSession(c *client, playerCount, killCount int) error {
	var started struct {
		SessionID int64 `json:"session_id"`
	}
	err := c.post("/api/session/start", map[string]any{
		"server_id":   fmt.Sprintf("loadgen-%d", rand.IntN(1000)),
		"server_name": "Loadgen Server",
		"game_mode":   "Conflict",
		"map_id":      "everon",
	}, &started)
	if err != nil {
		return err
	}
	c.logger.Info().Int64("sessionId", started.SessionID).Msg("session started")

	roster := make([]syntheticPlayer, playerCount)
	for i := range roster {
		faction := "us"
		if i%2 == 1 {
			faction = "ussr"
		}
		roster[i] = syntheticPlayer{
			platformID: fmt.Sprintf("loadgen_%d_%d", started.SessionID, i),
			name:       fmt.Sprintf("LoadBot_%d", i),
			faction:    faction,
		}
		err := c.post("/api/player/connect", map[string]any{
			"session_id":  started.SessionID,
			"platform_id": roster[i].platformID,
			"player_name": roster[i].name,
			"platform":    "steam",
			"faction":     roster[i].faction,
		}, nil)
		if err != nil {
			return err
		}
	}

	for i := 0; i < killCount; i++ {
		killer := roster[rand.IntN(len(roster))]
		victim := roster[rand.IntN(len(roster))]
		err := c.post("/api/event/kill", map[string]any{
			"session_id":     started.SessionID,
			"killer_id":      killer.platformID,
			"killer_name":    killer.name,
			"victim_id":      victim.platformID,
			"victim_name":    victim.name,
			"platform":       "steam",
			"weapon_id":      weaponPool[rand.IntN(len(weaponPool))],
			"distance":       float64(rand.IntN(700)),
			"is_headshot":    rand.IntN(5) == 0,
			"killer_faction": killer.faction,
			"victim_faction": victim.faction,
		}, nil)
		if err != nil {
			return err
		}
	}
	c.logger.Info().Int("kills", killCount).Msg("kill events streamed")

	for _, p := range roster {
		err := c.post("/api/player/disconnect", map[string]any{
			"session_id":  started.SessionID,
			"platform_id": p.platformID,
		}, nil)
		if err != nil {
			return err
		}
	}

	usScore := rand.IntN(1000)
	ussrScore := rand.IntN(1000)
	winner := "us"
	if ussrScore > usScore {
		winner = "ussr"
	}
	var ended struct {
		TotalKills   int `json:"total_kills"`
		TotalPlayers int `json:"total_players"`
	}
	err = c.post("/api/session/end", map[string]any{
		"session_id":     started.SessionID,
		"us_score":       usScore,
		"ussr_score":     ussrScore,
		"winner_faction": winner,
	}, &ended)
	if err != nil {
		return err
	}

	c.logger.Info().
		Int64("sessionId", started.SessionID).
		Str("winner", winner).
		Int("totalKills", ended.TotalKills).
		Int("totalPlayers", ended.TotalPlayers).
		Msg("session ended")
	return nil
}
