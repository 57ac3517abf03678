package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"reforger-battlelog/internal/config"
	"reforger-battlelog/internal/database"
	"reforger-battlelog/internal/repository"
	"reforger-battlelog/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-key"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := zerolog.Nop()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "test.db"), APIKey: testAPIKey, DemoMode: true}
	db, err := database.New(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	players := repository.NewPlayerRepository(db, log)
	sessions := repository.NewSessionRepository(db, log)
	participations := repository.NewParticipationRepository(db, log)
	killEvents := repository.NewKillEventRepository(db, log)
	itemStats := repository.NewItemStatsRepository(db, log)
	achievements := repository.NewAchievementRepository(db, log)
	leaderboards := repository.NewLeaderboardRepository(db, log)
	catalog := repository.NewCatalogRepository(db, log)

	achievementSvc := service.NewAchievementService(achievements, players, log)
	sessionSvc := service.NewSessionService(sessions, participations, players, catalog, achievementSvc, log)
	recorder := service.NewRecorderService(sessions, participations, players, killEvents, itemStats, catalog, sessionSvc, achievementSvc, log)
	leaderboard := service.NewLeaderboardService(players, leaderboards, log)
	stats := service.NewStatsService(players, sessions, participations, killEvents, itemStats, achievements, catalog, log)
	demo := service.NewDemoService(cfg, players, catalog, itemStats, sessionSvc, recorder, leaderboard, log)

	battlelog := NewBattlelogServer(sessionSvc, recorder, stats, leaderboard, demo, log)
	srv := httptest.NewServer(battlelog.Routes(cfg))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, apiKey string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestIngestRequiresAPIKey(t *testing.T) {
	srv := newTestServer(t)

	resp, body := post(t, srv, "/api/session/start", "", map[string]any{"server_id": "srv-1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid API key", body["error"])

	resp, _ = post(t, srv, "/api/session/start", "wrong", map[string]any{"server_id": "srv-1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	resp, body := post(t, srv, "/api/session/start", testAPIKey, map[string]any{
		"server_id": "srv-1",
		"map_id":    "everon",
		"game_mode": "Conflict",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sessionID := body["session_id"].(float64)

	resp, _ = post(t, srv, "/api/session/heartbeat", testAPIKey, map[string]any{"session_id": sessionID})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for i, platformID := range []string{"h-1", "h-2"} {
		faction := []string{"us", "ussr"}[i]
		resp, _ = post(t, srv, "/api/player/connect", testAPIKey, map[string]any{
			"session_id":  sessionID,
			"platform_id": platformID,
			"player_name": platformID,
			"platform":    "steam",
			"faction":     faction,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body = post(t, srv, "/api/event/kill", testAPIKey, map[string]any{
		"session_id":  sessionID,
		"killer_id":   "h-1",
		"victim_id":   "h-2",
		"victim_name": "h-2",
		"weapon_id":   "M16A2",
		"distance":    600,
		"is_headshot": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["event_id"])
	assert.Equal(t, false, body["is_suicide"])

	resp, body = post(t, srv, "/api/session/end", testAPIKey, map[string]any{
		"session_id":     sessionID,
		"us_score":       700,
		"ussr_score":     300,
		"winner_faction": "us",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total_kills"])
	assert.Equal(t, float64(2), body["total_players"])

	resp, report := get(t, srv, "/api/session/"+strconv.FormatInt(int64(sessionID), 10)+"/report")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Everon", report["map_name"])
	require.NotNil(t, report["mvp"])
}

func TestBatchOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	_, body := post(t, srv, "/api/session/start", testAPIKey, map[string]any{"server_id": "srv-1"})
	sessionID := body["session_id"].(float64)

	resp, result := post(t, srv, "/api/events/batch", testAPIKey, map[string]any{
		"session_id": sessionID,
		"events": []map[string]any{
			{"type": "objective"},
			{"type": "time_travel"},
			{"type": "capture"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), result["processed"])
	assert.Equal(t, float64(3), result["total"])
	errs := result["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].(string), "time_travel")
}

func TestErrorStatusMapping(t *testing.T) {
	srv := newTestServer(t)

	// unknown session
	resp, _ := post(t, srv, "/api/session/end", testAPIKey, map[string]any{"session_id": 999})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// missing required field
	resp, _ = post(t, srv, "/api/session/start", testAPIKey, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// unknown player projection
	resp, _ = get(t, srv, "/api/player/nobody/stats")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// unknown leaderboard category
	resp, _ = get(t, srv, "/api/leaderboard/charm")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReadRoutesNeedNoKey(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := get(t, srv, "/api/stats/global")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, srv, "/api/leaderboard/kills")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDemoEndpointsOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	resp, body := post(t, srv, "/api/demo/generate-player", testAPIKey, map[string]any{"count": 5})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(5), body["created"])

	resp, body = post(t, srv, "/api/demo/generate-session", testAPIKey, map[string]any{"sessions": 1, "players": 4})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(1), body["created"])
}
