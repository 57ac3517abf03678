package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"reforger-battlelog/internal/config"
	"reforger-battlelog/internal/middleware"
	"reforger-battlelog/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// BattlelogServer is the HTTP boundary: JSON in, JSON out. Ingest
// routes sit behind the API-key middleware; read routes are public.
type BattlelogServer struct {
	sessions    *service.SessionService
	recorder    *service.RecorderService
	stats       *service.StatsService
	leaderboard *service.LeaderboardService
	demo        *service.DemoService
	logger      zerolog.Logger
}

func NewBattlelogServer(
	sessions *service.SessionService,
	recorder *service.RecorderService,
	stats *service.StatsService,
	leaderboard *service.LeaderboardService,
	demo *service.DemoService,
	logger zerolog.Logger,
) *BattlelogServer {
	return &BattlelogServer{
		sessions:    sessions,
		recorder:    recorder,
		stats:       stats,
		leaderboard: leaderboard,
		demo:        demo,
		logger:      logger,
	}
}

func (s *BattlelogServer) Routes(cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.APIKey(cfg.APIKey, s.logger)

	ingest := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, auth(h))
	}

	ingest("POST /api/session/start", s.handleSessionStart)
	ingest("POST /api/session/end", s.handleSessionEnd)
	ingest("POST /api/session/heartbeat", s.handleHeartbeat)
	ingest("POST /api/player/connect", s.handleConnect)
	ingest("POST /api/player/disconnect", s.handleDisconnect)
	ingest("POST /api/player/spawn", s.handleAck("spawn"))
	ingest("POST /api/event/kill", s.handleKill)
	ingest("POST /api/event/death", s.handleKill)
	ingest("POST /api/event/damage", s.handleAck("damage"))
	ingest("POST /api/event/objective", s.handleAck("objective"))
	ingest("POST /api/event/capture", s.handleAck("capture"))
	ingest("POST /api/event/vehicle/enter", s.handleAck("vehicle_enter"))
	ingest("POST /api/event/vehicle/exit", s.handleAck("vehicle_exit"))
	ingest("POST /api/event/vehicle/destroy", s.handleAck("vehicle_destroy"))
	ingest("POST /api/events/batch", s.handleBatch)
	ingest("POST /api/demo/generate-player", s.handleDemoPlayers)
	ingest("POST /api/demo/generate-session", s.handleDemoSessions)

	mux.HandleFunc("GET /api/stats/global", s.handleGlobalStats)
	mux.HandleFunc("GET /api/player/{platformId}/stats", s.handlePlayerStats)
	mux.HandleFunc("GET /api/leaderboard/{category}", s.handleLeaderboard)
	mux.HandleFunc("GET /api/session/{id}/report", s.handleBattleReport)

	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (s *BattlelogServer) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *BattlelogServer) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotActive):
		status = http.StatusConflict
	case errors.Is(err, service.ErrDemoDisabled):
		status = http.StatusForbidden
	default:
		status = http.StatusInternalServerError
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *BattlelogServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed JSON body"})
		return false
	}
	return true
}
