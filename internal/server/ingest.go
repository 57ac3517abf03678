package server

import (
	"net/http"

	"reforger-battlelog/internal/metrics"
	"reforger-battlelog/internal/service"
)

type sessionStartRequest struct {
	ServerID   string `json:"server_id"`
	ServerName string `json:"server_name"`
	MapID      string `json:"map_id"`
	ScenarioID string `json:"scenario_id"`
	GameMode   string `json:"game_mode"`
}

func (s *BattlelogServer) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req sessionStartRequest
	if !s.decode(w, r, &req) {
		return
	}

	session, err := s.sessions.Start(r.Context(), service.StartSessionInput{
		ServerID:      req.ServerID,
		ServerName:    req.ServerName,
		MapInternalID: req.MapID,
		ScenarioID:    req.ScenarioID,
		GameMode:      req.GameMode,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"session_id": session.ID})
}

type sessionEndRequest struct {
	SessionID     int64  `json:"session_id"`
	USScore       int    `json:"us_score"`
	USSRScore     int    `json:"ussr_score"`
	WinnerFaction string `json:"winner_faction"`
}

func (s *BattlelogServer) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	var req sessionEndRequest
	if !s.decode(w, r, &req) {
		return
	}

	session, err := s.sessions.End(r.Context(), req.SessionID, req.USScore, req.USSRScore, req.WinnerFaction)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"session_id":     session.ID,
		"winner_faction": session.WinnerFaction,
		"total_kills":    session.TotalKills,
		"total_players":  session.TotalPlayers,
	})
}

type heartbeatRequest struct {
	SessionID int64 `json:"session_id"`
}

func (s *BattlelogServer) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.sessions.Heartbeat(r.Context(), req.SessionID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type connectRequest struct {
	SessionID  int64  `json:"session_id"`
	PlatformID string `json:"platform_id"`
	PlayerName string `json:"player_name"`
	Platform   string `json:"platform"`
	Faction    string `json:"faction"`
}

func (s *BattlelogServer) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !s.decode(w, r, &req) {
		return
	}

	pt, err := s.sessions.Connect(r.Context(), req.SessionID, req.PlatformID, req.PlayerName, req.Platform, req.Faction)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"participation_id": pt.ID,
		"player_id":        pt.PlayerID,
		"faction":          pt.Faction,
	})
}

type disconnectRequest struct {
	SessionID  int64                        `json:"session_id"`
	PlatformID string                       `json:"platform_id"`
	Stats      service.DisconnectStatsInput `json:"stats"`
}

func (s *BattlelogServer) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	var req disconnectRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.sessions.Disconnect(r.Context(), req.SessionID, req.PlatformID, req.Stats.ToStats()); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAck builds the handler for event types that are accepted but
// carry no state change yet.
func (s *BattlelogServer) handleAck(eventType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.EventsIngested.WithLabelValues(eventType).Inc()
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type killRequest struct {
	SessionID int64 `json:"session_id"`
	service.KillInput
}

func (s *BattlelogServer) handleKill(w http.ResponseWriter, r *http.Request) {
	var req killRequest
	if !s.decode(w, r, &req) {
		return
	}

	ev, err := s.recorder.RecordKill(r.Context(), req.SessionID, req.KillInput)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{
		"event_id":   ev.ID,
		"is_suicide": ev.IsSuicide,
	})
}

type batchRequest struct {
	SessionID int64                `json:"session_id"`
	Events    []service.BatchEvent `json:"events"`
}

func (s *BattlelogServer) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !s.decode(w, r, &req) {
		return
	}

	result := s.recorder.RecordBatch(r.Context(), req.SessionID, req.Events)
	s.respondJSON(w, http.StatusOK, result)
}

type demoPlayersRequest struct {
	Count int `json:"count"`
}

func (s *BattlelogServer) handleDemoPlayers(w http.ResponseWriter, r *http.Request) {
	var req demoPlayersRequest
	if !s.decode(w, r, &req) {
		return
	}

	players, err := s.demo.GeneratePlayers(r.Context(), req.Count)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"created": len(players)})
}

type demoSessionsRequest struct {
	Sessions int `json:"sessions"`
	Players  int `json:"players"`
}

func (s *BattlelogServer) handleDemoSessions(w http.ResponseWriter, r *http.Request) {
	var req demoSessionsRequest
	if !s.decode(w, r, &req) {
		return
	}

	sessions, err := s.demo.GenerateSessions(r.Context(), req.Sessions, req.Players)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"created": len(sessions)})
}
