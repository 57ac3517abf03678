package server

import (
	"net/http"
	"strconv"

	"reforger-battlelog/internal/domain"
)

func (s *BattlelogServer) handleGlobalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Global(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *BattlelogServer) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	detail, err := s.stats.PlayerByPlatformID(r.Context(), r.PathValue("platformId"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, detail)
}

func (s *BattlelogServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseCategory(r.PathValue("category"))
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	period := domain.PeriodAllTime
	if raw := r.URL.Query().Get("period"); raw != "" {
		period, err = domain.ParsePeriod(raw)
		if err != nil {
			s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	page, err := s.leaderboard.Page(r.Context(), category, period, limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, page)
}

func (s *BattlelogServer) handleBattleReport(w http.ResponseWriter, r *http.Request) {
	sessionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session id"})
		return
	}

	report, err := s.stats.Report(r.Context(), sessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}
