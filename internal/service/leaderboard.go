package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"reforger-battlelog/internal/constants"
	"reforger-battlelog/internal/domain"
	"reforger-battlelog/internal/metrics"
	"reforger-battlelog/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type LeaderboardService struct {
	players      *repository.PlayerRepository
	leaderboards *repository.LeaderboardRepository
	logger       zerolog.Logger
}

func NewLeaderboardService(players *repository.PlayerRepository, leaderboards *repository.LeaderboardRepository, logger zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{players: players, leaderboards: leaderboards, logger: logger}
}

// RecalculateCategory rebuilds the ranking for one category and
// period. Direct categories rank a stored counter; derived ones
// compute the metric per player and drop non-positive results. Ties
// break by player id ascending, so repeated runs over unchanged data
// produce identical rankings. Each upsert captures the row's previous
// rank before overwriting it.
func (s *LeaderboardService) RecalculateCategory(ctx context.Context, category domain.Category, period domain.Period) error {
	spec, ok := domain.Categories[category]
	if !ok {
		return fmt.Errorf("unknown leaderboard category %q", category)
	}

	var ranked []repository.RankedPlayer
	if spec.Column != "" {
		var err error
		ranked, err = s.players.TopByColumn(ctx, spec.Column, constants.LeaderboardCap)
		if err != nil {
			return fmt.Errorf("failed to rank by %s: %w", spec.Column, err)
		}
	} else {
		players, err := s.players.ListWithGames(ctx)
		if err != nil {
			return fmt.Errorf("failed to list players: %w", err)
		}
		for i := range players {
			score := spec.Derive(&players[i])
			if score <= 0 {
				continue
			}
			ranked = append(ranked, repository.RankedPlayer{PlayerID: players[i].ID, Score: score})
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].Score != ranked[j].Score {
				return ranked[i].Score > ranked[j].Score
			}
			return ranked[i].PlayerID < ranked[j].PlayerID
		})
		if len(ranked) > constants.LeaderboardCap {
			ranked = ranked[:constants.LeaderboardCap]
		}
	}

	for i, r := range ranked {
		if err := s.leaderboards.UpsertRanked(ctx, r.PlayerID, category, period, r.Score, i+1); err != nil {
			return fmt.Errorf("failed to write rank %d: %w", i+1, err)
		}
	}

	s.logger.Debug().
		Str("category", string(category)).
		Str("period", string(period)).
		Int("entries", len(ranked)).
		Msg("leaderboard category recalculated")
	return nil
}

// RecalculateAll rebuilds every category for the all-time period. A
// failing category is logged and skipped; the rest still run.
func (s *LeaderboardService) RecalculateAll(ctx context.Context) {
	start := time.Now()

	g := new(errgroup.Group)
	for category := range domain.Categories {
		g.Go(func() error {
			if err := s.RecalculateCategory(ctx, category, domain.PeriodAllTime); err != nil {
				s.logger.Error().Err(err).
					Str("category", string(category)).
					Msg("leaderboard recalculation failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	metrics.LeaderboardRecomputeDuration.Observe(time.Since(start).Seconds())
	s.logger.Info().
		Dur("duration", time.Since(start)).
		Int("categories", len(domain.Categories)).
		Msg("leaderboards recalculated")
}

// RunPeriodic recomputes all leaderboards on a fixed interval until
// the context is cancelled. Intended to run as a background goroutine
// alongside ingestion.
func (s *LeaderboardService) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", interval).Msg("leaderboard recompute loop started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("leaderboard recompute loop stopped")
			return
		case <-ticker.C:
			s.RecalculateAll(ctx)
		}
	}
}

type LeaderboardPage struct {
	Category domain.Category        `json:"category"`
	Period   domain.Period          `json:"period"`
	Entries  []LeaderboardPageEntry `json:"entries"`
}

type LeaderboardPageEntry struct {
	Rank       int     `json:"rank"`
	PlayerID   int64   `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Score      float64 `json:"score"`
	Change     string  `json:"change"`
}

// Page reads one page of a leaderboard. The limit is clamped to the
// page cap; rank movement is derived from the stored previous rank.
func (s *LeaderboardService) Page(ctx context.Context, category domain.Category, period domain.Period, limit, offset int) (*LeaderboardPage, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if limit <= 0 || limit > constants.LeaderboardPageLimit {
		limit = constants.LeaderboardPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.leaderboards.Page(ctx, category, period, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard page: %w", err)
	}

	page := &LeaderboardPage{Category: category, Period: period, Entries: []LeaderboardPageEntry{}}
	for i := range rows {
		page.Entries = append(page.Entries, LeaderboardPageEntry{
			Rank:       rows[i].Rank,
			PlayerID:   rows[i].PlayerID,
			PlayerName: rows[i].PlayerName,
			Score:      rows[i].Score,
			Change:     rows[i].RankChange(),
		})
	}
	return page, nil
}

// PlayerRank reads one player's entry on one board, or nil when the
// player is not ranked there.
func (s *LeaderboardService) PlayerRank(ctx context.Context, playerID int64, category domain.Category, period domain.Period) (*domain.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.leaderboards.Get(ctx, playerID, category, period)
}
