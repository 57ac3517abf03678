package service

import (
	"context"
	"fmt"
	"time"

	"reforger-battlelog/internal/constants"
	"reforger-battlelog/internal/domain"
	"reforger-battlelog/internal/metrics"
	"reforger-battlelog/internal/repository"

	"github.com/rs/zerolog"
)

type AchievementService struct {
	achievements *repository.AchievementRepository
	players      *repository.PlayerRepository
	logger       zerolog.Logger
}

func NewAchievementService(achievements *repository.AchievementRepository, players *repository.PlayerRepository, logger zerolog.Logger) *AchievementService {
	return &AchievementService{achievements: achievements, players: players, logger: logger}
}

// EvaluateOne checks a single achievement against the player's current
// counters. Returns true only on the call that unlocks it; once
// unlocked the check short-circuits and progress is never touched
// again.
func (s *AchievementService) EvaluateOne(ctx context.Context, player *domain.Player, def *domain.Achievement) (bool, error) {
	existing, err := s.achievements.GetProgress(ctx, player.ID, def.ID)
	if err != nil {
		return false, fmt.Errorf("failed to read achievement progress: %w", err)
	}
	if existing != nil && existing.IsUnlocked {
		return false, nil
	}

	progress := player.MetricValue(def.RequirementType)
	if progress >= def.RequirementValue {
		unlockedNow, err := s.achievements.Unlock(ctx, player.ID, def.ID, progress, time.Now())
		if err != nil {
			return false, fmt.Errorf("failed to unlock achievement: %w", err)
		}
		if unlockedNow {
			metrics.AchievementUnlocks.Inc()
			s.logger.Info().
				Int64("playerId", player.ID).
				Str("achievement", def.Code).
				Float64("progress", progress).
				Msg("achievement unlocked")
		}
		return unlockedNow, nil
	}

	if err := s.achievements.SetProgress(ctx, player.ID, def.ID, progress); err != nil {
		return false, fmt.Errorf("failed to update achievement progress: %w", err)
	}
	return false, nil
}

// EvaluateAll runs every active achievement for a player and returns
// the ones newly unlocked by this call.
func (s *AchievementService) EvaluateAll(ctx context.Context, playerID int64) ([]domain.Achievement, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	defs, err := s.achievements.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return s.evaluate(ctx, playerID, defs)
}

// EvaluateKillRelated re-checks only the requirement types a kill can
// move, so the per-kill path never scans the full catalog.
func (s *AchievementService) EvaluateKillRelated(ctx context.Context, playerID int64) ([]domain.Achievement, error) {
	defs, err := s.achievements.ListActiveByMetrics(ctx, domain.KillMetrics)
	if err != nil {
		return nil, fmt.Errorf("failed to list kill achievements: %w", err)
	}
	return s.evaluate(ctx, playerID, defs)
}

func (s *AchievementService) evaluate(ctx context.Context, playerID int64, defs []domain.Achievement) ([]domain.Achievement, error) {
	player, err := s.players.Get(ctx, playerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	var unlocked []domain.Achievement
	for i := range defs {
		unlockedNow, err := s.EvaluateOne(ctx, player, &defs[i])
		if err != nil {
			s.logger.Error().Err(err).
				Int64("playerId", playerID).
				Str("achievement", defs[i].Code).
				Msg("achievement evaluation failed")
			continue
		}
		if unlockedNow {
			unlocked = append(unlocked, defs[i])
		}
	}
	return unlocked, nil
}
