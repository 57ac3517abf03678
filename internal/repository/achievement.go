package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"reforger-battlelog/internal/domain"

	"github.com/rs/zerolog"
)

type AchievementRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewAchievementRepository(sqlDB *sql.DB, logger zerolog.Logger) *AchievementRepository {
	return &AchievementRepository{db: sqlDB, logger: logger}
}

const achievementColumns = `id, code, name, description, category, rarity,
	requirement_type, requirement_value, points, is_hidden, is_active, sort_order`

func scanAchievement(row interface{ Scan(...any) error }) (*domain.Achievement, error) {
	var a domain.Achievement
	var requirementType string
	err := row.Scan(
		&a.ID, &a.Code, &a.Name, &a.Description, &a.Category, &a.Rarity,
		&requirementType, &a.RequirementValue, &a.Points, &a.IsHidden, &a.IsActive, &a.SortOrder,
	)
	if err != nil {
		return nil, err
	}
	metric, err := domain.ParseMetric(requirementType)
	if err != nil {
		return nil, fmt.Errorf("achievement %s: %w", a.Code, err)
	}
	a.RequirementType = metric
	return &a, nil
}

func (r *AchievementRepository) ListActive(ctx context.Context) ([]domain.Achievement, error) {
	return r.list(ctx,
		`SELECT `+achievementColumns+` FROM achievements WHERE is_active = 1 ORDER BY category ASC, sort_order ASC, id ASC`)
}

// ListActiveByMetrics narrows the catalog to definitions whose
// requirement type is in the given set.
func (r *AchievementRepository) ListActiveByMetrics(ctx context.Context, metrics []domain.Metric) ([]domain.Achievement, error) {
	if len(metrics) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(metrics))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(metrics))
	for i, m := range metrics {
		args[i] = string(m)
	}
	return r.list(ctx,
		`SELECT `+achievementColumns+` FROM achievements
		 WHERE is_active = 1 AND requirement_type IN (`+placeholders+`)
		 ORDER BY id ASC`, args...)
}

func (r *AchievementRepository) list(ctx context.Context, query string, args ...any) ([]domain.Achievement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AchievementRepository) GetProgress(ctx context.Context, playerID, achievementID int64) (*domain.AchievementProgress, error) {
	var p domain.AchievementProgress
	var unlockedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT player_id, achievement_id, progress, is_unlocked, unlocked_at, updated_at
		FROM player_achievements
		WHERE player_id = ? AND achievement_id = ?`,
		playerID, achievementID).Scan(
		&p.PlayerID, &p.AchievementID, &p.Progress, &p.IsUnlocked, &unlockedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if unlockedAt.Valid {
		p.UnlockedAt = &unlockedAt.Time
	}
	return &p, nil
}

// SetProgress records the latest observed requirement value without
// touching the unlock flag. Unlocked rows are never written again.
func (r *AchievementRepository) SetProgress(ctx context.Context, playerID, achievementID int64, progress float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO player_achievements (player_id, achievement_id, progress, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (player_id, achievement_id) DO UPDATE SET
			progress = excluded.progress,
			updated_at = excluded.updated_at
		WHERE is_unlocked = 0`,
		playerID, achievementID, progress, time.Now())
	return err
}

// Unlock flips the one-way unlock flag. The is_unlocked guard makes
// the transition idempotent: a row already unlocked is untouched and
// keeps its original unlocked_at.
func (r *AchievementRepository) Unlock(ctx context.Context, playerID, achievementID int64, progress float64, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO player_achievements (player_id, achievement_id, progress, is_unlocked, unlocked_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT (player_id, achievement_id) DO UPDATE SET
			progress = excluded.progress,
			is_unlocked = 1,
			unlocked_at = excluded.unlocked_at,
			updated_at = excluded.updated_at
		WHERE is_unlocked = 0`,
		playerID, achievementID, progress, at, time.Now())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PlayerAchievementRow pairs a definition with the player's progress
// for the achievements listing.
type PlayerAchievementRow struct {
	Achievement domain.Achievement
	Progress    float64
	IsUnlocked  bool
	UnlockedAt  *time.Time
}

func (r *AchievementRepository) ListForPlayer(ctx context.Context, playerID int64) ([]PlayerAchievementRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.code, a.name, a.description, a.category, a.rarity,
			a.requirement_type, a.requirement_value, a.points, a.is_hidden, a.is_active, a.sort_order,
			COALESCE(pa.progress, 0), COALESCE(pa.is_unlocked, 0), pa.unlocked_at
		FROM achievements a
		LEFT JOIN player_achievements pa ON pa.achievement_id = a.id AND pa.player_id = ?
		WHERE a.is_active = 1
		ORDER BY a.category ASC, a.sort_order ASC, a.id ASC`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerAchievementRow
	for rows.Next() {
		var row PlayerAchievementRow
		var requirementType string
		var unlockedAt sql.NullTime
		err := rows.Scan(
			&row.Achievement.ID, &row.Achievement.Code, &row.Achievement.Name,
			&row.Achievement.Description, &row.Achievement.Category, &row.Achievement.Rarity,
			&requirementType, &row.Achievement.RequirementValue, &row.Achievement.Points,
			&row.Achievement.IsHidden, &row.Achievement.IsActive, &row.Achievement.SortOrder,
			&row.Progress, &row.IsUnlocked, &unlockedAt,
		)
		if err != nil {
			return nil, err
		}
		metric, err := domain.ParseMetric(requirementType)
		if err != nil {
			return nil, fmt.Errorf("achievement %s: %w", row.Achievement.Code, err)
		}
		row.Achievement.RequirementType = metric
		if unlockedAt.Valid {
			row.UnlockedAt = &unlockedAt.Time
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UnlockStats summarizes a player's achievement completion.
type UnlockStats struct {
	Total        int
	Unlocked     int
	TotalPoints  int
	EarnedPoints int
}

func (r *AchievementRepository) StatsForPlayer(ctx context.Context, playerID int64) (*UnlockStats, error) {
	var s UnlockStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(a.points), 0),
			COALESCE(SUM(CASE WHEN pa.is_unlocked = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pa.is_unlocked = 1 THEN a.points ELSE 0 END), 0)
		FROM achievements a
		LEFT JOIN player_achievements pa ON pa.achievement_id = a.id AND pa.player_id = ?
		WHERE a.is_active = 1`, playerID).Scan(&s.Total, &s.TotalPoints, &s.Unlocked, &s.EarnedPoints)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
