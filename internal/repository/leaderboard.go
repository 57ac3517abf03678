package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"reforger-battlelog/internal/domain"

	"github.com/rs/zerolog"
)

type LeaderboardRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewLeaderboardRepository(sqlDB *sql.DB, logger zerolog.Logger) *LeaderboardRepository {
	return &LeaderboardRepository{db: sqlDB, logger: logger}
}

// UpsertRanked writes one recomputed entry. On an existing row the
// old rank is captured into previous_rank in the same statement, so a
// crash mid-cycle cannot leave a rank without its delta baseline.
func (r *LeaderboardRepository) UpsertRanked(ctx context.Context, playerID int64, category domain.Category, period domain.Period, score float64, rank int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leaderboards (player_id, category, period, score, rank, previous_rank, updated_at)
		VALUES (?, ?, ?, ?, ?, NULL, ?)
		ON CONFLICT (player_id, category, period) DO UPDATE SET
			previous_rank = leaderboards.rank,
			rank = excluded.rank,
			score = excluded.score,
			updated_at = excluded.updated_at`,
		playerID, string(category), string(period), score, rank, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert leaderboard entry for player %d: %w", playerID, err)
	}
	return nil
}

// PageRow is a leaderboard entry joined with the player's name for
// display.
type PageRow struct {
	domain.LeaderboardEntry
	PlayerName string
}

func (r *LeaderboardRepository) Page(ctx context.Context, category domain.Category, period domain.Period, limit, offset int) ([]PageRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT lb.player_id, lb.category, lb.period, lb.score, lb.rank, lb.previous_rank,
			lb.updated_at, p.name
		FROM leaderboards lb
		JOIN players p ON p.id = lb.player_id
		WHERE lb.category = ? AND lb.period = ?
		ORDER BY lb.rank ASC
		LIMIT ? OFFSET ?`,
		string(category), string(period), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PageRow
	for rows.Next() {
		var row PageRow
		var cat, per string
		var prev sql.NullInt64
		err := rows.Scan(&row.PlayerID, &cat, &per, &row.Score, &row.Rank, &prev,
			&row.UpdatedAt, &row.PlayerName)
		if err != nil {
			return nil, err
		}
		row.Category = domain.Category(cat)
		row.Period = domain.Period(per)
		if prev.Valid {
			p := int(prev.Int64)
			row.PreviousRank = &p
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *LeaderboardRepository) Get(ctx context.Context, playerID int64, category domain.Category, period domain.Period) (*domain.LeaderboardEntry, error) {
	var e domain.LeaderboardEntry
	var cat, per string
	var prev sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT player_id, category, period, score, rank, previous_rank, updated_at
		FROM leaderboards
		WHERE player_id = ? AND category = ? AND period = ?`,
		playerID, string(category), string(period)).Scan(
		&e.PlayerID, &cat, &per, &e.Score, &e.Rank, &prev, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.Category = domain.Category(cat)
	e.Period = domain.Period(per)
	if prev.Valid {
		p := int(prev.Int64)
		e.PreviousRank = &p
	}
	return &e, nil
}
