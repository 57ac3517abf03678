package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reforger-battlelog/internal/domain"

	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: sqlDB, logger: logger}
}

const playerColumns = `id, platform_id, platform, name, total_playtime, total_kills,
	total_deaths, total_assists, total_headshots, shots_fired, shots_hit,
	longest_kill, best_killstreak, total_score, wins, losses, games_played,
	objectives_captured, objectives_defended, revives, heals, repairs,
	vehicle_kills, vehicles_destroyed, roadkills, rank_points, rank_name,
	first_seen, last_seen, created_at, updated_at`

func scanPlayer(row interface{ Scan(...any) error }) (*domain.Player, error) {
	var p domain.Player
	var firstSeen, lastSeen sql.NullTime
	err := row.Scan(
		&p.ID, &p.PlatformID, &p.Platform, &p.Name, &p.TotalPlaytime, &p.TotalKills,
		&p.TotalDeaths, &p.TotalAssists, &p.TotalHeadshots, &p.ShotsFired, &p.ShotsHit,
		&p.LongestKill, &p.BestKillstreak, &p.TotalScore, &p.Wins, &p.Losses, &p.GamesPlayed,
		&p.ObjectivesCaptured, &p.ObjectivesDefended, &p.Revives, &p.Heals, &p.Repairs,
		&p.VehicleKills, &p.VehiclesDestroyed, &p.Roadkills, &p.RankPoints, &p.RankName,
		&firstSeen, &lastSeen, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.FirstSeen = firstSeen.Time
	p.LastSeen = lastSeen.Time
	return &p, nil
}

func (r *PlayerRepository) Get(ctx context.Context, id int64) (*domain.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	return scanPlayer(row)
}

func (r *PlayerRepository) GetByPlatformID(ctx context.Context, platformID string) (*domain.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE platform_id = ?`, platformID)
	return scanPlayer(row)
}

// GetOrCreate resolves a platform id to a player, creating the record
// on first sighting and keeping the display name current.
func (r *PlayerRepository) GetOrCreate(ctx context.Context, platformID, name, platform string) (*domain.Player, error) {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO players (platform_id, platform, name, first_seen, last_seen, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (platform_id) DO UPDATE SET
			name = excluded.name,
			last_seen = excluded.last_seen,
			updated_at = excluded.updated_at`,
		platformID, platform, name, now, now, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert player %s: %w", platformID, err)
	}
	return r.GetByPlatformID(ctx, platformID)
}

func (r *PlayerRepository) TouchLastSeen(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE players SET last_seen = ?, updated_at = ? WHERE id = ?`,
		time.Now(), time.Now(), id)
	return err
}

// FoldParticipation rolls a finished participation into the player's
// lifetime totals. Single statement so concurrent folds for the same
// player cannot lose updates.
func (r *PlayerRepository) FoldParticipation(ctx context.Context, playerID int64, pt *domain.Participation, playtimeSeconds int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE players SET
			total_playtime = total_playtime + ?,
			total_kills = total_kills + ?,
			total_deaths = total_deaths + ?,
			total_assists = total_assists + ?,
			total_headshots = total_headshots + ?,
			total_score = total_score + ?,
			objectives_captured = objectives_captured + ?,
			objectives_defended = objectives_defended + ?,
			revives = revives + ?,
			heals = heals + ?,
			vehicle_kills = vehicle_kills + ?,
			longest_kill = MAX(longest_kill, ?),
			best_killstreak = MAX(best_killstreak, ?),
			games_played = games_played + 1,
			updated_at = ?
		WHERE id = ?`,
		playtimeSeconds, pt.Kills, pt.Deaths, pt.Assists, pt.Headshots, pt.Score,
		pt.ObjectivesCaptured, pt.ObjectivesDefended, pt.Revives, pt.Heals, pt.VehicleKills,
		pt.LongestKill, pt.BestKillstreak, time.Now(), playerID)
	if err != nil {
		return fmt.Errorf("failed to fold participation for player %d: %w", playerID, err)
	}
	return nil
}

func (r *PlayerRepository) AddWinLoss(ctx context.Context, playerID int64, won bool) error {
	column := "losses"
	if won {
		column = "wins"
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE players SET `+column+` = `+column+` + 1, updated_at = ? WHERE id = ?`,
		time.Now(), playerID)
	return err
}

type RankedPlayer struct {
	PlayerID int64
	Score    float64
}

// TopByColumn serves direct leaderboard categories: every player with
// a positive counter, best first, ties by player id.
func (r *PlayerRepository) TopByColumn(ctx context.Context, column string, limit int) ([]RankedPlayer, error) {
	if !validPlayerColumn(column) {
		return nil, fmt.Errorf("invalid ranking column %q", column)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, `+column+` FROM players WHERE `+column+` > 0 ORDER BY `+column+` DESC, id ASC LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RankedPlayer
	for rows.Next() {
		var rp RankedPlayer
		if err := rows.Scan(&rp.PlayerID, &rp.Score); err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	return out, rows.Err()
}

// ListWithGames returns every player who has finished at least one
// game, for derived leaderboard categories.
func (r *PlayerRepository) ListWithGames(ctx context.Context) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE games_played > 0 ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PlayerRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&n)
	return n, err
}

func (r *PlayerRepository) SumColumn(ctx context.Context, column string) (int64, error) {
	if !validPlayerColumn(column) {
		return 0, fmt.Errorf("invalid sum column %q", column)
	}
	var n sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT SUM(`+column+`) FROM players`).Scan(&n)
	return n.Int64, err
}

func (r *PlayerRepository) SetDemoBaseline(ctx context.Context, playerID int64, playtime, rankPoints int, rankName string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE players SET total_playtime = ?, rank_points = ?, rank_name = ?, updated_at = ? WHERE id = ?`,
		playtime, rankPoints, rankName, time.Now(), playerID)
	return err
}

// validPlayerColumn guards the interpolated identifiers above. Only
// callers inside this module pick the column, but a typo should fail
// loudly instead of becoming SQL.
func validPlayerColumn(column string) bool {
	switch column {
	case "total_playtime", "total_kills", "total_deaths", "total_assists",
		"total_headshots", "shots_fired", "shots_hit", "total_score",
		"wins", "losses", "games_played", "objectives_captured",
		"objectives_defended", "revives", "heals", "repairs",
		"vehicle_kills", "vehicles_destroyed", "roadkills":
		return true
	}
	return false
}

// IsNotFound reports whether an error is the driver's empty-result
// sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
