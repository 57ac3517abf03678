package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"reforger-battlelog/internal/domain"

	"github.com/rs/zerolog"
)

type ParticipationRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewParticipationRepository(sqlDB *sql.DB, logger zerolog.Logger) *ParticipationRepository {
	return &ParticipationRepository{db: sqlDB, logger: logger}
}

const participationColumns = `id, session_id, player_id, faction, joined_at, left_at,
	kills, deaths, assists, score, headshots, objectives_captured, objectives_defended,
	revives, heals, vehicle_kills, longest_kill, best_killstreak, is_winner, is_mvp`

func scanParticipation(row interface{ Scan(...any) error }) (*domain.Participation, error) {
	var pt domain.Participation
	var leftAt sql.NullTime
	var isWinner sql.NullBool
	err := row.Scan(
		&pt.ID, &pt.SessionID, &pt.PlayerID, &pt.Faction, &pt.JoinedAt, &leftAt,
		&pt.Kills, &pt.Deaths, &pt.Assists, &pt.Score, &pt.Headshots,
		&pt.ObjectivesCaptured, &pt.ObjectivesDefended,
		&pt.Revives, &pt.Heals, &pt.VehicleKills, &pt.LongestKill, &pt.BestKillstreak,
		&isWinner, &pt.IsMVP,
	)
	if err != nil {
		return nil, err
	}
	if leftAt.Valid {
		pt.LeftAt = &leftAt.Time
	}
	if isWinner.Valid {
		pt.IsWinner = &isWinner.Bool
	}
	return &pt, nil
}

func (r *ParticipationRepository) Get(ctx context.Context, sessionID, playerID int64) (*domain.Participation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+participationColumns+` FROM player_sessions WHERE session_id = ? AND player_id = ?`,
		sessionID, playerID)
	return scanParticipation(row)
}

func (r *ParticipationRepository) Create(ctx context.Context, sessionID, playerID int64, faction string) (*domain.Participation, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO player_sessions (session_id, player_id, faction, joined_at)
		VALUES (?, ?, ?, ?)`,
		sessionID, playerID, faction, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to insert participation: %w", err)
	}
	return r.Get(ctx, sessionID, playerID)
}

// ApplyKill credits a kill to the killer's participation in a single
// atomic statement: counters, longest-kill high water mark, score.
func (r *ParticipationRepository) ApplyKill(ctx context.Context, sessionID, playerID int64, headshot bool, distance float64, score int) error {
	headshotInc := 0
	if headshot {
		headshotInc = 1
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE player_sessions SET
			kills = kills + 1,
			headshots = headshots + ?,
			longest_kill = MAX(longest_kill, ?),
			score = score + ?
		WHERE session_id = ? AND player_id = ?`,
		headshotInc, distance, score, sessionID, playerID)
	return err
}

func (r *ParticipationRepository) AddDeath(ctx context.Context, sessionID, playerID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE player_sessions SET deaths = deaths + 1 WHERE session_id = ? AND player_id = ?`,
		sessionID, playerID)
	return err
}

// DisconnectStats is the whitelisted subset of client-reported fields
// a disconnect payload may write. Score, winner and MVP flags are
// server-computed and deliberately absent.
type DisconnectStats struct {
	Kills              *int
	Deaths             *int
	Assists            *int
	Headshots          *int
	ObjectivesCaptured *int
	ObjectivesDefended *int
	Revives            *int
	Heals              *int
	VehicleKills       *int
	LongestKill        *float64
	BestKillstreak     *int
}

func (r *ParticipationRepository) Disconnect(ctx context.Context, sessionID, playerID int64, leftAt time.Time, stats DisconnectStats) error {
	set := "left_at = ?"
	args := []any{leftAt}

	add := func(column string, v any) {
		set += ", " + column + " = ?"
		args = append(args, v)
	}
	if stats.Kills != nil {
		add("kills", *stats.Kills)
	}
	if stats.Deaths != nil {
		add("deaths", *stats.Deaths)
	}
	if stats.Assists != nil {
		add("assists", *stats.Assists)
	}
	if stats.Headshots != nil {
		add("headshots", *stats.Headshots)
	}
	if stats.ObjectivesCaptured != nil {
		add("objectives_captured", *stats.ObjectivesCaptured)
	}
	if stats.ObjectivesDefended != nil {
		add("objectives_defended", *stats.ObjectivesDefended)
	}
	if stats.Revives != nil {
		add("revives", *stats.Revives)
	}
	if stats.Heals != nil {
		add("heals", *stats.Heals)
	}
	if stats.VehicleKills != nil {
		add("vehicle_kills", *stats.VehicleKills)
	}
	if stats.LongestKill != nil {
		add("longest_kill", *stats.LongestKill)
	}
	if stats.BestKillstreak != nil {
		add("best_killstreak", *stats.BestKillstreak)
	}

	args = append(args, sessionID, playerID)
	_, err := r.db.ExecContext(ctx,
		`UPDATE player_sessions SET `+set+` WHERE session_id = ? AND player_id = ?`, args...)
	return err
}

func (r *ParticipationRepository) SetWinner(ctx context.Context, id int64, isWinner bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE player_sessions SET is_winner = ? WHERE id = ?`, isWinner, id)
	return err
}

func (r *ParticipationRepository) SetMVP(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE player_sessions SET is_mvp = 1 WHERE id = ?`, id)
	return err
}

// ListBySession returns participations in insertion order, which makes
// the first-max MVP scan deterministic.
func (r *ParticipationRepository) ListBySession(ctx context.Context, sessionID int64) ([]domain.Participation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+participationColumns+` FROM player_sessions WHERE session_id = ? ORDER BY id ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Participation
	for rows.Next() {
		pt, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *pt)
	}
	return out, rows.Err()
}

// ScoreboardRow is a participation joined with the player's name, for
// battle reports.
type ScoreboardRow struct {
	domain.Participation
	PlayerName string
}

func (r *ParticipationRepository) Scoreboard(ctx context.Context, sessionID int64) ([]ScoreboardRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ps.id, ps.session_id, ps.player_id, ps.faction, ps.joined_at, ps.left_at,
			ps.kills, ps.deaths, ps.assists, ps.score, ps.headshots,
			ps.objectives_captured, ps.objectives_defended,
			ps.revives, ps.heals, ps.vehicle_kills, ps.longest_kill, ps.best_killstreak,
			ps.is_winner, ps.is_mvp, p.name
		FROM player_sessions ps
		JOIN players p ON p.id = ps.player_id
		WHERE ps.session_id = ?
		ORDER BY ps.score DESC, ps.id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoreboardRow
	for rows.Next() {
		var row ScoreboardRow
		var leftAt sql.NullTime
		var isWinner sql.NullBool
		err := rows.Scan(
			&row.ID, &row.SessionID, &row.PlayerID, &row.Faction, &row.JoinedAt, &leftAt,
			&row.Kills, &row.Deaths, &row.Assists, &row.Score, &row.Headshots,
			&row.ObjectivesCaptured, &row.ObjectivesDefended,
			&row.Revives, &row.Heals, &row.VehicleKills, &row.LongestKill, &row.BestKillstreak,
			&isWinner, &row.IsMVP, &row.PlayerName,
		)
		if err != nil {
			return nil, err
		}
		if leftAt.Valid {
			row.LeftAt = &leftAt.Time
		}
		if isWinner.Valid {
			row.IsWinner = &isWinner.Bool
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *ParticipationRepository) ListByPlayer(ctx context.Context, playerID int64, limit int) ([]domain.Participation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+participationColumns+` FROM player_sessions WHERE player_id = ? ORDER BY joined_at DESC LIMIT ?`,
		playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Participation
	for rows.Next() {
		pt, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *pt)
	}
	return out, rows.Err()
}
