package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"reforger-battlelog/internal/domain"

	"github.com/rs/zerolog"
)

type SessionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSessionRepository(sqlDB *sql.DB, logger zerolog.Logger) *SessionRepository {
	return &SessionRepository{db: sqlDB, logger: logger}
}

const sessionColumns = `id, server_id, server_name, map_id, scenario_id, game_mode,
	started_at, ended_at, winner_faction, us_score, ussr_score,
	max_players, total_players, total_kills, status`

func scanSession(row interface{ Scan(...any) error }) (*domain.Session, error) {
	var s domain.Session
	var mapID sql.NullInt64
	var endedAt sql.NullTime
	var status string
	err := row.Scan(
		&s.ID, &s.ServerID, &s.ServerName, &mapID, &s.ScenarioID, &s.GameMode,
		&s.StartedAt, &endedAt, &s.WinnerFaction, &s.USScore, &s.USSRScore,
		&s.MaxPlayers, &s.TotalPlayers, &s.TotalKills, &status,
	)
	if err != nil {
		return nil, err
	}
	if mapID.Valid {
		s.MapID = &mapID.Int64
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	s.Status = domain.SessionStatus(status)
	return &s, nil
}

func (r *SessionRepository) Get(ctx context.Context, id int64) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM game_sessions WHERE id = ?`, id)
	return scanSession(row)
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO game_sessions (server_id, server_name, map_id, scenario_id, game_mode,
			started_at, max_players, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ServerID, s.ServerName, nullableID(s.MapID), s.ScenarioID, s.GameMode,
		s.StartedAt, s.MaxPlayers, string(s.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// End closes an active session. The status transition is one-way: a
// session already ended or cancelled is left untouched.
func (r *SessionRepository) End(ctx context.Context, id int64, usScore, ussrScore int, winnerFaction string, endedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE game_sessions SET
			ended_at = ?, status = ?, winner_faction = ?, us_score = ?, ussr_score = ?
		WHERE id = ? AND status = ?`,
		endedAt, string(domain.SessionEnded), winnerFaction, usScore, ussrScore,
		id, string(domain.SessionActive))
	return err
}

func (r *SessionRepository) IncrementKills(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE game_sessions SET total_kills = total_kills + 1 WHERE id = ?`, id)
	return err
}

// AddPlayer bumps the live player count; max_players tracks the high
// water mark.
func (r *SessionRepository) AddPlayer(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE game_sessions SET
			total_players = total_players + 1,
			max_players = MAX(max_players, total_players + 1)
		WHERE id = ?`, id)
	return err
}

func (r *SessionRepository) CountEnded(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game_sessions WHERE status = ?`, string(domain.SessionEnded)).Scan(&n)
	return n, err
}

func (r *SessionRepository) ListActive(ctx context.Context) ([]domain.Session, error) {
	return r.list(ctx,
		`SELECT `+sessionColumns+` FROM game_sessions WHERE status = ? ORDER BY started_at DESC`,
		string(domain.SessionActive))
}

func (r *SessionRepository) ListRecentEnded(ctx context.Context, limit int) ([]domain.Session, error) {
	return r.list(ctx,
		`SELECT `+sessionColumns+` FROM game_sessions WHERE status = ? ORDER BY ended_at DESC LIMIT ?`,
		string(domain.SessionEnded), limit)
}

func (r *SessionRepository) list(ctx context.Context, query string, args ...any) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
