package repository

import (
	"context"
	"database/sql"
	"fmt"

	"reforger-battlelog/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type KillEventRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewKillEventRepository(sqlDB *sql.DB, logger zerolog.Logger) *KillEventRepository {
	return &KillEventRepository{db: sqlDB, logger: logger}
}

// Insert persists one immutable kill event. The id is generated here;
// events are append-only and never updated.
func (r *KillEventRepository) Insert(ctx context.Context, ev *domain.KillEvent) error {
	if ev.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		ev.ID = id
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kill_events (id, session_id, killer_id, victim_id, weapon_id, vehicle_id,
			distance, is_headshot, is_teamkill, is_suicide, is_roadkill,
			killer_position, victim_position, killer_faction, victim_faction, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.SessionID, nullableID(ev.KillerID), ev.VictimID,
		nullableID(ev.WeaponID), nullableID(ev.VehicleID),
		ev.Distance, ev.IsHeadshot, ev.IsTeamkill, ev.IsSuicide, ev.IsRoadkill,
		ev.KillerPosition, ev.VictimPosition, ev.KillerFaction, ev.VictimFaction, ev.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert kill event: %w", err)
	}
	return nil
}

// TimelineRow is a kill event joined with the display names the battle
// report needs.
type TimelineRow struct {
	domain.KillEvent
	KillerName string
	VictimName string
	WeaponName string
}

func (r *KillEventRepository) Timeline(ctx context.Context, sessionID int64, limit int) ([]TimelineRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ke.id, ke.session_id, ke.killer_id, ke.victim_id, ke.weapon_id, ke.vehicle_id,
			ke.distance, ke.is_headshot, ke.is_teamkill, ke.is_suicide, ke.is_roadkill,
			ke.killer_position, ke.victim_position, ke.killer_faction, ke.victim_faction,
			ke.timestamp,
			COALESCE(killer.name, 'Unknown'), victim.name, COALESCE(w.name, 'Unknown')
		FROM kill_events ke
		LEFT JOIN players killer ON killer.id = ke.killer_id
		JOIN players victim ON victim.id = ke.victim_id
		LEFT JOIN weapons w ON w.id = ke.weapon_id
		WHERE ke.session_id = ?
		ORDER BY ke.timestamp ASC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		var killerID, weaponID, vehicleID sql.NullInt64
		err := rows.Scan(
			&row.ID, &row.SessionID, &killerID, &row.VictimID, &weaponID, &vehicleID,
			&row.Distance, &row.IsHeadshot, &row.IsTeamkill, &row.IsSuicide, &row.IsRoadkill,
			&row.KillerPosition, &row.VictimPosition, &row.KillerFaction, &row.VictimFaction,
			&row.Timestamp,
			&row.KillerName, &row.VictimName, &row.WeaponName,
		)
		if err != nil {
			return nil, err
		}
		if killerID.Valid {
			row.KillerID = &killerID.Int64
		}
		if weaponID.Valid {
			row.WeaponID = &weaponID.Int64
		}
		if vehicleID.Valid {
			row.VehicleID = &vehicleID.Int64
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Rivalry is a most-frequent killer/victim relationship derived from
// the event history.
type Rivalry struct {
	PlayerID int64
	Name     string
	Times    int
}

// Nemesis finds the player who killed playerID the most.
func (r *KillEventRepository) Nemesis(ctx context.Context, playerID int64) (*Rivalry, error) {
	return r.rivalry(ctx, `
		SELECT ke.killer_id, p.name, COUNT(*) AS times
		FROM kill_events ke
		JOIN players p ON p.id = ke.killer_id
		WHERE ke.victim_id = ? AND ke.killer_id IS NOT NULL AND ke.is_suicide = 0
		GROUP BY ke.killer_id
		ORDER BY times DESC
		LIMIT 1`, playerID)
}

// FavoriteVictim finds the player whom playerID killed the most.
func (r *KillEventRepository) FavoriteVictim(ctx context.Context, playerID int64) (*Rivalry, error) {
	return r.rivalry(ctx, `
		SELECT ke.victim_id, p.name, COUNT(*) AS times
		FROM kill_events ke
		JOIN players p ON p.id = ke.victim_id
		WHERE ke.killer_id = ? AND ke.is_suicide = 0
		GROUP BY ke.victim_id
		ORDER BY times DESC
		LIMIT 1`, playerID)
}

func (r *KillEventRepository) rivalry(ctx context.Context, query string, playerID int64) (*Rivalry, error) {
	var rv Rivalry
	err := r.db.QueryRowContext(ctx, query, playerID).Scan(&rv.PlayerID, &rv.Name, &rv.Times)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *KillEventRepository) CountBySession(ctx context.Context, sessionID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM kill_events WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
