package repository

import (
	"context"
	"database/sql"
	"time"

	"reforger-battlelog/internal/domain"

	"github.com/rs/zerolog"
)

// ItemStatsRepository owns the lazily-created per-weapon and
// per-vehicle aggregates. Rows appear on a player's first relevant
// kill and only ever grow.
type ItemStatsRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewItemStatsRepository(sqlDB *sql.DB, logger zerolog.Logger) *ItemStatsRepository {
	return &ItemStatsRepository{db: sqlDB, logger: logger}
}

// RecordWeaponKill upserts a weapon stat row for one kill. One
// statement: the increment is atomic under concurrent events.
func (r *ItemStatsRepository) RecordWeaponKill(ctx context.Context, playerID, weaponID int64, headshot bool, distance float64) error {
	headshotInc := 0
	if headshot {
		headshotInc = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO player_weapon_stats (player_id, weapon_id, kills, headshots, longest_kill, updated_at)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT (player_id, weapon_id) DO UPDATE SET
			kills = kills + 1,
			headshots = headshots + excluded.headshots,
			longest_kill = MAX(longest_kill, excluded.longest_kill),
			updated_at = excluded.updated_at`,
		playerID, weaponID, headshotInc, distance, time.Now())
	return err
}

func (r *ItemStatsRepository) RecordVehicleKill(ctx context.Context, playerID, vehicleID int64, roadkill bool) error {
	roadkillInc := 0
	if roadkill {
		roadkillInc = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO player_vehicle_stats (player_id, vehicle_id, kills, roadkills, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (player_id, vehicle_id) DO UPDATE SET
			kills = kills + 1,
			roadkills = roadkills + excluded.roadkills,
			updated_at = excluded.updated_at`,
		playerID, vehicleID, roadkillInc, time.Now())
	return err
}

// AddWeaponUsage folds synthetic usage numbers into a weapon stat row.
// Only the demo generator calls this; real ingestion has no usage
// telemetry yet.
func (r *ItemStatsRepository) AddWeaponUsage(ctx context.Context, playerID, weaponID int64, shotsFired, shotsHit, timeUsed int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO player_weapon_stats (player_id, weapon_id, shots_fired, shots_hit, time_used, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_id, weapon_id) DO UPDATE SET
			shots_fired = shots_fired + excluded.shots_fired,
			shots_hit = shots_hit + excluded.shots_hit,
			time_used = time_used + excluded.time_used,
			updated_at = excluded.updated_at`,
		playerID, weaponID, shotsFired, shotsHit, timeUsed, time.Now())
	return err
}

func (r *ItemStatsRepository) AddVehicleUsage(ctx context.Context, playerID, vehicleID int64, timeUsed int, distance float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO player_vehicle_stats (player_id, vehicle_id, time_used, distance_traveled, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (player_id, vehicle_id) DO UPDATE SET
			time_used = time_used + excluded.time_used,
			distance_traveled = distance_traveled + excluded.distance_traveled,
			updated_at = excluded.updated_at`,
		playerID, vehicleID, timeUsed, distance, time.Now())
	return err
}

// NamedWeaponStat is a weapon aggregate joined with its catalog entry.
type NamedWeaponStat struct {
	domain.WeaponStat
	WeaponName     string
	WeaponCategory string
}

func (r *ItemStatsRepository) ListWeaponStats(ctx context.Context, playerID int64) ([]NamedWeaponStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ws.player_id, ws.weapon_id, ws.kills, ws.deaths, ws.headshots,
			ws.shots_fired, ws.shots_hit, ws.longest_kill, ws.time_used, ws.updated_at,
			w.name, w.category
		FROM player_weapon_stats ws
		JOIN weapons w ON w.id = ws.weapon_id
		WHERE ws.player_id = ?
		ORDER BY ws.kills DESC`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NamedWeaponStat
	for rows.Next() {
		var s NamedWeaponStat
		err := rows.Scan(
			&s.PlayerID, &s.WeaponID, &s.Kills, &s.Deaths, &s.Headshots,
			&s.ShotsFired, &s.ShotsHit, &s.LongestKill, &s.TimeUsed, &s.UpdatedAt,
			&s.WeaponName, &s.WeaponCategory,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type NamedVehicleStat struct {
	domain.VehicleStat
	VehicleName     string
	VehicleCategory string
}

func (r *ItemStatsRepository) ListVehicleStats(ctx context.Context, playerID int64) ([]NamedVehicleStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT vs.player_id, vs.vehicle_id, vs.kills, vs.deaths, vs.destroyed,
			vs.roadkills, vs.time_used, vs.distance_traveled, vs.updated_at,
			v.name, v.category
		FROM player_vehicle_stats vs
		JOIN vehicles v ON v.id = vs.vehicle_id
		WHERE vs.player_id = ?
		ORDER BY vs.kills DESC`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NamedVehicleStat
	for rows.Next() {
		var s NamedVehicleStat
		err := rows.Scan(
			&s.PlayerID, &s.VehicleID, &s.Kills, &s.Deaths, &s.Destroyed,
			&s.Roadkills, &s.TimeUsed, &s.DistanceTraveled, &s.UpdatedAt,
			&s.VehicleName, &s.VehicleCategory,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
