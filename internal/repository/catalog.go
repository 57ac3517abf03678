package repository

import (
	"context"
	"database/sql"

	"reforger-battlelog/internal/domain"

	"github.com/rs/zerolog"
)

// CatalogRepository reads the static reference data: weapons,
// vehicles, maps. Seeded by migration, read-mostly.
type CatalogRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewCatalogRepository(sqlDB *sql.DB, logger zerolog.Logger) *CatalogRepository {
	return &CatalogRepository{db: sqlDB, logger: logger}
}

// WeaponByInternalID resolves a game-engine weapon id to the catalog
// entry, or nil when the catalog has no match.
func (r *CatalogRepository) WeaponByInternalID(ctx context.Context, internalID string) (*domain.Weapon, error) {
	var w domain.Weapon
	err := r.db.QueryRowContext(ctx, `
		SELECT id, internal_id, name, category, faction, base_damage, fire_rate, magazine_size, is_active
		FROM weapons WHERE internal_id = ?`, internalID).Scan(
		&w.ID, &w.InternalID, &w.Name, &w.Category, &w.Faction,
		&w.BaseDamage, &w.FireRate, &w.MagazineSize, &w.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *CatalogRepository) VehicleByInternalID(ctx context.Context, internalID string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := r.db.QueryRowContext(ctx, `
		SELECT id, internal_id, name, category, faction, seats, has_weapons, is_active
		FROM vehicles WHERE internal_id = ?`, internalID).Scan(
		&v.ID, &v.InternalID, &v.Name, &v.Category, &v.Faction,
		&v.Seats, &v.HasWeapons, &v.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *CatalogRepository) MapByInternalID(ctx context.Context, internalID string) (*domain.GameMap, error) {
	var m domain.GameMap
	err := r.db.QueryRowContext(ctx, `
		SELECT id, internal_id, name, game_mode, size_km, is_active
		FROM maps WHERE internal_id = ?`, internalID).Scan(
		&m.ID, &m.InternalID, &m.Name, &m.GameMode, &m.SizeKm, &m.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *CatalogRepository) ListActiveWeapons(ctx context.Context) ([]domain.Weapon, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, internal_id, name, category, faction, base_damage, fire_rate, magazine_size, is_active
		FROM weapons WHERE is_active = 1 ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Weapon
	for rows.Next() {
		var w domain.Weapon
		err := rows.Scan(&w.ID, &w.InternalID, &w.Name, &w.Category, &w.Faction,
			&w.BaseDamage, &w.FireRate, &w.MagazineSize, &w.IsActive)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) ListActiveVehicles(ctx context.Context, armedOnly bool) ([]domain.Vehicle, error) {
	query := `SELECT id, internal_id, name, category, faction, seats, has_weapons, is_active
		FROM vehicles WHERE is_active = 1`
	if armedOnly {
		query += ` AND has_weapons = 1`
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		err := rows.Scan(&v.ID, &v.InternalID, &v.Name, &v.Category, &v.Faction,
			&v.Seats, &v.HasWeapons, &v.IsActive)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) ListActiveMaps(ctx context.Context) ([]domain.GameMap, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, internal_id, name, game_mode, size_km, is_active
		FROM maps WHERE is_active = 1 ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GameMap
	for rows.Next() {
		var m domain.GameMap
		err := rows.Scan(&m.ID, &m.InternalID, &m.Name, &m.GameMode, &m.SizeKm, &m.IsActive)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) MapName(ctx context.Context, id int64) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM maps WHERE id = ?`, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "Unknown", nil
	}
	return name, err
}
