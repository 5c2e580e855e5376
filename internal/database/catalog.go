package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smartturf/internal/models"
)

func (db *DB) CreateTurf(ctx context.Context, turf *models.Turf) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, `INSERT INTO turfs (
				name, location, price_per_hour, latitude, longitude, rating, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		turf.Name, turf.Location, turf.PricePerHour,
		turf.Latitude, turf.Longitude, turf.Rating, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create turf: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	turf.ID = id
	turf.CreatedAt = now
	return nil
}

func (db *DB) GetTurf(ctx context.Context, id int64) (*models.Turf, error) {
	var t models.Turf
	query := `SELECT id, name, location, price_per_hour, latitude, longitude, rating, created_at
              FROM turfs WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Location, &t.PricePerHour,
		&t.Latitude, &t.Longitude, &t.Rating, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTurfNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get turf: %w", err)
	}
	return &t, nil
}

// GetTurfs lists the catalog the way clients display it: best rated first.
func (db *DB) GetTurfs(ctx context.Context) ([]*models.Turf, error) {
	query := `SELECT id, name, location, price_per_hour, latitude, longitude, rating, created_at
              FROM turfs ORDER BY rating DESC, name ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get turfs: %w", err)
	}
	defer rows.Close()

	var turfs []*models.Turf
	for rows.Next() {
		t := &models.Turf{}
		err := rows.Scan(
			&t.ID, &t.Name, &t.Location, &t.PricePerHour,
			&t.Latitude, &t.Longitude, &t.Rating, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turf: %w", err)
		}
		turfs = append(turfs, t)
	}
	return turfs, rows.Err()
}

func (db *DB) CreateKit(ctx context.Context, kit *models.Kit) error {
	// Catalog-seeded kits have no owner; NULL keeps the users FK satisfied.
	var ownerID interface{}
	if kit.OwnerID != 0 {
		ownerID = kit.OwnerID
	}

	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, `INSERT INTO kits (
				name, description, price_per_hour, available, owner_id, created_at
			) VALUES (?, ?, ?, ?, ?, ?)`,
		kit.Name, kit.Description, kit.PricePerHour, kit.Available, ownerID, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create kit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	kit.ID = id
	kit.CreatedAt = now
	return nil
}

func (db *DB) GetKit(ctx context.Context, id int64) (*models.Kit, error) {
	var k models.Kit
	query := `SELECT id, name, COALESCE(description, ''), price_per_hour, available, COALESCE(owner_id, 0), created_at
              FROM kits WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&k.ID, &k.Name, &k.Description, &k.PricePerHour, &k.Available, &k.OwnerID, &k.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kit: %w", err)
	}
	return &k, nil
}

// GetAvailableKits lists rentable kits, name ASC.
func (db *DB) GetAvailableKits(ctx context.Context) ([]*models.Kit, error) {
	query := `SELECT id, name, COALESCE(description, ''), price_per_hour, available, COALESCE(owner_id, 0), created_at
              FROM kits WHERE available = 1 ORDER BY name ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get kits: %w", err)
	}
	defer rows.Close()

	var kits []*models.Kit
	for rows.Next() {
		k := &models.Kit{}
		err := rows.Scan(
			&k.ID, &k.Name, &k.Description, &k.PricePerHour, &k.Available, &k.OwnerID, &k.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan kit: %w", err)
		}
		kits = append(kits, k)
	}
	return kits, rows.Err()
}

// SeedCatalog inserts the configured turfs and kits once, on an empty catalog.
// Used at startup so a fresh deployment serves a browsable listing.
func (db *DB) SeedCatalog(ctx context.Context, turfs []models.Turf, kits []models.Kit) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM turfs`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count turfs: %w", err)
	}
	if count > 0 {
		return nil
	}

	for i := range turfs {
		if err := db.CreateTurf(ctx, &turfs[i]); err != nil {
			return err
		}
	}
	for i := range kits {
		if err := db.CreateKit(ctx, &kits[i]); err != nil {
			return err
		}
	}
	return nil
}
