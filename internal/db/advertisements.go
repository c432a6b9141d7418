package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/egresados-admin/internal/ads"
)

const adColumns = `id, name, placements, format, content, media_type, media, redirect_url, created_at`

// SaveAdvertisement inserts a or replaces the stored ad with the same ID.
func (db *DB) SaveAdvertisement(ctx context.Context, a ads.Advertisement) error {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return fmt.Errorf("invalid advertisement id %q: %w", a.ID, err)
	}

	placements := make([]string, len(a.Placements))
	for i, p := range a.Placements {
		placements[i] = string(p)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO advertisements (`+adColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			name = $2, placements = $3, format = $4, content = $5,
			media_type = $6, media = $7, redirect_url = $8`,
		id, a.Name, placements, string(a.Format), a.Content, a.MediaType, a.Media, a.RedirectURL, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save advertisement %s: %w", a.ID, err)
	}
	return nil
}

// ListAdvertisements returns every ad, newest first.
func (db *DB) ListAdvertisements(ctx context.Context) ([]ads.Advertisement, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+adColumns+` FROM advertisements ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list advertisements: %w", err)
	}
	defer rows.Close()

	var out []ads.Advertisement
	for rows.Next() {
		a, err := scanAdvertisement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list advertisements: %w", err)
	}
	return out, nil
}

// GetAdvertisement returns the ad with id, or ads.ErrNotFound.
func (db *DB) GetAdvertisement(ctx context.Context, id string) (ads.Advertisement, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ads.Advertisement{}, ads.ErrNotFound
	}

	row := db.pool.QueryRow(ctx, `SELECT `+adColumns+` FROM advertisements WHERE id = $1`, uid)
	a, err := scanAdvertisement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ads.Advertisement{}, ads.ErrNotFound
	}
	return a, err
}

func scanAdvertisement(row pgx.Row) (ads.Advertisement, error) {
	var (
		a          ads.Advertisement
		id         uuid.UUID
		placements []string
		format     string
	)
	err := row.Scan(&id, &a.Name, &placements, &format, &a.Content, &a.MediaType, &a.Media, &a.RedirectURL, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ads.Advertisement{}, err
		}
		return ads.Advertisement{}, fmt.Errorf("failed to scan advertisement: %w", err)
	}

	a.ID = id.String()
	a.Format = ads.Format(format)
	for _, p := range placements {
		a.Placements = append(a.Placements, ads.Placement(p))
	}
	return a, nil
}

var _ ads.Store = (*DB)(nil)
