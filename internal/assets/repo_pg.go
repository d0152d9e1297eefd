package assets

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new asset.
func (r *PGRepo) Create(ctx context.Context, asset Asset) error {
	const query = `
INSERT INTO assets (id, user_id, property_id, title, description, file_url, thumbnail_url, duration, mime_type, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	var thumbnail sql.NullString
	if asset.ThumbnailURL != "" {
		thumbnail = sql.NullString{String: asset.ThumbnailURL, Valid: true}
	}
	var duration sql.NullFloat64
	if asset.Duration > 0 {
		duration = sql.NullFloat64{Float64: asset.Duration, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query,
		asset.ID,
		asset.UserID,
		asset.PropertyID,
		asset.Title,
		asset.Description,
		asset.FileURL,
		thumbnail,
		duration,
		asset.MimeType,
		asset.CreatedAt,
	)
	return err
}

// GetByID returns an asset owned by the user.
func (r *PGRepo) GetByID(ctx context.Context, userID, assetID string) (Asset, error) {
	const query = `
SELECT id, user_id, property_id, title, description, file_url, thumbnail_url, duration, mime_type, created_at
FROM assets
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, assetID, userID)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Asset{}, ErrNotFound
	}
	return asset, err
}

// List returns the user's assets, newest first, with optional filters.
func (r *PGRepo) List(ctx context.Context, userID string, filter Filter, limit, offset int) ([]Asset, error) {
	const query = `
SELECT id, user_id, property_id, title, description, file_url, thumbnail_url, duration, mime_type, created_at
FROM assets
WHERE user_id = $1
  AND deleted_at IS NULL
  AND ($2 = '' OR property_id = $2)
  AND ($3 = '' OR mime_type LIKE $3 || '%')
ORDER BY created_at DESC
LIMIT $4 OFFSET $5`
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx, query, userID, filter.PropertyID, filter.MimePrefix, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Asset{}
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, asset)
	}
	return out, rows.Err()
}

// Delete soft-deletes the asset if the user owns it.
func (r *PGRepo) Delete(ctx context.Context, userID, assetID string) error {
	const query = `
UPDATE assets SET deleted_at = now()
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, assetID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (Asset, error) {
	var a Asset
	var thumbnail sql.NullString
	var duration sql.NullFloat64
	if err := row.Scan(
		&a.ID, &a.UserID, &a.PropertyID, &a.Title, &a.Description,
		&a.FileURL, &thumbnail, &duration, &a.MimeType, &a.CreatedAt,
	); err != nil {
		return Asset{}, err
	}
	if thumbnail.Valid {
		a.ThumbnailURL = thumbnail.String
	}
	if duration.Valid {
		a.Duration = duration.Float64
	}
	return a, nil
}

var _ Repo = (*PGRepo)(nil)
