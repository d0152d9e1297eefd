package templates

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new template.
func (r *PGRepo) Create(ctx context.Context, template Template) error {
	const query = `
INSERT INTO templates (id, title, description, script, duration, tags, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	scriptPayload, err := json.Marshal(template.Script)
	if err != nil {
		return err
	}
	tagsPayload, err := json.Marshal(template.Tags)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		template.ID,
		template.Title,
		template.Description,
		scriptPayload,
		template.Duration,
		tagsPayload,
		template.CreatedAt,
	)
	return err
}

// GetByID returns a template by ID.
func (r *PGRepo) GetByID(ctx context.Context, templateID string) (Template, error) {
	const query = `
SELECT id, title, description, script, duration, tags, created_at
FROM templates
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, templateID)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Template{}, ErrNotFound
	}
	return t, err
}

// List returns templates ordered by title with limit/offset.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Template, error) {
	const query = `
SELECT id, title, description, script, duration, tags, created_at
FROM templates
WHERE deleted_at IS NULL
ORDER BY title
LIMIT $1 OFFSET $2`
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (Template, error) {
	var t Template
	var scriptPayload, tagsPayload []byte
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &scriptPayload, &t.Duration, &tagsPayload, &t.CreatedAt); err != nil {
		return Template{}, err
	}
	if err := json.Unmarshal(scriptPayload, &t.Script); err != nil {
		// Older rows stored the script object directly rather than a JSON string.
		t.Script = string(scriptPayload)
	}
	if len(tagsPayload) > 0 {
		_ = json.Unmarshal(tagsPayload, &t.Tags)
	}
	return t, nil
}

var _ Repo = (*PGRepo)(nil)
