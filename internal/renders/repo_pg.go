package renders

import (
	"context"
	"database/sql"
	"encoding/json"

	"hospup-backend/internal/timeline"
)

// PGRepo persists render jobs in Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, job RenderJob) error {
	const query = `
INSERT INTO render_jobs (
	id, user_id, composition_id, status, progress, path, backend_job_id,
	job_payload, output_url, local_path, output_format, warning,
	error_code, error_message, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		job.ID,
		job.UserID,
		job.CompositionID,
		job.Status,
		job.Progress,
		job.Path,
		job.BackendJobID,
		payload,
		job.OutputURL,
		job.LocalPath,
		job.OutputFormat,
		job.Warning,
		job.ErrorCode,
		job.ErrorMessage,
		job.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, jobID string) (RenderJob, error) {
	const query = `
SELECT id, user_id, composition_id, status, progress, path, backend_job_id,
       job_payload, output_url, local_path, output_format, warning,
       error_code, error_message, created_at, started_at, completed_at
FROM render_jobs
WHERE id = $1`

	return scanJob(r.DB.QueryRowContext(ctx, query, jobID))
}

// Update applies only the non-nil fields of the update.
func (r *PGRepo) Update(ctx context.Context, jobID string, update JobUpdate) error {
	const query = `
UPDATE render_jobs
SET status = COALESCE($1::text, status),
    progress = COALESCE($2::int, progress),
    path = COALESCE($3::text, path),
    backend_job_id = COALESCE($4::text, backend_job_id),
    output_url = COALESCE($5::text, output_url),
    local_path = COALESCE($6::text, local_path),
    output_format = COALESCE($7::text, output_format),
    warning = COALESCE($8::text, warning),
    error_code = COALESCE($9::text, error_code),
    error_message = COALESCE($10::text, error_message),
    started_at = COALESCE($11::timestamptz, started_at),
    completed_at = COALESCE($12::timestamptz, completed_at),
    updated_at = now()
WHERE id = $13`

	res, err := r.DB.ExecContext(ctx, query,
		update.Status,
		update.Progress,
		update.Path,
		update.BackendJobID,
		update.OutputURL,
		update.LocalPath,
		update.OutputFormat,
		update.Warning,
		update.ErrorCode,
		update.ErrorMessage,
		update.StartedAt,
		update.CompletedAt,
		jobID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]RenderJob, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `
SELECT id, user_id, composition_id, status, progress, path, backend_job_id,
       job_payload, output_url, local_path, output_format, warning,
       error_code, error_message, created_at, started_at, completed_at
FROM render_jobs
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RenderJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (RenderJob, error) {
	var job RenderJob
	var payload []byte
	var backendJobID, outputURL, localPath, outputFormat sql.NullString
	var warning, errorCode, errorMessage sql.NullString
	var startedAt, completedAt sql.NullTime
	err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.CompositionID,
		&job.Status,
		&job.Progress,
		&job.Path,
		&backendJobID,
		&payload,
		&outputURL,
		&localPath,
		&outputFormat,
		&warning,
		&errorCode,
		&errorMessage,
		&job.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return RenderJob{}, ErrNotFound
	}
	if err != nil {
		return RenderJob{}, err
	}
	job.BackendJobID = backendJobID.String
	job.OutputURL = outputURL.String
	job.LocalPath = localPath.String
	job.OutputFormat = outputFormat.String
	job.Warning = warning.String
	job.ErrorCode = errorCode.String
	job.ErrorMessage = errorMessage.String
	if len(payload) > 0 {
		var desc timeline.JobDescription
		if err := json.Unmarshal(payload, &desc); err == nil {
			job.Payload = desc
		}
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return job, nil
}
