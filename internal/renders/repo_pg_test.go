package renders

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"hospup-backend/internal/timeline"
)

func TestPGRepoCreatePersistsPayload(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	job := RenderJob{
		ID:            "job-1",
		UserID:        "user-1",
		CompositionID: "comp-1",
		Status:        StatusPreparing,
		Path:          PathCloud,
		Payload: timeline.JobDescription{
			Clips:         []timeline.ResolvedClip{{Order: 1, Duration: 2, VideoID: "a", EndTime: 2}},
			TotalDuration: 2,
		},
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO render_jobs").
		WithArgs(
			job.ID,
			job.UserID,
			job.CompositionID,
			job.Status,
			job.Progress,
			job.Path,
			job.BackendJobID,
			sqlmock.AnyArg(), // job_payload
			job.OutputURL,
			job.LocalPath,
			job.OutputFormat,
			job.Warning,
			job.ErrorCode,
			job.ErrorMessage,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE render_jobs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), "missing", JobUpdate{Status: strPtr(StatusGenerating)})
	if err != ErrNotFound {
		t.Fatalf("Update err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDScansPayload(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	created := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "composition_id", "status", "progress", "path", "backend_job_id",
		"job_payload", "output_url", "local_path", "output_format", "warning",
		"error_code", "error_message", "created_at", "started_at", "completed_at",
	}).AddRow(
		"job-1", "user-1", "comp-1", StatusGenerating, 20, PathCloud, "backend-1",
		[]byte(`{"clips":[{"order":1,"duration":2,"description":"","video_url":"u","video_id":"a","start_time":0,"end_time":2}],"texts":[],"total_duration":2}`),
		nil, nil, nil, nil, nil, nil, created, nil, nil,
	)

	mock.ExpectQuery("SELECT (.+) FROM render_jobs").
		WithArgs("job-1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusGenerating || got.BackendJobID != "backend-1" {
		t.Fatalf("got %s/%s", got.Status, got.BackendJobID)
	}
	if len(got.Payload.Clips) != 1 || got.Payload.Clips[0].VideoID != "a" {
		t.Fatalf("payload not restored: %+v", got.Payload)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
