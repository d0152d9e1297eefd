package renders

import (
	"context"
	"time"
)

// JobUpdate is a partial update; nil fields are left untouched.
type JobUpdate struct {
	Status       *string
	Progress     *int
	Path         *string
	BackendJobID *string
	OutputURL    *string
	LocalPath    *string
	OutputFormat *string
	Warning      *string
	ErrorCode    *string
	ErrorMessage *string
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

type Repo interface {
	Create(ctx context.Context, job RenderJob) error
	GetByID(ctx context.Context, jobID string) (RenderJob, error)
	Update(ctx context.Context, jobID string, update JobUpdate) error
	ListByUser(ctx context.Context, userID string, limit int) ([]RenderJob, error)
}

func strPtr(s string) *string        { return &s }
func intPtr(n int) *int              { return &n }
func timePtr(t time.Time) *time.Time { return &t }
