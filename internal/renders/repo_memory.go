package renders

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is the non-persistent fallback used when no database is
// configured. Jobs vanish on restart.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]RenderJob
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]RenderJob)}
}

func (r *MemoryRepo) Create(_ context.Context, job RenderJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[job.ID] = job
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, jobID string) (RenderJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.byID[jobID]
	if !ok {
		return RenderJob{}, ErrNotFound
	}
	return job, nil
}

func (r *MemoryRepo) Update(_ context.Context, jobID string, update JobUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byID[jobID]
	if !ok {
		return ErrNotFound
	}
	applyUpdate(&job, update)
	r.byID[jobID] = job
	return nil
}

func (r *MemoryRepo) ListByUser(_ context.Context, userID string, limit int) ([]RenderJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []RenderJob
	for _, job := range r.byID {
		if job.UserID == userID {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func applyUpdate(job *RenderJob, update JobUpdate) {
	if update.Status != nil {
		job.Status = *update.Status
	}
	if update.Progress != nil {
		job.Progress = *update.Progress
	}
	if update.Path != nil {
		job.Path = *update.Path
	}
	if update.BackendJobID != nil {
		job.BackendJobID = *update.BackendJobID
	}
	if update.OutputURL != nil {
		job.OutputURL = *update.OutputURL
	}
	if update.LocalPath != nil {
		job.LocalPath = *update.LocalPath
	}
	if update.OutputFormat != nil {
		job.OutputFormat = *update.OutputFormat
	}
	if update.Warning != nil {
		job.Warning = *update.Warning
	}
	if update.ErrorCode != nil {
		job.ErrorCode = *update.ErrorCode
	}
	if update.ErrorMessage != nil {
		job.ErrorMessage = *update.ErrorMessage
	}
	if update.StartedAt != nil {
		job.StartedAt = update.StartedAt
	}
	if update.CompletedAt != nil {
		job.CompletedAt = update.CompletedAt
	}
}
