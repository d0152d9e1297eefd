package renders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"hospup-backend/internal/capture"
	"hospup-backend/internal/queue"
	"hospup-backend/internal/shared/metrics"
	"hospup-backend/internal/shared/storage/object"
	"hospup-backend/internal/shared/telemetry"
	"hospup-backend/internal/shared/util"
	"hospup-backend/internal/timeline"
)

// CaptureClient renders a job description locally. Implemented by
// capture.Renderer; stubbed in tests.
type CaptureClient interface {
	Capture(ctx context.Context, job timeline.JobDescription) (capture.Result, error)
}

// Service owns the render job lifecycle: submit to the cloud backend, poll
// it, and fall back to local capture when submission fails. The fallback
// runs at most once per job; the two paths never run in parallel.
type Service struct {
	Repo     Repo
	Backend  BackendClient
	Capture  CaptureClient
	Store    object.ObjectStore
	JobQueue queue.Client

	limiter *pollLimiter
}

func NewService(repo Repo, backend BackendClient, capturer CaptureClient, store object.ObjectStore, jobQueue queue.Client) *Service {
	return &Service{
		Repo:     repo,
		Backend:  backend,
		Capture:  capturer,
		Store:    store,
		JobQueue: jobQueue,
		limiter:  newPollLimiter(0, nil),
	}
}

// Submit persists a new render job and kicks off asynchronous processing,
// either via the job queue or an in-process goroutine.
func (s *Service) Submit(ctx context.Context, userID, compositionID string, payload timeline.JobDescription) (RenderJob, error) {
	if userID == "" {
		return RenderJob{}, errors.New("userID is required")
	}
	if len(payload.Clips) == 0 {
		return RenderJob{}, ErrEmptyJob
	}

	job := RenderJob{
		ID:            uuid.NewString(),
		UserID:        userID,
		CompositionID: compositionID,
		Status:        StatusPreparing,
		Progress:      0,
		Path:          PathCloud,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, job); err != nil {
		return RenderJob{}, err
	}

	metrics.IncRenderStarted()
	telemetry.Info("render.status", map[string]any{
		"job_id":     job.ID,
		"status":     job.Status,
		"clips":      len(payload.Clips),
		"duration":   payload.TotalDuration,
		"request_id": requestIDFromContext(ctx),
	})

	if s.JobQueue != nil {
		msg := queue.Message{
			JobID:      job.ID,
			RequestID:  requestIDFromContext(ctx),
			EnqueuedAt: job.CreatedAt.Format(time.RFC3339),
			Version:    1,
		}
		err := s.JobQueue.Send(ctx, msg)
		if err == nil {
			return job, nil
		}
		// Queue down: degrade to in-process execution instead of losing the job.
		telemetry.Error("render.enqueue_failed", map[string]any{"job_id": job.ID, "error": err.Error()})
	}

	go s.processAsync(backgroundWithRequestID(ctx), job.ID)

	return job, nil
}

func (s *Service) processAsync(ctx context.Context, jobID string) {
	if err := s.Process(ctx, jobID); err != nil {
		telemetry.Error("render.process_failed", map[string]any{"job_id": jobID, "error": err.Error()})
	}
}

// Process advances a queued job: submit to the cloud backend, or run the
// capture fallback when submission fails. Safe to call again on a terminal
// job (queue redelivery).
func (s *Service) Process(ctx context.Context, jobID string) error {
	job, err := s.Repo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Terminal() {
		return nil
	}

	startedAt := time.Now().UTC()
	if err := s.Repo.Update(ctx, job.ID, JobUpdate{StartedAt: timePtr(startedAt)}); err != nil {
		return err
	}
	job.StartedAt = &startedAt

	if s.Backend != nil {
		backendJobID, submitErr := s.Backend.SubmitJob(ctx, job.Payload)
		if submitErr == nil {
			if err := s.Repo.Update(ctx, job.ID, JobUpdate{
				Status:       strPtr(StatusGenerating),
				Progress:     intPtr(progressAccepted),
				BackendJobID: strPtr(backendJobID),
			}); err != nil {
				return err
			}
			telemetry.Info("render.status", map[string]any{
				"job_id":         job.ID,
				"status":         StatusGenerating,
				"backend_job_id": backendJobID,
			})
			return nil
		}
		telemetry.Warn("render.backend_submit_failed", map[string]any{
			"job_id": job.ID,
			"error":  submitErr.Error(),
		})
	}

	return s.captureFallback(ctx, job)
}

// captureFallback renders locally and uploads the artifact. An upload
// failure still completes the job, with a warning and the local path kept.
func (s *Service) captureFallback(ctx context.Context, job RenderJob) error {
	if s.Capture == nil {
		s.fail(ctx, job, ErrorCodeInternal, "render backend unavailable and local capture not configured")
		return nil
	}

	metrics.IncRenderFallback()
	if err := s.Repo.Update(ctx, job.ID, JobUpdate{
		Path:     strPtr(PathFallback),
		Status:   strPtr(StatusGenerating),
		Progress: intPtr(progressTranscoding),
	}); err != nil {
		return err
	}

	artifact, err := s.Capture.Capture(ctx, job.Payload)
	if err != nil {
		s.fail(ctx, job, ErrorCodeCaptureFailed, err.Error())
		return nil
	}

	if err := s.Repo.Update(ctx, job.ID, JobUpdate{
		Status:       strPtr(StatusUploading),
		Progress:     intPtr(progressUploading),
		OutputFormat: strPtr(artifact.Format),
	}); err != nil {
		return err
	}

	outputURL, uploadErr := s.persistArtifact(ctx, job, artifact)
	completedAt := time.Now().UTC()
	update := JobUpdate{
		Status:      strPtr(StatusCompleted),
		Progress:    intPtr(progressDone),
		CompletedAt: timePtr(completedAt),
	}
	if uploadErr != nil {
		update.Warning = strPtr("output upload failed; video kept on local disk")
		update.LocalPath = strPtr(artifact.Path)
		telemetry.Warn("render.persist_failed", map[string]any{
			"job_id": job.ID,
			"path":   artifact.Path,
			"error":  uploadErr.Error(),
		})
	} else {
		update.OutputURL = strPtr(outputURL)
	}
	if err := s.Repo.Update(ctx, job.ID, update); err != nil {
		return err
	}

	metrics.IncRenderCompleted()
	metrics.ObserveRenderDurationMs(durationMs(job.StartedAt, completedAt))
	telemetry.Info("render.status", map[string]any{
		"job_id": job.ID,
		"status": StatusCompleted,
		"path":   PathFallback,
	})
	return nil
}

func (s *Service) persistArtifact(ctx context.Context, job RenderJob, artifact capture.Result) (string, error) {
	if s.Store == nil {
		return "", errors.New("object store not configured")
	}
	f, err := os.Open(artifact.Path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := artifactKey(job.UserID, job.ID, artifact.Format)
	if _, err := s.Store.SaveWithKey(ctx, key, artifact.ContentType, f); err != nil {
		return "", err
	}
	return s.Store.URLFor(key), nil
}

// Artifact streams the output of a fallback-rendered job: from the object
// store when the upload succeeded, from local disk when the job completed
// degraded. Cloud renders live at their OutputURL and are not served here.
func (s *Service) Artifact(ctx context.Context, userID, jobID string) (io.ReadCloser, string, error) {
	job, err := s.Repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, "", err
	}
	if job.UserID != userID {
		return nil, "", ErrNotFound
	}
	if job.Status != StatusCompleted || job.Path != PathFallback {
		return nil, "", ErrNoArtifact
	}

	contentType := contentTypeFor(job.OutputFormat)
	if job.LocalPath != "" {
		f, err := os.Open(job.LocalPath)
		if err != nil {
			return nil, "", err
		}
		return f, contentType, nil
	}
	if s.Store == nil {
		return nil, "", ErrNoArtifact
	}
	rc, err := s.Store.Open(ctx, artifactKey(job.UserID, job.ID, job.OutputFormat))
	if err != nil {
		return nil, "", err
	}
	return rc, contentType, nil
}

func artifactKey(userID, jobID, format string) string {
	return fmt.Sprintf("renders/%s/%s.%s", util.HashUserKey(userID), jobID, format)
}

func contentTypeFor(format string) string {
	switch format {
	case "mp4":
		return "video/mp4"
	case "webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}

func (s *Service) fail(ctx context.Context, job RenderJob, code, message string) {
	completedAt := time.Now().UTC()
	if err := s.Repo.Update(ctx, job.ID, JobUpdate{
		Status:       strPtr(StatusError),
		ErrorCode:    strPtr(code),
		ErrorMessage: strPtr(message),
		CompletedAt:  timePtr(completedAt),
	}); err != nil {
		telemetry.Error("render.fail_update", map[string]any{"job_id": job.ID, "error": err.Error()})
	}
	metrics.IncRenderFailed()
	telemetry.Info("render.status", map[string]any{
		"job_id":     job.ID,
		"status":     StatusError,
		"error_code": code,
	})
}

// Poll returns the current state of a job. Terminal jobs come straight from
// the repo; in-flight cloud jobs refresh from the backend, rate limited per
// user+job so dashboard polling cannot hammer the backend.
func (s *Service) Poll(ctx context.Context, userID, jobID string) (RenderJob, error) {
	job, err := s.Repo.GetByID(ctx, jobID)
	if err != nil {
		return RenderJob{}, err
	}
	if job.UserID != userID {
		return RenderJob{}, ErrNotFound
	}
	if job.Terminal() {
		return job, nil
	}
	if job.Path != PathCloud || job.BackendJobID == "" || s.Backend == nil {
		return job, nil
	}
	if !s.limiter.Allow(userID, jobID) {
		return job, nil
	}

	st, err := s.Backend.JobStatus(ctx, job.BackendJobID)
	if err != nil {
		// Transient backend hiccup: keep the last known state.
		telemetry.Warn("render.backend_status_failed", map[string]any{
			"job_id": job.ID,
			"error":  err.Error(),
		})
		return job, nil
	}

	return s.applyBackendStatus(ctx, job, st)
}

func (s *Service) applyBackendStatus(ctx context.Context, job RenderJob, st BackendStatus) (RenderJob, error) {
	switch st.Status {
	case BackendStatusSubmitted:
		return job, nil
	case BackendStatusProcessing:
		if job.Progress < progressTranscoding {
			if err := s.Repo.Update(ctx, job.ID, JobUpdate{
				Status:   strPtr(StatusGenerating),
				Progress: intPtr(progressTranscoding),
			}); err != nil {
				return RenderJob{}, err
			}
			job.Status = StatusGenerating
			job.Progress = progressTranscoding
		}
		return job, nil
	case BackendStatusCompleted:
		completedAt := time.Now().UTC()
		if err := s.Repo.Update(ctx, job.ID, JobUpdate{
			Status:      strPtr(StatusCompleted),
			Progress:    intPtr(progressDone),
			OutputURL:   strPtr(st.OutputURL),
			CompletedAt: timePtr(completedAt),
		}); err != nil {
			return RenderJob{}, err
		}
		job.Status = StatusCompleted
		job.Progress = progressDone
		job.OutputURL = st.OutputURL
		job.CompletedAt = &completedAt
		metrics.IncRenderCompleted()
		metrics.ObserveRenderDurationMs(durationMs(job.StartedAt, completedAt))
		telemetry.Info("render.status", map[string]any{
			"job_id": job.ID,
			"status": StatusCompleted,
			"path":   PathCloud,
		})
		return job, nil
	case BackendStatusFailed:
		message := st.ErrorMessage
		if message == "" {
			message = "render backend reported failure"
		}
		s.fail(ctx, job, ErrorCodeBackendFailed, message)
		return s.Repo.GetByID(ctx, job.ID)
	default:
		telemetry.Warn("render.backend_status_unknown", map[string]any{
			"job_id": job.ID,
			"status": st.Status,
		})
		return job, nil
	}
}

// List returns the caller's jobs, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]RenderJob, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	return s.Repo.ListByUser(ctx, userID, limit)
}

func durationMs(startedAt *time.Time, completedAt time.Time) float64 {
	if startedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Milliseconds())
}
