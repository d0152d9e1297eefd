package renders

import (
	"time"

	"hospup-backend/internal/timeline"
)

// Status vocabulary exposed to callers. It is a superset of the raw backend
// vocabulary: fallback stages get named too, so the caller sees one
// consistent contract whichever path rendered the video.
const (
	StatusPreparing  = "preparing"
	StatusGenerating = "generating"
	StatusUploading  = "uploading"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Render path. A job starts on the cloud path and may switch to fallback
// exactly once; the two are mutually exclusive states, never parallel flags.
const (
	PathCloud    = "cloud"
	PathFallback = "fallback"
)

// Coarse stage-based progress. Callers must not assume linear real time.
const (
	progressAccepted    = 20
	progressTranscoding = 40
	progressUploading   = 80
	progressDone        = 100
)

// RenderJob is one unit of asynchronous work turning a composition into an
// output video. The payload snapshot is immutable once submitted; later
// session edits never affect an in-flight job.
type RenderJob struct {
	ID            string                  `json:"jobId"`
	UserID        string                  `json:"userId"`
	CompositionID string                  `json:"compositionId,omitempty"`
	Status        string                  `json:"status"`
	Progress      int                     `json:"progress"`
	Path          string                  `json:"path"`
	BackendJobID  string                  `json:"-"`
	Payload       timeline.JobDescription `json:"-"`
	OutputURL     string                  `json:"outputUrl,omitempty"`
	LocalPath     string                  `json:"localPath,omitempty"`
	OutputFormat  string                  `json:"outputFormat,omitempty"`
	Warning       string                  `json:"warning,omitempty"`
	ErrorCode     string                  `json:"errorCode,omitempty"`
	ErrorMessage  string                  `json:"errorMessage,omitempty"`
	CreatedAt     time.Time               `json:"createdAt"`
	StartedAt     *time.Time              `json:"startedAt,omitempty"`
	CompletedAt   *time.Time              `json:"completedAt,omitempty"`
}

// Terminal reports whether the job has reached a final state. Polling a
// terminal job returns the cached record unchanged.
func (j RenderJob) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusError
}
