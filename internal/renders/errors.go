package renders

import "errors"

var (
	ErrNotFound   = errors.New("render job not found")
	ErrEmptyJob   = errors.New("job description has no clips")
	ErrNoArtifact = errors.New("render job has no downloadable artifact")
)

// Stable machine-readable error codes surfaced on failed jobs.
const (
	ErrorCodeCaptureFailed = "CAPTURE_FAILED"
	ErrorCodeBackendFailed = "BACKEND_FAILED"
	ErrorCodeInternal      = "INTERNAL_ERROR"
)
