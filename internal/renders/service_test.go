package renders

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hospup-backend/internal/capture"
	"hospup-backend/internal/queue"
	"hospup-backend/internal/timeline"
)

type stubBackend struct {
	submitID    string
	submitErr   error
	submitCalls int
	status      BackendStatus
	statusErr   error
	statusCalls int
}

func (b *stubBackend) SubmitJob(_ context.Context, _ timeline.JobDescription) (string, error) {
	b.submitCalls++
	return b.submitID, b.submitErr
}

func (b *stubBackend) JobStatus(_ context.Context, _ string) (BackendStatus, error) {
	b.statusCalls++
	return b.status, b.statusErr
}

type stubCapture struct {
	result capture.Result
	err    error
	calls  int
}

func (c *stubCapture) Capture(_ context.Context, _ timeline.JobDescription) (capture.Result, error) {
	c.calls++
	return c.result, c.err
}

type stubStore struct {
	saveErr error
	keys    []string
	objects map[string][]byte
}

func (s *stubStore) SaveWithKey(_ context.Context, key string, _ string, r io.Reader) (int64, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = data
	s.keys = append(s.keys, key)
	return int64(len(data)), nil
}

func (s *stubStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found: " + key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *stubStore) URLFor(key string) string { return "https://cdn.example.com/" + key }

type dropQueue struct{ sent []queue.Message }

func (q *dropQueue) Send(_ context.Context, msg queue.Message) error {
	q.sent = append(q.sent, msg)
	return nil
}

func testPayload() timeline.JobDescription {
	return timeline.JobDescription{
		Clips: []timeline.ResolvedClip{
			{Order: 1, Duration: 2, VideoURL: "https://cdn.example.com/a.mp4", VideoID: "a", EndTime: 2},
			{Order: 2, Duration: 3, VideoURL: "https://cdn.example.com/b.mp4", VideoID: "b", StartTime: 2, EndTime: 5},
		},
		TotalDuration: 5,
	}
}

func writeArtifact(t *testing.T) capture.Result {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.mp4")
	if err := os.WriteFile(path, []byte("mp4-bytes"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return capture.Result{Path: path, Format: "mp4", ContentType: "video/mp4"}
}

// Submitting with a working queue must not process in-process.
func TestSubmitEnqueues(t *testing.T) {
	repo := NewMemoryRepo()
	q := &dropQueue{}
	svc := NewService(repo, &stubBackend{submitID: "b-1"}, nil, &stubStore{}, q)

	job, err := svc.Submit(context.Background(), "user-1", "comp-1", testPayload())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.Status != StatusPreparing {
		t.Fatalf("status = %q, want %q", job.Status, StatusPreparing)
	}
	if len(q.sent) != 1 || q.sent[0].JobID != job.ID {
		t.Fatalf("expected one queue message for %s, got %+v", job.ID, q.sent)
	}
}

func TestSubmitEmptyJob(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil, nil, &stubStore{}, &dropQueue{})
	_, err := svc.Submit(context.Background(), "user-1", "", timeline.JobDescription{})
	if !errors.Is(err, ErrEmptyJob) {
		t.Fatalf("err = %v, want ErrEmptyJob", err)
	}
}

func TestProcessCloudAccepted(t *testing.T) {
	repo := NewMemoryRepo()
	backend := &stubBackend{submitID: "backend-1"}
	svc := NewService(repo, backend, &stubCapture{}, &stubStore{}, &dropQueue{})

	job, err := svc.Submit(context.Background(), "user-1", "", testPayload())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, err := repo.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusGenerating || got.Progress != 20 {
		t.Fatalf("got %s/%d, want generating/20", got.Status, got.Progress)
	}
	if got.BackendJobID != "backend-1" || got.Path != PathCloud {
		t.Fatalf("backend job id %q path %q", got.BackendJobID, got.Path)
	}
}

// A rejected cloud submission must fall back to local capture exactly once
// and finish as a normal completed job.
func TestProcessFallbackOnSubmitFailure(t *testing.T) {
	repo := NewMemoryRepo()
	backend := &stubBackend{submitErr: errors.New("503 from backend")}
	capturer := &stubCapture{result: writeArtifact(t)}
	store := &stubStore{}
	svc := NewService(repo, backend, capturer, store, &dropQueue{})

	job, err := svc.Submit(context.Background(), "user-1", "", testPayload())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.Status != StatusCompleted || got.Progress != 100 {
		t.Fatalf("got %s/%d, want completed/100", got.Status, got.Progress)
	}
	if got.Path != PathFallback {
		t.Fatalf("path = %q, want fallback", got.Path)
	}
	if got.ErrorCode != "" || got.ErrorMessage != "" {
		t.Fatalf("submission failure leaked to caller: %q %q", got.ErrorCode, got.ErrorMessage)
	}
	if backend.submitCalls != 1 || capturer.calls != 1 {
		t.Fatalf("submit calls %d capture calls %d, want 1 and 1", backend.submitCalls, capturer.calls)
	}
	if len(store.keys) != 1 {
		t.Fatalf("expected one stored object, got %v", store.keys)
	}
	if got.OutputURL != "https://cdn.example.com/"+store.keys[0] {
		t.Fatalf("output url = %q", got.OutputURL)
	}
	if got.CompletedAt == nil {
		t.Fatal("completed job missing completedAt")
	}
}

func TestProcessCaptureFailure(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, &stubBackend{submitErr: errors.New("down")},
		&stubCapture{err: errors.New("ffmpeg exited with code 1")}, &stubStore{}, &dropQueue{})

	job, _ := svc.Submit(context.Background(), "user-1", "", testPayload())
	if err := svc.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.Status != StatusError {
		t.Fatalf("status = %q, want error", got.Status)
	}
	if got.ErrorCode != ErrorCodeCaptureFailed {
		t.Fatalf("error code = %q, want %q", got.ErrorCode, ErrorCodeCaptureFailed)
	}
	if got.ErrorMessage != "ffmpeg exited with code 1" {
		t.Fatalf("error message = %q, want capture error verbatim", got.ErrorMessage)
	}
}

// Upload failure after a successful capture is a degraded success, not an
// error: the job completes with a warning and the local path.
func TestProcessPersistFailureDegrades(t *testing.T) {
	repo := NewMemoryRepo()
	artifact := writeArtifact(t)
	svc := NewService(repo, &stubBackend{submitErr: errors.New("down")},
		&stubCapture{result: artifact}, &stubStore{saveErr: errors.New("bucket gone")}, &dropQueue{})

	job, _ := svc.Submit(context.Background(), "user-1", "", testPayload())
	if err := svc.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.Status != StatusCompleted || got.Progress != 100 {
		t.Fatalf("got %s/%d, want completed/100", got.Status, got.Progress)
	}
	if got.Warning == "" {
		t.Fatal("expected warning on degraded completion")
	}
	if got.LocalPath != artifact.Path {
		t.Fatalf("local path = %q, want %q", got.LocalPath, artifact.Path)
	}
	if got.OutputURL != "" {
		t.Fatalf("unexpected output url %q", got.OutputURL)
	}
}

// Neither backend nor capture configured is a deployment mistake, not a
// backend fault: the job fails with the internal code.
func TestProcessWithoutCaptureConfigured(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, &stubBackend{submitErr: errors.New("down")}, nil, &stubStore{}, &dropQueue{})

	job, _ := svc.Submit(context.Background(), "user-1", "", testPayload())
	if err := svc.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.Status != StatusError {
		t.Fatalf("status = %q, want error", got.Status)
	}
	if got.ErrorCode != ErrorCodeInternal {
		t.Fatalf("error code = %q, want %q", got.ErrorCode, ErrorCodeInternal)
	}
}

// A fallback render that uploaded fine streams back from the object store.
func TestArtifactFromStore(t *testing.T) {
	repo := NewMemoryRepo()
	store := &stubStore{}
	svc := NewService(repo, &stubBackend{submitErr: errors.New("down")},
		&stubCapture{result: writeArtifact(t)}, store, &dropQueue{})

	job, _ := svc.Submit(context.Background(), "user-1", "", testPayload())
	if err := svc.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	rc, contentType, err := svc.Artifact(context.Background(), "user-1", job.ID)
	if err != nil {
		t.Fatalf("artifact: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "mp4-bytes" {
		t.Fatalf("artifact bytes = %q", data)
	}
	if contentType != "video/mp4" {
		t.Fatalf("content type = %q, want video/mp4", contentType)
	}
}

// A degraded completion kept the file on local disk; the artifact still
// streams from there.
func TestArtifactFromLocalPath(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, &stubBackend{submitErr: errors.New("down")},
		&stubCapture{result: writeArtifact(t)}, &stubStore{saveErr: errors.New("bucket gone")}, &dropQueue{})

	job, _ := svc.Submit(context.Background(), "user-1", "", testPayload())
	if err := svc.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	rc, _, err := svc.Artifact(context.Background(), "user-1", job.ID)
	if err != nil {
		t.Fatalf("artifact: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "mp4-bytes" {
		t.Fatalf("artifact bytes = %q", data)
	}
}

func TestArtifactUnavailableForCloudJob(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, &stubBackend{}, nil, &stubStore{}, &dropQueue{})

	done := time.Now().UTC()
	_ = repo.Create(context.Background(), RenderJob{
		ID: "job-1", UserID: "user-1", Status: StatusCompleted, Progress: 100,
		Path: PathCloud, OutputURL: "https://cdn/x.mp4", CreatedAt: done, CompletedAt: &done,
	})

	if _, _, err := svc.Artifact(context.Background(), "user-1", "job-1"); !errors.Is(err, ErrNoArtifact) {
		t.Fatalf("err = %v, want ErrNoArtifact", err)
	}
}

func TestArtifactOwnership(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil, nil, &stubStore{}, &dropQueue{})
	_ = repo.Create(context.Background(), RenderJob{
		ID: "job-1", UserID: "user-1", Status: StatusCompleted, Path: PathFallback,
		LocalPath: "/nowhere", CreatedAt: time.Now().UTC(),
	})

	if _, _, err := svc.Artifact(context.Background(), "user-2", "job-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPollTerminalSkipsBackend(t *testing.T) {
	repo := NewMemoryRepo()
	backend := &stubBackend{}
	svc := NewService(repo, backend, nil, &stubStore{}, &dropQueue{})

	done := time.Now().UTC()
	_ = repo.Create(context.Background(), RenderJob{
		ID: "job-1", UserID: "user-1", Status: StatusCompleted, Progress: 100,
		Path: PathCloud, BackendJobID: "b-1", OutputURL: "https://cdn/x.mp4",
		CreatedAt: done, CompletedAt: &done,
	})

	got, err := svc.Poll(context.Background(), "user-1", "job-1")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if got.Status != StatusCompleted || backend.statusCalls != 0 {
		t.Fatalf("terminal poll hit backend (%d calls)", backend.statusCalls)
	}
}

func TestPollMapsBackendStatus(t *testing.T) {
	repo := NewMemoryRepo()
	backend := &stubBackend{status: BackendStatus{Status: BackendStatusProcessing}}
	svc := NewService(repo, backend, nil, &stubStore{}, &dropQueue{})
	svc.limiter = newPollLimiter(time.Nanosecond, nil)

	started := time.Now().UTC()
	_ = repo.Create(context.Background(), RenderJob{
		ID: "job-1", UserID: "user-1", Status: StatusGenerating, Progress: 20,
		Path: PathCloud, BackendJobID: "b-1", CreatedAt: started, StartedAt: &started,
	})

	got, err := svc.Poll(context.Background(), "user-1", "job-1")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if got.Status != StatusGenerating || got.Progress != 40 {
		t.Fatalf("got %s/%d, want generating/40", got.Status, got.Progress)
	}

	backend.status = BackendStatus{Status: BackendStatusCompleted, OutputURL: "https://cdn/final.mp4"}
	time.Sleep(time.Millisecond)
	got, err = svc.Poll(context.Background(), "user-1", "job-1")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if got.Status != StatusCompleted || got.Progress != 100 {
		t.Fatalf("got %s/%d, want completed/100", got.Status, got.Progress)
	}
	if got.OutputURL != "https://cdn/final.mp4" {
		t.Fatalf("output url = %q", got.OutputURL)
	}
}

func TestPollBackendFailureIsTerminal(t *testing.T) {
	repo := NewMemoryRepo()
	backend := &stubBackend{status: BackendStatus{Status: BackendStatusFailed, ErrorMessage: "gpu pool exhausted"}}
	svc := NewService(repo, backend, nil, &stubStore{}, &dropQueue{})
	svc.limiter = newPollLimiter(time.Nanosecond, nil)

	_ = repo.Create(context.Background(), RenderJob{
		ID: "job-1", UserID: "user-1", Status: StatusGenerating, Progress: 20,
		Path: PathCloud, BackendJobID: "b-1", CreatedAt: time.Now().UTC(),
	})

	got, err := svc.Poll(context.Background(), "user-1", "job-1")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if got.Status != StatusError || got.ErrorCode != ErrorCodeBackendFailed {
		t.Fatalf("got %s/%s, want error/%s", got.Status, got.ErrorCode, ErrorCodeBackendFailed)
	}
	if got.ErrorMessage != "gpu pool exhausted" {
		t.Fatalf("error message = %q", got.ErrorMessage)
	}
}

func TestPollRateLimited(t *testing.T) {
	repo := NewMemoryRepo()
	backend := &stubBackend{status: BackendStatus{Status: BackendStatusProcessing}}
	svc := NewService(repo, backend, nil, &stubStore{}, &dropQueue{})

	_ = repo.Create(context.Background(), RenderJob{
		ID: "job-1", UserID: "user-1", Status: StatusGenerating, Progress: 20,
		Path: PathCloud, BackendJobID: "b-1", CreatedAt: time.Now().UTC(),
	})

	for i := 0; i < 3; i++ {
		if _, err := svc.Poll(context.Background(), "user-1", "job-1"); err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
	}
	if backend.statusCalls != 1 {
		t.Fatalf("backend status calls = %d, want 1 inside limiter window", backend.statusCalls)
	}
}

func TestPollOwnership(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil, nil, &stubStore{}, &dropQueue{})
	_ = repo.Create(context.Background(), RenderJob{ID: "job-1", UserID: "user-1", Status: StatusPreparing, CreatedAt: time.Now().UTC()})

	if _, err := svc.Poll(context.Background(), "user-2", "job-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// Queue redelivery of a finished job must be a no-op.
func TestProcessTerminalIdempotent(t *testing.T) {
	repo := NewMemoryRepo()
	backend := &stubBackend{submitID: "b-1"}
	svc := NewService(repo, backend, nil, &stubStore{}, &dropQueue{})

	done := time.Now().UTC()
	_ = repo.Create(context.Background(), RenderJob{
		ID: "job-1", UserID: "user-1", Status: StatusCompleted, Progress: 100,
		CreatedAt: done, CompletedAt: &done,
	})

	if err := svc.Process(context.Background(), "job-1"); err != nil {
		t.Fatalf("process: %v", err)
	}
	if backend.submitCalls != 0 {
		t.Fatalf("terminal job resubmitted %d times", backend.submitCalls)
	}
}
