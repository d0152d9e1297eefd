package renders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hospup-backend/internal/timeline"
)

// Backend status vocabulary as reported by the remote render service.
const (
	BackendStatusSubmitted  = "submitted"
	BackendStatusProcessing = "processing"
	BackendStatusCompleted  = "completed"
	BackendStatusFailed     = "failed"
)

type BackendStatus struct {
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	OutputURL    string `json:"output_url"`
	ErrorMessage string `json:"error_message"`
}

// BackendClient talks to the remote render service. Submission failures are
// recoverable (the caller falls back to local capture); status failures are
// transient and the caller keeps the last known state.
type BackendClient interface {
	SubmitJob(ctx context.Context, job timeline.JobDescription) (string, error)
	JobStatus(ctx context.Context, backendJobID string) (BackendStatus, error)
}

// HTTPBackend is the production BackendClient.
type HTTPBackend struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewHTTPBackend(baseURL, apiKey string) *HTTPBackend {
	return &HTTPBackend{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *HTTPBackend) SubmitJob(ctx context.Context, job timeline.JobDescription) (string, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if b.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.APIKey)
	}

	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("render backend submit: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("render backend submit: decode response: %w", err)
	}
	if out.JobID == "" {
		return "", fmt.Errorf("render backend submit: empty job id")
	}
	return out.JobID, nil
}

func (b *HTTPBackend) JobStatus(ctx context.Context, backendJobID string) (BackendStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+"/jobs/"+backendJobID, nil)
	if err != nil {
		return BackendStatus{}, err
	}
	if b.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.APIKey)
	}

	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return BackendStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return BackendStatus{}, fmt.Errorf("render backend status: status %d", resp.StatusCode)
	}

	var st BackendStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return BackendStatus{}, fmt.Errorf("render backend status: decode response: %w", err)
	}
	return st, nil
}
