package renders

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		userID := c.GetHeader("X-User-Id")
		if userID == "" {
			userID = "user-1"
		}
		c.Set("userId", userID)
		c.Next()
	})
	api := router.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)
	return router
}

func TestDownloadArtifact(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, &stubBackend{submitErr: errors.New("down")},
		&stubCapture{result: writeArtifact(t)}, &stubStore{}, &dropQueue{})

	job, _ := svc.Submit(context.Background(), "user-1", "", testPayload())
	if err := svc.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	router := newTestRouter(t, svc)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/renders/"+job.ID+"/artifact", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status %d body %s", resp.Code, resp.Body.String())
	}
	if resp.Body.String() != "mp4-bytes" {
		t.Fatalf("body = %q", resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("content type = %q, want video/mp4", ct)
	}
}

// A degraded completion still serves the video, straight from local disk.
func TestDownloadArtifactDegradedJob(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, &stubBackend{submitErr: errors.New("down")},
		&stubCapture{result: writeArtifact(t)}, &stubStore{saveErr: errors.New("bucket gone")}, &dropQueue{})

	job, _ := svc.Submit(context.Background(), "user-1", "", testPayload())
	if err := svc.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	router := newTestRouter(t, svc)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/renders/"+job.ID+"/artifact", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status %d body %s", resp.Code, resp.Body.String())
	}
	if resp.Body.String() != "mp4-bytes" {
		t.Fatalf("body = %q", resp.Body.String())
	}
}

func TestDownloadArtifactOwnership(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, &stubBackend{submitErr: errors.New("down")},
		&stubCapture{result: writeArtifact(t)}, &stubStore{}, &dropQueue{})

	job, _ := svc.Submit(context.Background(), "user-1", "", testPayload())
	if err := svc.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	router := newTestRouter(t, svc)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/renders/"+job.ID+"/artifact", nil)
	req.Header.Set("X-User-Id", "user-2")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("cross-user artifact: status %d, want 404", resp.Code)
	}
}
