package renders

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hospup-backend/internal/shared/server/middleware"
	"hospup-backend/internal/shared/server/respond"
	"hospup-backend/internal/timeline"
)

// Handler wires HTTP handlers to the render service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches render routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/renders", h.submitRender)
	rg.GET("/renders", h.listRenders)
	rg.GET("/renders/:id", h.getRender)
	rg.GET("/renders/:id/artifact", h.downloadArtifact)
}

// submitRender accepts a pre-built job description. Most clients go through
// the composition endpoints instead; this is the raw entry point.
func (h *Handler) submitRender(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var payload timeline.JobDescription
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid job description", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), c.GetString("requestId"))
	job, err := h.Svc.Submit(ctx, userID, "", payload)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyJob):
			respond.Error(c, http.StatusUnprocessableEntity, "empty_job", "job description has no clips", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to submit render", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, job)
}

func (h *Handler) getRender(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	jobID := c.Param("id")
	if jobID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "render id is required", nil)
		return
	}

	job, err := h.Svc.Poll(c.Request.Context(), userID, jobID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "render job not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch render job", nil)
		}
		return
	}

	respond.OK(c, job)
}

// downloadArtifact streams a locally rendered output file. Cloud renders are
// fetched from their outputUrl instead.
func (h *Handler) downloadArtifact(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	jobID := c.Param("id")
	if jobID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "render id is required", nil)
		return
	}

	rc, contentType, err := h.Svc.Artifact(c.Request.Context(), userID, jobID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoArtifact):
			respond.Error(c, http.StatusNotFound, "not_found", "render artifact not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open render artifact", nil)
		}
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}

func (h *Handler) listRenders(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	list, err := h.Svc.List(c.Request.Context(), userID, limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list render jobs", nil)
		return
	}
	respond.OK(c, list)
}
