package assets

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hospup-backend/internal/shared/server/middleware"
	"hospup-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the asset service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches asset routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/assets", h.listAssets)
	rg.GET("/assets/:id", h.getAsset)
	rg.DELETE("/assets/:id", h.deleteAsset)
}

func (h *Handler) listAssets(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	filter := Filter{
		PropertyID: c.Query("propertyId"),
		MimePrefix: c.Query("type"),
	}
	limit := 50
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	list, err := h.Svc.List(c.Request.Context(), userID, filter, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list assets", nil)
		return
	}
	respond.OK(c, list)
}

func (h *Handler) getAsset(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	assetID := c.Param("id")
	if assetID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "asset id is required", nil)
		return
	}

	asset, err := h.Svc.Get(c.Request.Context(), userID, assetID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "asset not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch asset", nil)
		}
		return
	}
	respond.OK(c, asset)
}

func (h *Handler) deleteAsset(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	assetID := c.Param("id")
	if assetID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "asset id is required", nil)
		return
	}

	if err := h.Svc.Delete(c.Request.Context(), userID, assetID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "asset not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete asset", nil)
		}
		return
	}
	respond.JSON(c, http.StatusNoContent, nil)
}
