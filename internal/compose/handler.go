package compose

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hospup-backend/internal/assets"
	"hospup-backend/internal/renders"
	"hospup-backend/internal/shared/server/middleware"
	"hospup-backend/internal/shared/server/respond"
	"hospup-backend/internal/templates"
	"hospup-backend/internal/timeline"
)

// Handler wires HTTP handlers to the composition service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches composition routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/templates/:id/compositions", h.startComposition)
	rg.GET("/compositions/:id", h.getComposition)
	rg.PUT("/compositions/:id/slots/:slotId", h.assignSlot)
	rg.DELETE("/compositions/:id/slots/:slotId", h.unassignSlot)
	rg.POST("/compositions/:id/texts", h.addText)
	rg.DELETE("/compositions/:id/texts/:index", h.removeText)
	rg.GET("/compositions/:id/description", h.describeComposition)
	rg.POST("/compositions/:id/render", h.submitRender)
}

// sessionView is the JSON shape for a composition session.
type sessionView struct {
	ID         string             `json:"id"`
	TemplateID string             `json:"templateId"`
	Slots      []slotView         `json:"slots"`
	Texts      []timeline.Overlay `json:"texts"`
	CreatedAt  time.Time          `json:"createdAt"`
}

type slotView struct {
	timeline.Slot
	AssetID string `json:"assetId,omitempty"`
}

func viewOf(session *timeline.Session) sessionView {
	slots := session.Slots()
	views := make([]slotView, len(slots))
	for i, slot := range slots {
		views[i] = slotView{Slot: slot}
		if assetID, ok := session.AssignedAsset(slot.ID); ok {
			views[i].AssetID = assetID
		}
	}
	texts := session.Overlays()
	if texts == nil {
		texts = []timeline.Overlay{}
	}
	return sessionView{
		ID:         session.ID,
		TemplateID: session.TemplateID,
		Slots:      views,
		Texts:      texts,
		CreatedAt:  session.CreatedAt,
	}
}

func (h *Handler) startComposition(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	templateID := c.Param("id")
	if templateID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "template id is required", nil)
		return
	}

	session, err := h.Svc.Start(c.Request.Context(), userID, templateID)
	if err != nil {
		switch {
		case errors.Is(err, templates.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "template not found", nil)
		case errors.Is(err, timeline.ErrMalformedScript):
			respond.Error(c, http.StatusUnprocessableEntity, "malformed_script", "template script cannot be parsed", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start composition", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, viewOf(session))
}

func (h *Handler) getComposition(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	session, err := h.Svc.Get(userID, c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "composition not found", nil)
		return
	}
	respond.OK(c, viewOf(session))
}

type assignRequest struct {
	AssetID string `json:"assetId" binding:"required"`
	Force   bool   `json:"force"`
}

func (h *Handler) assignSlot(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "assetId is required", nil)
		return
	}

	err := h.Svc.Assign(c.Request.Context(), userID, c.Param("id"), c.Param("slotId"), req.AssetID, req.Force)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "composition not found", nil)
		case errors.Is(err, timeline.ErrUnknownSlot):
			respond.Error(c, http.StatusNotFound, "not_found", "slot not found", nil)
		case errors.Is(err, assets.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "asset not found", nil)
		case errors.Is(err, ErrAssetTooShort):
			respond.Error(c, http.StatusUnprocessableEntity, "asset_too_short", "asset is too short for the slot", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to assign asset", nil)
		}
		return
	}

	session, err := h.Svc.Get(userID, c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "composition not found", nil)
		return
	}
	respond.OK(c, viewOf(session))
}

func (h *Handler) unassignSlot(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	err := h.Svc.Unassign(userID, c.Param("id"), c.Param("slotId"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "composition not found", nil)
		case errors.Is(err, timeline.ErrUnknownSlot):
			respond.Error(c, http.StatusNotFound, "not_found", "slot not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to clear slot", nil)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addText(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var overlay timeline.Overlay
	if err := c.ShouldBindJSON(&overlay); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid text overlay", nil)
		return
	}

	index, err := h.Svc.AddText(userID, c.Param("id"), overlay)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "composition not found", nil)
		case errors.Is(err, timeline.ErrEmptyOverlay):
			respond.Error(c, http.StatusBadRequest, "validation_error", "overlay content is required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to add text", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, gin.H{"index": index})
}

func (h *Handler) removeText(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "text index must be an integer", nil)
		return
	}

	if err := h.Svc.RemoveText(userID, c.Param("id"), index); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "composition not found", nil)
		case errors.Is(err, ErrOverlayIndex):
			respond.Error(c, http.StatusNotFound, "not_found", "text overlay not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to remove text", nil)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) describeComposition(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	description, err := h.Svc.Describe(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "composition not found", nil)
		return
	}
	respond.OK(c, description)
}

func (h *Handler) submitRender(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	ctx := renders.WithRequestID(c.Request.Context(), c.GetString("requestId"))
	job, err := h.Svc.SubmitRender(ctx, userID, c.Param("id"))
	if err != nil {
		var unresolved *UnresolvedSlotsError
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "composition not found", nil)
		case errors.As(err, &unresolved):
			respond.Error(c, http.StatusUnprocessableEntity, "unresolved_slots", "all slots must be assigned before rendering",
				gin.H{"slotIds": unresolved.SlotIDs})
		case errors.Is(err, ErrUnresolvedSlots):
			respond.Error(c, http.StatusUnprocessableEntity, "unresolved_slots", "all slots must be assigned before rendering", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to submit render", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, job)
}
