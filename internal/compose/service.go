package compose

import (
	"context"

	"github.com/google/uuid"

	"hospup-backend/internal/assets"
	"hospup-backend/internal/renders"
	"hospup-backend/internal/shared/telemetry"
	"hospup-backend/internal/templates"
	"hospup-backend/internal/timeline"
)

// Service drives the composition flow: open a session from a template,
// assign footage to slots, lay text over the timeline, and hand the
// resolved job description to the render service.
type Service struct {
	Templates *templates.Service
	Assets    *assets.Service
	Renders   *renders.Service
	Sessions  *SessionStore
}

func NewService(tpl *templates.Service, ast *assets.Service, rnd *renders.Service) *Service {
	return &Service{
		Templates: tpl,
		Assets:    ast,
		Renders:   rnd,
		Sessions:  NewSessionStore(),
	}
}

// Start parses the template script into timed slots and opens a session.
func (s *Service) Start(ctx context.Context, userID, templateID string) (*timeline.Session, error) {
	template, err := s.Templates.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	slots, err := timeline.ParseScript(template.Script)
	if err != nil {
		return nil, err
	}

	session := timeline.NewSession(uuid.NewString(), template.ID, userID, slots)
	s.Sessions.Put(session)

	telemetry.Info("composition.started", map[string]any{
		"session_id":  session.ID,
		"template_id": template.ID,
		"slots":       len(slots),
	})
	return session, nil
}

// Get returns a session the user owns.
func (s *Service) Get(userID, sessionID string) (*timeline.Session, error) {
	session, ok := s.Sessions.Get(sessionID)
	if !ok || session.UserID != userID {
		return nil, ErrNotFound
	}
	return session, nil
}

// Assign places an asset into a slot. Footage shorter than 80% of the slot
// is rejected unless force is set.
func (s *Service) Assign(ctx context.Context, userID, sessionID, slotID, assetID string, force bool) error {
	session, err := s.Get(userID, sessionID)
	if err != nil {
		return err
	}
	slot, ok := session.Slot(slotID)
	if !ok {
		return timeline.ErrUnknownSlot
	}

	asset, err := s.Assets.Get(ctx, userID, assetID)
	if err != nil {
		return err
	}
	if !force && !timeline.CanFit(asset.Duration, slot.Duration) {
		return ErrAssetTooShort
	}

	return session.Assign(slotID, assetID, 0)
}

// Unassign clears a slot.
func (s *Service) Unassign(userID, sessionID, slotID string) error {
	session, err := s.Get(userID, sessionID)
	if err != nil {
		return err
	}
	return session.Unassign(slotID)
}

// AddText appends a text overlay and returns its index.
func (s *Service) AddText(userID, sessionID string, overlay timeline.Overlay) (int, error) {
	session, err := s.Get(userID, sessionID)
	if err != nil {
		return 0, err
	}
	return session.AddOverlay(overlay)
}

// RemoveText deletes a text overlay by index.
func (s *Service) RemoveText(userID, sessionID string, index int) error {
	session, err := s.Get(userID, sessionID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(session.Overlays()) {
		return ErrOverlayIndex
	}
	session.RemoveOverlay(index)
	return nil
}

// Describe resolves the session into the wire-format job description
// without submitting it. Unassigned slots are simply absent from the output.
func (s *Service) Describe(ctx context.Context, userID, sessionID string) (timeline.JobDescription, error) {
	session, err := s.Get(userID, sessionID)
	if err != nil {
		return timeline.JobDescription{}, err
	}
	slots, assignments, overlays := session.Snapshot()
	return timeline.Resolve(slots, assignments, s.Assets.Lookup(ctx, userID), overlays), nil
}

// SubmitRender validates the session is fully assigned, resolves it, and
// submits the snapshot to the render service. Later session edits do not
// affect the submitted job.
func (s *Service) SubmitRender(ctx context.Context, userID, sessionID string) (renders.RenderJob, error) {
	session, err := s.Get(userID, sessionID)
	if err != nil {
		return renders.RenderJob{}, err
	}

	if unresolved := session.UnresolvedSlots(); len(unresolved) > 0 {
		return renders.RenderJob{}, unresolvedError(unresolved)
	}

	slots, assignments, overlays := session.Snapshot()
	payload := timeline.Resolve(slots, assignments, s.Assets.Lookup(ctx, userID), overlays)
	if len(payload.Clips) == 0 {
		return renders.RenderJob{}, ErrUnresolvedSlots
	}

	return s.Renders.Submit(ctx, userID, session.ID, payload)
}

// UnresolvedSlotsError carries the offending slot IDs for the API response.
type UnresolvedSlotsError struct {
	SlotIDs []string
}

func (e *UnresolvedSlotsError) Error() string { return ErrUnresolvedSlots.Error() }

func (e *UnresolvedSlotsError) Unwrap() error { return ErrUnresolvedSlots }

func unresolvedError(slots []timeline.Slot) error {
	ids := make([]string, len(slots))
	for i, slot := range slots {
		ids[i] = slot.ID
	}
	return &UnresolvedSlotsError{SlotIDs: ids}
}
