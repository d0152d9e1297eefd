package timeline

import (
	"sort"
	"sync"
	"time"
)

const fitTolerance = 0.8

// CanFit reports whether an asset may be placed into a slot: the footage must
// cover at least 80% of the slot's nominal duration. Interactive surfaces
// check this before Assign; Assign itself does not re-validate so deliberate
// override paths stay possible.
func CanFit(assetDuration, slotDuration float64) bool {
	return assetDuration >= slotDuration*fitTolerance
}

// Session is the authoritative in-memory state for one composition: the
// parsed slots, the slot-to-asset assignment set, and the text overlays.
// One session belongs to one user and one template; methods serialize
// concurrent handler access but there is no multi-writer merge.
type Session struct {
	ID         string
	TemplateID string
	UserID     string
	CreatedAt  time.Time

	mu          sync.Mutex
	slots       []Slot
	assignments map[string]Assignment
	overlays    []Overlay
}

// NewSession builds a session seeded with parsed template slots.
func NewSession(id, templateID, userID string, slots []Slot) *Session {
	return &Session{
		ID:          id,
		TemplateID:  templateID,
		UserID:      userID,
		CreatedAt:   time.Now().UTC(),
		slots:       append([]Slot(nil), slots...),
		assignments: make(map[string]Assignment),
	}
}

// Slots returns the immutable slot sequence.
func (s *Session) Slots() []Slot {
	return append([]Slot(nil), s.slots...)
}

// Slot returns the slot with the given ID.
func (s *Session) Slot(slotID string) (Slot, bool) {
	for _, slot := range s.slots {
		if slot.ID == slotID {
			return slot, true
		}
	}
	return Slot{}, false
}

// Assign upserts an assignment for the slot. Reassigning replaces the
// previous asset, never duplicates.
func (s *Session) Assign(slotID, assetID string, confidence float64) error {
	if _, ok := s.Slot(slotID); !ok {
		return ErrUnknownSlot
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[slotID] = Assignment{SlotID: slotID, AssetID: assetID, Confidence: confidence}
	return nil
}

// Unassign removes the slot's assignment; the slot reverts to unresolved.
func (s *Session) Unassign(slotID string) error {
	if _, ok := s.Slot(slotID); !ok {
		return ErrUnknownSlot
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assignments, slotID)
	return nil
}

// AssignedAsset returns the asset assigned to a slot, if any.
func (s *Session) AssignedAsset(slotID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[slotID]
	if !ok {
		return "", false
	}
	return a.AssetID, true
}

// Assignments returns a copy of the assignment set ordered by slot order.
func (s *Session) Assignments() []Assignment {
	s.mu.Lock()
	out := make([]Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		out = append(out, a)
	}
	s.mu.Unlock()

	orderBySlot := make(map[string]int, len(s.slots))
	for _, slot := range s.slots {
		orderBySlot[slot.ID] = slot.Order
	}
	sort.Slice(out, func(i, j int) bool {
		return orderBySlot[out[i].SlotID] < orderBySlot[out[j].SlotID]
	})
	return out
}

// UnresolvedSlots lists slots that have no assignment yet, in slot order.
func (s *Session) UnresolvedSlots() []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Slot
	for _, slot := range s.slots {
		if _, ok := s.assignments[slot.ID]; !ok {
			out = append(out, slot)
		}
	}
	return out
}

// AddOverlay appends a text overlay. Content must be non-empty.
func (s *Session) AddOverlay(o Overlay) (int, error) {
	if o.Content == "" {
		return 0, ErrEmptyOverlay
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlays = append(s.overlays, o)
	return len(s.overlays) - 1, nil
}

// RemoveOverlay deletes the overlay at index; out-of-range indexes are ignored.
func (s *Session) RemoveOverlay(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.overlays) {
		return
	}
	s.overlays = append(s.overlays[:index], s.overlays[index+1:]...)
}

// Overlays returns a copy of the overlay list.
func (s *Session) Overlays() []Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Overlay(nil), s.overlays...)
}

// Snapshot captures slots, assignments, and overlays for resolution. The
// returned copies are detached: later edits do not affect a snapshot already
// handed to the renderer.
func (s *Session) Snapshot() ([]Slot, []Assignment, []Overlay) {
	return s.Slots(), s.Assignments(), s.Overlays()
}
