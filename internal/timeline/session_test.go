package timeline

import (
	"errors"
	"testing"
)

func testSlots() []Slot {
	return []Slot{
		{ID: "s1", Order: 1, Duration: 3, StartTime: 0, EndTime: 3},
		{ID: "s2", Order: 2, Duration: 5, StartTime: 3, EndTime: 8},
	}
}

func TestSessionAssignUpsert(t *testing.T) {
	sess := NewSession("sess-1", "tpl-1", "user-1", testSlots())

	if err := sess.Assign("s1", "asset-a", 0); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if err := sess.Assign("s1", "asset-b", 0.9); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	got := sess.Assignments()
	if len(got) != 1 {
		t.Fatalf("reassign must replace, not duplicate: %d entries", len(got))
	}
	if got[0].AssetID != "asset-b" {
		t.Fatalf("expected asset-b, got %s", got[0].AssetID)
	}
}

func TestSessionAssignUnknownSlot(t *testing.T) {
	sess := NewSession("sess-1", "tpl-1", "user-1", testSlots())
	if err := sess.Assign("nope", "asset-a", 0); !errors.Is(err, ErrUnknownSlot) {
		t.Fatalf("expected ErrUnknownSlot, got %v", err)
	}
}

func TestSessionUnassign(t *testing.T) {
	sess := NewSession("sess-1", "tpl-1", "user-1", testSlots())
	if err := sess.Assign("s1", "asset-a", 0); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if err := sess.Unassign("s1"); err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if _, ok := sess.AssignedAsset("s1"); ok {
		t.Fatalf("slot should be unresolved after Unassign")
	}
	if len(sess.UnresolvedSlots()) != 2 {
		t.Fatalf("expected 2 unresolved slots")
	}
}

func TestCanFitTolerance(t *testing.T) {
	cases := []struct {
		asset, slot float64
		want        bool
	}{
		{8, 10, true}, // exactly at the 80% floor
		{7.9, 10, false},
		{10, 10, true},
		{15, 10, true},
		{0, 10, false},
	}
	for _, tc := range cases {
		if got := CanFit(tc.asset, tc.slot); got != tc.want {
			t.Fatalf("CanFit(%v, %v) = %v, want %v", tc.asset, tc.slot, got, tc.want)
		}
	}
}

func TestSessionOverlays(t *testing.T) {
	sess := NewSession("sess-1", "tpl-1", "user-1", testSlots())

	if _, err := sess.AddOverlay(Overlay{Content: ""}); !errors.Is(err, ErrEmptyOverlay) {
		t.Fatalf("expected ErrEmptyOverlay, got %v", err)
	}

	idx, err := sess.AddOverlay(Overlay{Content: "Visit us", StartTime: 1})
	if err != nil {
		t.Fatalf("AddOverlay: %v", err)
	}
	if _, err := sess.AddOverlay(Overlay{Content: "Second", StartTime: 2}); err != nil {
		t.Fatalf("AddOverlay: %v", err)
	}

	sess.RemoveOverlay(idx)
	overlays := sess.Overlays()
	if len(overlays) != 1 || overlays[0].Content != "Second" {
		t.Fatalf("unexpected overlays after removal: %+v", overlays)
	}

	// Out-of-range removal is a no-op.
	sess.RemoveOverlay(99)
	if len(sess.Overlays()) != 1 {
		t.Fatalf("out-of-range removal must not change overlays")
	}
}

func TestSessionSnapshotIsDetached(t *testing.T) {
	sess := NewSession("sess-1", "tpl-1", "user-1", testSlots())
	if err := sess.Assign("s1", "asset-a", 0); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := sess.AddOverlay(Overlay{Content: "Before", StartTime: 0}); err != nil {
		t.Fatalf("AddOverlay: %v", err)
	}

	_, assignments, overlays := sess.Snapshot()

	// Edits after the snapshot must not leak into it.
	if err := sess.Assign("s1", "asset-z", 0); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := sess.AddOverlay(Overlay{Content: "After", StartTime: 1}); err != nil {
		t.Fatalf("AddOverlay: %v", err)
	}

	if assignments[0].AssetID != "asset-a" {
		t.Fatalf("snapshot assignment mutated: %+v", assignments[0])
	}
	if len(overlays) != 1 || overlays[0].Content != "Before" {
		t.Fatalf("snapshot overlays mutated: %+v", overlays)
	}
}
