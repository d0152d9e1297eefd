package timeline

// Slot is a timed placeholder in a template awaiting a user asset. Slots are
// created once at parse time and never mutated afterward; their nominal
// timing drives the editor UI, not the final render.
type Slot struct {
	ID          string  `json:"id"`
	Order       int     `json:"order"`
	Duration    float64 `json:"duration"`
	Description string  `json:"description"`
	StartTime   float64 `json:"startTime"`
	EndTime     float64 `json:"endTime"`
}

// Assignment maps one slot to one asset. At most one assignment exists per
// slot; reassigning replaces it.
type Assignment struct {
	SlotID     string  `json:"slotId"`
	AssetID    string  `json:"assetId"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Position anchors a text overlay on the canvas.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Anchor string  `json:"anchor,omitempty"`
}

// Overlay is a timed text element. Timestamps are relative to the resolved
// timeline, not the template's nominal one. EndTime zero means "default to
// StartTime+3" at resolve time. Style passes through to the renderer verbatim.
type Overlay struct {
	Content   string         `json:"content"`
	StartTime float64        `json:"startTime"`
	EndTime   float64        `json:"endTime,omitempty"`
	Position  Position       `json:"position"`
	Style     map[string]any `json:"style,omitempty"`
}

// AssetRef is the read-only view of an asset the engine needs for
// resolution. The asset directory owns the full record.
type AssetRef struct {
	ID       string
	FileURL  string
	Duration float64
}

// AssetLookup resolves an asset ID to its reference, reporting whether the
// asset exists.
type AssetLookup func(assetID string) (AssetRef, bool)
