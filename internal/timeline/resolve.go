package timeline

import "sort"

// Duration policy: the footage the user chose wins over the template's
// nominal pacing, clamped to keep single clips watchable.
const (
	minClipSeconds     = 1.5
	maxClipSeconds     = 6.0
	defaultClipSeconds = 2.0
)

// JobDescription is the renderer-agnostic job payload submitted to the
// render backend. Field names are the backend's wire contract.
type JobDescription struct {
	Clips         []ResolvedClip `json:"clips"`
	Texts         []TextElement  `json:"texts"`
	TotalDuration float64        `json:"total_duration"`
}

// ResolvedClip is the final, duration-corrected segment derived from an
// assignment joined with its slot and asset.
type ResolvedClip struct {
	Order       int     `json:"order"`
	Duration    float64 `json:"duration"`
	Description string  `json:"description"`
	VideoURL    string  `json:"video_url"`
	VideoID     string  `json:"video_id"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
}

// TextElement is the wire form of a text overlay.
type TextElement struct {
	Content   string         `json:"content"`
	StartTime float64        `json:"start_time"`
	EndTime   float64        `json:"end_time"`
	Position  Position       `json:"position"`
	Style     map[string]any `json:"style,omitempty"`
}

// Resolve joins assignments with slots and assets into a concrete, gap-free
// clip sequence plus overlay pass-through. Unassigned slots are dropped
// silently; submission-level validation catches an empty result upstream.
// Output order follows the slot's original order field, never assignment
// insertion order, so the result is deterministic.
func Resolve(slots []Slot, assignments []Assignment, lookup AssetLookup, overlays []Overlay) JobDescription {
	slotByID := make(map[string]Slot, len(slots))
	for _, slot := range slots {
		slotByID[slot.ID] = slot
	}

	clips := make([]ResolvedClip, 0, len(assignments))
	for _, a := range assignments {
		if a.AssetID == "" {
			continue
		}
		slot, ok := slotByID[a.SlotID]
		if !ok {
			continue
		}
		asset, ok := lookup(a.AssetID)
		if !ok {
			continue
		}
		clips = append(clips, ResolvedClip{
			Order:       slot.Order,
			Duration:    effectiveDuration(asset.Duration),
			Description: slot.Description,
			VideoURL:    asset.FileURL,
			VideoID:     asset.ID,
		})
	}

	sort.Slice(clips, func(i, j int) bool { return clips[i].Order < clips[j].Order })

	// Offsets are reset and re-accumulated: the resolved timeline's timing is
	// independent of the template's nominal start/end times.
	cursor := 0.0
	for i := range clips {
		clips[i].StartTime = cursor
		cursor += clips[i].Duration
		clips[i].EndTime = cursor
	}

	texts := make([]TextElement, 0, len(overlays))
	for _, o := range overlays {
		end := o.EndTime
		if end <= o.StartTime {
			end = o.StartTime + 3
		}
		texts = append(texts, TextElement{
			Content:   o.Content,
			StartTime: o.StartTime,
			EndTime:   end,
			Position:  o.Position,
			Style:     o.Style,
		})
	}

	return JobDescription{
		Clips:         clips,
		Texts:         texts,
		TotalDuration: cursor,
	}
}

func effectiveDuration(assetDuration float64) float64 {
	if assetDuration <= 0 {
		return defaultClipSeconds
	}
	if assetDuration < minClipSeconds {
		return minClipSeconds
	}
	if assetDuration > maxClipSeconds {
		return maxClipSeconds
	}
	return assetDuration
}
