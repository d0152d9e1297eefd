package timeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const nominalSlotSeconds = 2.0

// ParseScript turns a template's raw script payload into an ordered slot
// sequence. It accepts a JSON-encoded string (tolerating leading '='
// formatting artifacts from upstream tooling) or an already-decoded
// structure. On any unusable input it returns (nil, ErrMalformedScript)
// rather than panicking; the caller decides how to surface that.
func ParseScript(script any) ([]Slot, error) {
	clips, err := extractClips(script)
	if err != nil {
		return nil, err
	}
	if len(clips) == 0 {
		return nil, ErrMalformedScript
	}

	slots := make([]Slot, 0, len(clips))
	for i, raw := range clips {
		clip, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		order := i + 1
		if v, ok := numberField(clip, "order"); ok && v > 0 {
			order = int(v)
		}
		slots = append(slots, Slot{
			ID:          slotID(clip, order),
			Order:       order,
			Duration:    clipDuration(clip),
			Description: stringField(clip, "description"),
		})
	}
	if len(slots) == 0 {
		return nil, ErrMalformedScript
	}

	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Order < slots[j].Order })

	// Cumulative timing in final slot order keeps slots contiguous and
	// non-overlapping regardless of what the script declared.
	cursor := 0.0
	for i := range slots {
		slots[i].StartTime = cursor
		cursor += slots[i].Duration
		slots[i].EndTime = cursor
	}
	return slots, nil
}

func extractClips(script any) ([]any, error) {
	switch v := script.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		trimmed = strings.TrimSpace(strings.TrimLeft(trimmed, "="))
		if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
			return nil, ErrMalformedScript
		}
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return nil, ErrMalformedScript
		}
		return extractClips(decoded)
	case map[string]any:
		clips, ok := v["clips"].([]any)
		if !ok {
			return nil, ErrMalformedScript
		}
		return clips, nil
	case []any:
		// A bare array is taken as the clip list itself.
		return v, nil
	case json.RawMessage:
		return extractClips(string(v))
	default:
		return nil, ErrMalformedScript
	}
}

// clipDuration picks the clip duration with fixed priority: an explicit
// duration, then end-start, then the nominal default.
func clipDuration(clip map[string]any) float64 {
	if d, ok := numberField(clip, "duration"); ok && d > 0 {
		return d
	}
	start, hasStart := numberField(clip, "start")
	end, hasEnd := numberField(clip, "end")
	if hasStart && hasEnd && end > start {
		return end - start
	}
	return nominalSlotSeconds
}

func slotID(clip map[string]any, order int) string {
	if id := stringField(clip, "id"); id != "" {
		return id
	}
	return fmt.Sprintf("slot-%d", order)
}

func numberField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
