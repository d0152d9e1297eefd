package templates

import "time"

// Template is a viral video template: a title, a nominal duration, and the
// raw declarative script whose clips become composition slots.
type Template struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Script      string    `json:"script"`
	Duration    float64   `json:"duration"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
