package assets

import "time"

// Asset is a piece of user footage the composition engine can reference.
// The directory owns the record; the engine only looks assets up by ID.
type Asset struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	PropertyID   string    `json:"propertyId,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	FileURL      string    `json:"fileUrl"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	Duration     float64   `json:"duration,omitempty"`
	MimeType     string    `json:"mimeType,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
