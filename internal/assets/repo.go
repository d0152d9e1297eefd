package assets

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Filter narrows asset listings.
type Filter struct {
	PropertyID string
	MimePrefix string
}

// Repo defines persistence operations for assets.
type Repo interface {
	Create(ctx context.Context, asset Asset) error
	GetByID(ctx context.Context, userID, assetID string) (Asset, error)
	List(ctx context.Context, userID string, filter Filter, limit, offset int) ([]Asset, error)
	Delete(ctx context.Context, userID, assetID string) error
}
