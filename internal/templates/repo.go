package templates

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Repo defines persistence operations for templates.
type Repo interface {
	Create(ctx context.Context, template Template) error
	GetByID(ctx context.Context, templateID string) (Template, error)
	List(ctx context.Context, limit, offset int) ([]Template, error)
}
