package templates

import (
	"context"
	"errors"
)

// Service contains business logic for the template directory.
type Service struct {
	Repo Repo
}

// Get returns a template by ID.
func (s *Service) Get(ctx context.Context, templateID string) (Template, error) {
	if templateID == "" {
		return Template{}, errors.New("templateID is required")
	}
	return s.Repo.GetByID(ctx, templateID)
}

// List returns templates ordered by title.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Template, error) {
	return s.Repo.List(ctx, limit, offset)
}
