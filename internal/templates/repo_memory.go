package templates

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores templates in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Template
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Template)}
}

// Create stores the template.
func (r *MemoryRepo) Create(ctx context.Context, template Template) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[template.ID] = template
	return nil
}

// GetByID returns a template by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, templateID string) (Template, error) {
	if err := ctx.Err(); err != nil {
		return Template{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	template, ok := r.byID[templateID]
	if !ok {
		return Template{}, ErrNotFound
	}
	return template, nil
}

// List returns templates ordered by title with limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	all := make([]Template, 0, len(r.byID))
	for _, t := range r.byID {
		all = append(all, t)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })

	if offset >= len(all) {
		return []Template{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}
