package assets

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo stores assets in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Asset
	byUser map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Asset),
		byUser: make(map[string][]string),
	}
}

// Create stores the asset.
func (r *MemoryRepo) Create(ctx context.Context, asset Asset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[asset.ID]; !exists {
		r.byUser[asset.UserID] = append(r.byUser[asset.UserID], asset.ID)
	}
	r.byID[asset.ID] = asset
	return nil
}

// GetByID returns an asset owned by the user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, assetID string) (Asset, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	asset, ok := r.byID[assetID]
	if !ok || asset.UserID != userID {
		return Asset{}, ErrNotFound
	}
	return asset, nil
}

// List returns the user's assets, newest first, with optional filters.
func (r *MemoryRepo) List(ctx context.Context, userID string, filter Filter, limit, offset int) ([]Asset, error) {
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
	ids := r.byUser[userID]
	matched := make([]Asset, 0, len(ids))
	for _, id := range ids {
		asset, ok := r.byID[id]
		if !ok {
			continue
		}
		if filter.PropertyID != "" && asset.PropertyID != filter.PropertyID {
			continue
		}
		if filter.MimePrefix != "" && !strings.HasPrefix(asset.MimeType, filter.MimePrefix) {
			continue
		}
		matched = append(matched, asset)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return []Asset{}, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}

// Delete removes the asset if the user owns it.
func (r *MemoryRepo) Delete(ctx context.Context, userID, assetID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.byID[assetID]
	if !ok || asset.UserID != userID {
		return ErrNotFound
	}
	delete(r.byID, assetID)
	ids := r.byUser[userID]
	for i, id := range ids {
		if id == assetID {
			r.byUser[userID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}
