package assets

import (
	"context"
	"errors"

	"hospup-backend/internal/timeline"
)

// Service contains business logic for the asset directory.
type Service struct {
	Repo Repo
}

// Get returns an asset owned by the user.
func (s *Service) Get(ctx context.Context, userID, assetID string) (Asset, error) {
	if userID == "" || assetID == "" {
		return Asset{}, errors.New("userID and assetID are required")
	}
	return s.Repo.GetByID(ctx, userID, assetID)
}

// List returns the user's assets with optional filters.
func (s *Service) List(ctx context.Context, userID string, filter Filter, limit, offset int) ([]Asset, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	return s.Repo.List(ctx, userID, filter, limit, offset)
}

// Delete removes an asset the user owns.
func (s *Service) Delete(ctx context.Context, userID, assetID string) error {
	if userID == "" || assetID == "" {
		return errors.New("userID and assetID are required")
	}
	return s.Repo.Delete(ctx, userID, assetID)
}

// Lookup returns a read-only asset resolver scoped to the user, suitable for
// timeline resolution. Missing assets report false rather than erroring.
func (s *Service) Lookup(ctx context.Context, userID string) timeline.AssetLookup {
	return func(assetID string) (timeline.AssetRef, bool) {
		asset, err := s.Repo.GetByID(ctx, userID, assetID)
		if err != nil {
			return timeline.AssetRef{}, false
		}
		return timeline.AssetRef{
			ID:       asset.ID,
			FileURL:  asset.FileURL,
			Duration: asset.Duration,
		}, true
	}
}
