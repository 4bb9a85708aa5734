package services

import (
	"context"
	"fmt"

	"github.com/flowsync/server/internal/models"
	"github.com/flowsync/server/internal/repository"
)

// FavoriteService manages template favorites. A favorite has no identity
// beyond the (user, templateId) pair, so that pair is also the merge key
// during reconciliation.
type FavoriteService struct {
	favoriteRepo repository.FavoriteRepo
}

// NewFavoriteService creates a new FavoriteService
func NewFavoriteService(favoriteRepo repository.FavoriteRepo) *FavoriteService {
	return &FavoriteService{favoriteRepo: favoriteRepo}
}

// List returns all of the user's favorites
func (s *FavoriteService) List(ctx context.Context, userID string) ([]*models.Favorite, error) {
	favorites, err := s.favoriteRepo.GetAllForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}

// Add marks a template as a favorite. Re-adding an existing favorite
// returns the stored record unchanged.
func (s *FavoriteService) Add(ctx context.Context, userID, templateID string) (*models.Favorite, error) {
	existing, err := s.favoriteRepo.GetByTemplateID(ctx, userID, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to check favorite: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	favorite, err := models.NewFavorite(userID, templateID)
	if err != nil {
		return nil, err
	}
	if err := s.favoriteRepo.Add(ctx, favorite); err != nil {
		return nil, fmt.Errorf("failed to create favorite: %w", err)
	}
	return favorite, nil
}

// Remove unmarks a template as a favorite
func (s *FavoriteService) Remove(ctx context.Context, userID, templateID string) error {
	deleted, err := s.favoriteRepo.DeleteByTemplateID(ctx, userID, templateID)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	if !deleted {
		return models.ErrFavoriteNotFound
	}
	return nil
}

// Reconcile merges client favorite records keyed by templateId. An
// incoming favorite for a stored templateId only overwrites when its
// clientTimestamp is strictly greater, so a plain re-add is a no-op that
// keeps the original creation time.
func (s *FavoriteService) Reconcile(ctx context.Context, userID string, records []models.FavoriteSyncRecord) (models.ReconcileOutcome, []*models.Favorite, error) {
	var outcome models.ReconcileOutcome

	incoming := dedupeFavoriteRecords(records)

	existing, err := s.favoriteRepo.GetAllForUser(ctx, userID)
	if err != nil {
		return outcome, nil, fmt.Errorf("failed to load favorites: %w", err)
	}

	byTemplateID := make(map[string]*models.Favorite, len(existing))
	for _, f := range existing {
		byTemplateID[f.TemplateID] = f
	}

	for _, rec := range incoming {
		stored, ok := byTemplateID[rec.TemplateID]
		if !ok {
			favorite, err := models.NewFavorite(userID, rec.TemplateID)
			if err != nil {
				return outcome, nil, err
			}
			if rec.ClientID != "" {
				clientID := rec.ClientID
				favorite.ClientID = &clientID
			}
			favorite.ClientTimestamp = rec.ClientTimestamp
			if err := s.favoriteRepo.Add(ctx, favorite); err != nil {
				return outcome, nil, fmt.Errorf("failed to create favorite: %w", err)
			}
			byTemplateID[rec.TemplateID] = favorite
			outcome.Created++
			continue
		}

		if rec.ClientTimestamp > stored.ClientTimestamp {
			if rec.ClientID != "" {
				clientID := rec.ClientID
				stored.ClientID = &clientID
			}
			stored.ClientTimestamp = rec.ClientTimestamp
			if err := s.favoriteRepo.Update(ctx, stored); err != nil {
				return outcome, nil, fmt.Errorf("failed to update favorite: %w", err)
			}
			outcome.Updated++
		} else {
			outcome.Skipped++
		}
	}

	all, err := s.favoriteRepo.GetAllForUser(ctx, userID)
	if err != nil {
		return outcome, nil, fmt.Errorf("failed to reload favorites: %w", err)
	}
	return outcome, all, nil
}

func dedupeFavoriteRecords(records []models.FavoriteSyncRecord) []models.FavoriteSyncRecord {
	if len(records) < 2 {
		return records
	}
	last := make(map[string]int, len(records))
	for i, r := range records {
		last[r.TemplateID] = i
	}
	out := make([]models.FavoriteSyncRecord, 0, len(last))
	for i, r := range records {
		if last[r.TemplateID] == i {
			out = append(out, r)
		}
	}
	return out
}
