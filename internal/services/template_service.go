package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowsync/server/internal/models"
	"github.com/flowsync/server/internal/repository"
)

// TemplateService manages template collections and the custom templates
// nested inside them
type TemplateService struct {
	collectionRepo repository.TemplateCollectionRepo
	templateRepo   repository.CustomTemplateRepo
	codec          *ContentCodec
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(collectionRepo repository.TemplateCollectionRepo, templateRepo repository.CustomTemplateRepo, codec *ContentCodec) *TemplateService {
	return &TemplateService{
		collectionRepo: collectionRepo,
		templateRepo:   templateRepo,
		codec:          codec,
	}
}

// CreateCollection creates a collection via the direct endpoint path
func (s *TemplateService) CreateCollection(ctx context.Context, userID string, req *models.CreateCollectionRequest) (*models.TemplateCollection, error) {
	collection, err := models.NewTemplateCollection(userID, req.Name)
	if err != nil {
		return nil, err
	}
	collection.ClientID = req.ClientID
	if req.TemplateIDs != nil {
		collection.TemplateIDs = req.TemplateIDs
	}

	if err := s.collectionRepo.Add(ctx, collection); err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	collection.TemplateIDs = models.FilterBuiltinTemplateIDs(collection.TemplateIDs)
	collection.CustomTemplates = []*models.CustomTemplate{}
	return collection, nil
}

// GetCollection returns one collection with its custom templates loaded
// and template sources decoded
func (s *TemplateService) GetCollection(ctx context.Context, userID, id string) (*models.TemplateCollection, error) {
	collection, err := s.collectionRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	if collection == nil {
		return nil, models.ErrCollectionNotFound
	}

	if err := s.loadCustomTemplates(ctx, collection); err != nil {
		return nil, err
	}
	return collection, nil
}

// ListCollections returns all of the user's collections, fully loaded
func (s *TemplateService) ListCollections(ctx context.Context, userID string) ([]*models.TemplateCollection, error) {
	collections, err := s.collectionRepo.GetAllForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	for _, c := range collections {
		if err := s.loadCustomTemplates(ctx, c); err != nil {
			return nil, err
		}
	}
	return collections, nil
}

// UpdateCollection applies a partial update to a collection
func (s *TemplateService) UpdateCollection(ctx context.Context, userID, id string, req *models.UpdateCollectionRequest) (*models.TemplateCollection, error) {
	collection, err := s.collectionRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	if collection == nil {
		return nil, models.ErrCollectionNotFound
	}

	if req.Name != nil {
		collection.Name = *req.Name
	}
	if req.TemplateIDs != nil {
		collection.TemplateIDs = req.TemplateIDs
	}
	collection.UpdatedAt = time.Now().UTC()

	if err := s.collectionRepo.Update(ctx, collection); err != nil {
		return nil, fmt.Errorf("failed to update collection: %w", err)
	}

	if err := s.loadCustomTemplates(ctx, collection); err != nil {
		return nil, err
	}
	return collection, nil
}

// DeleteCollection removes a collection; its custom templates cascade
func (s *TemplateService) DeleteCollection(ctx context.Context, userID, id string) error {
	deleted, err := s.collectionRepo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	if !deleted {
		return models.ErrCollectionNotFound
	}
	return nil
}

// AddCustomTemplate adds a custom template to a collection
func (s *TemplateService) AddCustomTemplate(ctx context.Context, userID, collectionID string, req *models.CreateCustomTemplateRequest) (*models.CustomTemplate, error) {
	collection, err := s.collectionRepo.GetByID(ctx, userID, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	if collection == nil {
		return nil, models.ErrCollectionNotFound
	}

	template, err := models.NewCustomTemplate(collection.ID, userID, req.Name, s.codec.Encode(req.Code))
	if err != nil {
		return nil, err
	}
	template.ClientID = req.ClientID
	template.Description = req.Description

	if err := s.templateRepo.Add(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to create custom template: %w", err)
	}

	template.Code = req.Code
	return template, nil
}

// UpdateCustomTemplate applies a partial update to a custom template
func (s *TemplateService) UpdateCustomTemplate(ctx context.Context, userID, id string, req *models.CreateCustomTemplateRequest) (*models.CustomTemplate, error) {
	template, err := s.templateRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get custom template: %w", err)
	}
	if template == nil {
		return nil, models.ErrTemplateNotFound
	}

	if req.Name != "" {
		template.Name = req.Name
	}
	if req.Code != "" {
		template.Code = s.codec.Encode(req.Code)
	}
	if req.Description != nil {
		template.Description = req.Description
	}
	template.UpdatedAt = time.Now().UTC()

	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to update custom template: %w", err)
	}

	template.Code = s.codec.Decode(template.Code)
	return template, nil
}

// DeleteCustomTemplate removes a custom template
func (s *TemplateService) DeleteCustomTemplate(ctx context.Context, userID, id string) error {
	deleted, err := s.templateRepo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete custom template: %w", err)
	}
	if !deleted {
		return models.ErrTemplateNotFound
	}
	return nil
}

// Reconcile merges client collection records with last-write-wins
// semantics keyed by clientId. Nested custom templates are reconciled as
// their own last-write-wins set, but only when the parent collection wins
// its outer comparison; a collection that loses leaves its nested
// templates untouched that round.
func (s *TemplateService) Reconcile(ctx context.Context, userID string, records []models.CollectionSyncRecord) (models.ReconcileOutcome, []*models.TemplateCollection, error) {
	var outcome models.ReconcileOutcome

	incoming := dedupeCollectionRecords(records)

	existing, err := s.collectionRepo.GetAllForUser(ctx, userID)
	if err != nil {
		return outcome, nil, fmt.Errorf("failed to load collections: %w", err)
	}

	byClientID := make(map[string]*models.TemplateCollection, len(existing))
	for _, c := range existing {
		if c.ClientID != nil && *c.ClientID != "" {
			byClientID[*c.ClientID] = c
		}
	}

	for _, rec := range incoming {
		stored, ok := byClientID[rec.ClientID]
		if !ok {
			clientID := rec.ClientID
			now := time.Now().UTC()
			collection := &models.TemplateCollection{
				ID:              uuid.New().String(),
				UserID:          userID,
				ClientID:        &clientID,
				ClientTimestamp: rec.ClientTimestamp,
				Name:            rec.Name,
				TemplateIDs:     rec.TemplateIDs,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if collection.TemplateIDs == nil {
				collection.TemplateIDs = []string{}
			}
			if err := s.collectionRepo.Add(ctx, collection); err != nil {
				return outcome, nil, fmt.Errorf("failed to create collection: %w", err)
			}
			byClientID[clientID] = collection
			outcome.Created++

			nested, err := s.reconcileCustomTemplates(ctx, userID, collection.ID, rec.CustomTemplates)
			if err != nil {
				return outcome, nil, err
			}
			outcome.Add(nested)
			continue
		}

		if rec.ClientTimestamp > stored.ClientTimestamp {
			stored.Name = rec.Name
			stored.TemplateIDs = rec.TemplateIDs
			if stored.TemplateIDs == nil {
				stored.TemplateIDs = []string{}
			}
			stored.ClientTimestamp = rec.ClientTimestamp
			stored.UpdatedAt = time.Now().UTC()
			if err := s.collectionRepo.Update(ctx, stored); err != nil {
				return outcome, nil, fmt.Errorf("failed to update collection: %w", err)
			}
			outcome.Updated++

			nested, err := s.reconcileCustomTemplates(ctx, userID, stored.ID, rec.CustomTemplates)
			if err != nil {
				return outcome, nil, err
			}
			outcome.Add(nested)
		} else {
			// Existing collection wins; nested templates are not examined.
			// A nested-only edit must bump the parent's timestamp or it is
			// dropped here.
			outcome.Skipped++
		}
	}

	all, err := s.collectionRepo.GetAllForUser(ctx, userID)
	if err != nil {
		return outcome, nil, fmt.Errorf("failed to reload collections: %w", err)
	}
	for _, c := range all {
		if err := s.loadCustomTemplates(ctx, c); err != nil {
			return outcome, nil, err
		}
	}
	return outcome, all, nil
}

// reconcileCustomTemplates runs the inner last-write-wins merge for one
// collection's nested templates
func (s *TemplateService) reconcileCustomTemplates(ctx context.Context, userID, collectionID string, records []models.CustomTemplateSyncRecord) (models.ReconcileOutcome, error) {
	var outcome models.ReconcileOutcome
	if len(records) == 0 {
		return outcome, nil
	}

	incoming := dedupeCustomTemplateRecords(records)

	existing, err := s.templateRepo.GetAllForCollection(ctx, collectionID)
	if err != nil {
		return outcome, fmt.Errorf("failed to load custom templates: %w", err)
	}

	byClientID := make(map[string]*models.CustomTemplate, len(existing))
	for _, t := range existing {
		if t.ClientID != nil && *t.ClientID != "" {
			byClientID[*t.ClientID] = t
		}
	}

	for _, rec := range incoming {
		stored, ok := byClientID[rec.ClientID]
		if !ok {
			clientID := rec.ClientID
			now := time.Now().UTC()
			template := &models.CustomTemplate{
				ID:              uuid.New().String(),
				CollectionID:    collectionID,
				UserID:          userID,
				ClientID:        &clientID,
				ClientTimestamp: rec.ClientTimestamp,
				Name:            rec.Name,
				Code:            s.codec.Encode(rec.Code),
				Description:     rec.Description,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := s.templateRepo.Add(ctx, template); err != nil {
				return outcome, fmt.Errorf("failed to create custom template: %w", err)
			}
			byClientID[clientID] = template
			outcome.Created++
			continue
		}

		if rec.ClientTimestamp > stored.ClientTimestamp {
			stored.Name = rec.Name
			stored.Code = s.codec.Encode(rec.Code)
			stored.Description = rec.Description
			stored.ClientTimestamp = rec.ClientTimestamp
			stored.UpdatedAt = time.Now().UTC()
			if err := s.templateRepo.Update(ctx, stored); err != nil {
				return outcome, fmt.Errorf("failed to update custom template: %w", err)
			}
			outcome.Updated++
		} else {
			outcome.Skipped++
		}
	}
	return outcome, nil
}

// loadCustomTemplates attaches decoded custom templates and filters
// unknown built-in template references
func (s *TemplateService) loadCustomTemplates(ctx context.Context, collection *models.TemplateCollection) error {
	templates, err := s.templateRepo.GetAllForCollection(ctx, collection.ID)
	if err != nil {
		return fmt.Errorf("failed to load custom templates: %w", err)
	}
	for _, t := range templates {
		t.Code = s.codec.Decode(t.Code)
	}
	if templates == nil {
		templates = []*models.CustomTemplate{}
	}
	collection.CustomTemplates = templates
	collection.TemplateIDs = models.FilterBuiltinTemplateIDs(collection.TemplateIDs)
	return nil
}

func dedupeCollectionRecords(records []models.CollectionSyncRecord) []models.CollectionSyncRecord {
	if len(records) < 2 {
		return records
	}
	last := make(map[string]int, len(records))
	for i, r := range records {
		last[r.ClientID] = i
	}
	out := make([]models.CollectionSyncRecord, 0, len(last))
	for i, r := range records {
		if last[r.ClientID] == i {
			out = append(out, r)
		}
	}
	return out
}

func dedupeCustomTemplateRecords(records []models.CustomTemplateSyncRecord) []models.CustomTemplateSyncRecord {
	if len(records) < 2 {
		return records
	}
	last := make(map[string]int, len(records))
	for i, r := range records {
		last[r.ClientID] = i
	}
	out := make([]models.CustomTemplateSyncRecord, 0, len(last))
	for i, r := range records {
		if last[r.ClientID] == i {
			out = append(out, r)
		}
	}
	return out
}
