package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowsync/server/internal/models"
	"github.com/flowsync/server/internal/repository"
)

// DiagramService manages diagrams and reconciles client diagram state
type DiagramService struct {
	diagramRepo repository.DiagramRepo
	codec       *ContentCodec
}

// NewDiagramService creates a new DiagramService
func NewDiagramService(diagramRepo repository.DiagramRepo, codec *ContentCodec) *DiagramService {
	return &DiagramService{
		diagramRepo: diagramRepo,
		codec:       codec,
	}
}

// Create creates a diagram via the direct endpoint path
func (s *DiagramService) Create(ctx context.Context, userID string, req *models.CreateDiagramRequest) (*models.Diagram, error) {
	diagram, err := models.NewDiagram(userID, req.Name, s.codec.Encode(req.Code))
	if err != nil {
		return nil, err
	}
	diagram.ClientID = req.ClientID
	diagram.Settings = req.Settings

	if err := s.diagramRepo.Add(ctx, diagram); err != nil {
		return nil, fmt.Errorf("failed to create diagram: %w", err)
	}

	diagram.Code = req.Code
	return diagram, nil
}

// GetByID returns one diagram with its source decoded
func (s *DiagramService) GetByID(ctx context.Context, userID, id string) (*models.Diagram, error) {
	diagram, err := s.diagramRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get diagram: %w", err)
	}
	if diagram == nil {
		return nil, models.ErrDiagramNotFound
	}

	diagram.Code = s.codec.Decode(diagram.Code)
	return diagram, nil
}

// List returns all of the user's diagrams with sources decoded
func (s *DiagramService) List(ctx context.Context, userID string) ([]*models.Diagram, error) {
	diagrams, err := s.diagramRepo.GetAllForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagrams: %w", err)
	}

	for _, d := range diagrams {
		d.Code = s.codec.Decode(d.Code)
	}
	return diagrams, nil
}

// Update applies a partial update to a diagram. Nil fields are unchanged.
func (s *DiagramService) Update(ctx context.Context, userID, id string, req *models.UpdateDiagramRequest) (*models.Diagram, error) {
	diagram, err := s.diagramRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get diagram: %w", err)
	}
	if diagram == nil {
		return nil, models.ErrDiagramNotFound
	}

	if req.Name != nil {
		diagram.Name = *req.Name
	}
	if req.Code != nil {
		diagram.Code = s.codec.Encode(*req.Code)
	}
	if req.Settings != nil {
		diagram.Settings = req.Settings
	}
	diagram.UpdatedAt = time.Now().UTC()

	if err := s.diagramRepo.Update(ctx, diagram); err != nil {
		return nil, fmt.Errorf("failed to update diagram: %w", err)
	}

	diagram.Code = s.codec.Decode(diagram.Code)
	return diagram, nil
}

// Delete removes a diagram. Deletion is immediate; there is no tombstone,
// so a device still holding the record in a pending sync payload will
// resurrect it.
func (s *DiagramService) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.diagramRepo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete diagram: %w", err)
	}
	if !deleted {
		return models.ErrDiagramNotFound
	}
	return nil
}

// Reconcile merges client diagram records into the store with last-write-
// wins semantics keyed by clientId, then returns the full current set.
func (s *DiagramService) Reconcile(ctx context.Context, userID string, records []models.DiagramSyncRecord) (models.ReconcileOutcome, []*models.Diagram, error) {
	var outcome models.ReconcileOutcome

	// Within one payload, a later entry for the same clientId replaces an
	// earlier one before any store comparison happens.
	incoming := dedupeDiagramRecords(records)

	existing, err := s.diagramRepo.GetAllForUser(ctx, userID)
	if err != nil {
		return outcome, nil, fmt.Errorf("failed to load diagrams: %w", err)
	}

	// Records without a clientId are server-only and never matched
	byClientID := make(map[string]*models.Diagram, len(existing))
	for _, d := range existing {
		if d.ClientID != nil && *d.ClientID != "" {
			byClientID[*d.ClientID] = d
		}
	}

	for _, rec := range incoming {
		stored, ok := byClientID[rec.ClientID]
		if !ok {
			clientID := rec.ClientID
			now := time.Now().UTC()
			diagram := &models.Diagram{
				ID:              uuid.New().String(),
				UserID:          userID,
				ClientID:        &clientID,
				ClientTimestamp: rec.ClientTimestamp,
				Name:            rec.Name,
				Code:            s.codec.Encode(rec.Code),
				Settings:        rec.Settings,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := s.diagramRepo.Add(ctx, diagram); err != nil {
				return outcome, nil, fmt.Errorf("failed to create diagram: %w", err)
			}
			byClientID[clientID] = diagram
			outcome.Created++
			continue
		}

		if rec.ClientTimestamp > stored.ClientTimestamp {
			stored.Name = rec.Name
			stored.Code = s.codec.Encode(rec.Code)
			stored.Settings = rec.Settings
			stored.ClientTimestamp = rec.ClientTimestamp
			stored.UpdatedAt = time.Now().UTC()
			if err := s.diagramRepo.Update(ctx, stored); err != nil {
				return outcome, nil, fmt.Errorf("failed to update diagram: %w", err)
			}
			outcome.Updated++
		} else {
			outcome.Skipped++
		}
	}

	all, err := s.diagramRepo.GetAllForUser(ctx, userID)
	if err != nil {
		return outcome, nil, fmt.Errorf("failed to reload diagrams: %w", err)
	}
	for _, d := range all {
		d.Code = s.codec.Decode(d.Code)
	}
	return outcome, all, nil
}

// dedupeDiagramRecords keeps only the last occurrence of each clientId,
// preserving that occurrence's position in the payload order.
func dedupeDiagramRecords(records []models.DiagramSyncRecord) []models.DiagramSyncRecord {
	if len(records) < 2 {
		return records
	}
	last := make(map[string]int, len(records))
	for i, r := range records {
		last[r.ClientID] = i
	}
	out := make([]models.DiagramSyncRecord, 0, len(last))
	for i, r := range records {
		if last[r.ClientID] == i {
			out = append(out, r)
		}
	}
	return out
}
