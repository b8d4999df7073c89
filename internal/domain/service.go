// Package domain defines the business logic for the template service.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/template/internal/intensity"
	"example.com/template/internal/observability"
)

var (
	// ErrTemplateNotFound is returned when a template cannot be located.
	ErrTemplateNotFound = errors.New("template not found")
)

// TemplateRepository captures persistence operations.
type TemplateRepository interface {
	Create(ctx context.Context, aggregate TemplateAggregate) error
	Get(ctx context.Context, tenantID, templateID string) (*TemplateAggregate, error)
	ListByUser(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]TemplateAggregate, *Cursor, error)
	Rename(ctx context.Context, aggregate TemplateAggregate, previous intensity.Intensity) error
	Delete(ctx context.Context, tenantID, templateID string) error
	SummaryByUser(ctx context.Context, tenantID, userID string) (IntensitySummary, error)
}

// Service orchestrates template workflows.
type Service struct {
	repo       TemplateRepository
	classifier *intensity.Classifier
}

// NewService constructs a Service. A nil classifier selects the default
// rule table.
func NewService(repo TemplateRepository, classifier *intensity.Classifier) *Service {
	if classifier == nil {
		classifier = intensity.NewClassifier(nil)
	}
	return &Service{repo: repo, classifier: classifier}
}

// CreateTemplateInput captures the payload from the API layer.
type CreateTemplateInput struct {
	TenantID  string
	UserID    string
	Name      string
	Exercises []TemplateExercise
}

// CreateTemplate persists a new template. The intensity label is always
// derived from the name at write time, so stored rows never carry an
// empty or stale label.
func (s *Service) CreateTemplate(ctx context.Context, input CreateTemplateInput) (*TemplateAggregate, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.New("name is required")
	}
	if strings.TrimSpace(input.UserID) == "" {
		return nil, errors.New("user_id is required")
	}

	now := time.Now().UTC()
	aggregate := TemplateAggregate{
		ID:        uuid.NewString(),
		TenantID:  input.TenantID,
		UserID:    input.UserID,
		Name:      input.Name,
		Intensity: s.classifier.Classify(input.Name),
		Exercises: normalizeExercises(input.Exercises),
		Version:   "v1",
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range aggregate.Exercises {
		aggregate.Exercises[i].TemplateID = aggregate.ID
	}

	if err := s.repo.Create(ctx, aggregate); err != nil {
		return nil, err
	}

	observability.RecordClassification(string(aggregate.Intensity))
	return &aggregate, nil
}

// GetTemplate fetches by ID.
func (s *Service) GetTemplate(ctx context.Context, tenantID, templateID string) (*TemplateAggregate, error) {
	agg, err := s.repo.Get(ctx, tenantID, templateID)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, ErrTemplateNotFound
	}
	return agg, nil
}

// ListTemplatesByUser fetches templates with cursor pagination.
func (s *Service) ListTemplatesByUser(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]TemplateAggregate, *Cursor, error) {
	return s.repo.ListByUser(ctx, tenantID, userID, cursor, limit)
}

// RenameTemplate updates the display name and re-runs classification, since
// the label is a pure function of the name.
func (s *Service) RenameTemplate(ctx context.Context, tenantID, templateID, name string) (*TemplateAggregate, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("name is required")
	}

	agg, err := s.repo.Get(ctx, tenantID, templateID)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, ErrTemplateNotFound
	}

	previous := agg.Intensity
	agg.Name = name
	agg.Intensity = s.classifier.Classify(name)
	agg.UpdatedAt = time.Now().UTC()

	if err := s.repo.Rename(ctx, *agg, previous); err != nil {
		return nil, err
	}

	observability.RecordClassification(string(agg.Intensity))
	return agg, nil
}

// DeleteTemplate removes the template and its exercises and sets.
func (s *Service) DeleteTemplate(ctx context.Context, tenantID, templateID string) error {
	agg, err := s.repo.Get(ctx, tenantID, templateID)
	if err != nil {
		return err
	}
	if agg == nil {
		return ErrTemplateNotFound
	}
	return s.repo.Delete(ctx, tenantID, templateID)
}

// IntensitySummaryByUser aggregates label counts for a user's templates.
func (s *Service) IntensitySummaryByUser(ctx context.Context, tenantID, userID string) (IntensitySummary, error) {
	if strings.TrimSpace(userID) == "" {
		return IntensitySummary{}, errors.New("user_id is required")
	}
	return s.repo.SummaryByUser(ctx, tenantID, userID)
}

// normalizeExercises assigns IDs and sequential positions where absent.
func normalizeExercises(exercises []TemplateExercise) []TemplateExercise {
	out := make([]TemplateExercise, len(exercises))
	copy(out, exercises)
	for i := range out {
		if strings.TrimSpace(out[i].ID) == "" {
			out[i].ID = uuid.NewString()
		}
		if out[i].Position == 0 {
			out[i].Position = i + 1
		}
		sets := make([]ExerciseSet, len(out[i].Sets))
		copy(sets, out[i].Sets)
		for j := range sets {
			if strings.TrimSpace(sets[j].ID) == "" {
				sets[j].ID = uuid.NewString()
			}
			if sets[j].Position == 0 {
				sets[j].Position = j + 1
			}
			sets[j].ExerciseID = out[i].ID
		}
		out[i].Sets = sets
	}
	return out
}
