package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/template/internal/intensity"
)

func TestCreateTemplateClassifiesName(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, nil)

	cases := []struct {
		name string
		want intensity.Intensity
	}{
		{"Morning Yoga Stretch", intensity.Sanft},
		{"HIIT Tabata Blast", intensity.Power},
		{"Full Body Strength", intensity.Aktiv},
		{"Power Yoga", intensity.Power},
	}

	for _, tc := range cases {
		agg, err := service.CreateTemplate(context.Background(), CreateTemplateInput{
			TenantID: "tenant-1",
			UserID:   "user-1",
			Name:     tc.name,
		})
		require.NoError(t, err)
		require.Equal(t, tc.want, agg.Intensity, "name %q", tc.name)
		require.NotEmpty(t, agg.ID)
		require.Equal(t, "v1", agg.Version)
	}
}

func TestCreateTemplateRequiresName(t *testing.T) {
	service := NewService(newMemoryRepo(), nil)

	_, err := service.CreateTemplate(context.Background(), CreateTemplateInput{
		TenantID: "tenant-1",
		UserID:   "user-1",
		Name:     "   ",
	})
	require.Error(t, err)
}

func TestCreateTemplateNormalizesExercises(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, nil)

	agg, err := service.CreateTemplate(context.Background(), CreateTemplateInput{
		TenantID: "tenant-1",
		UserID:   "user-1",
		Name:     "Leg Day",
		Exercises: []TemplateExercise{
			{Name: "Squat", Sets: []ExerciseSet{{Reps: 5}, {Reps: 5}}},
			{Name: "Lunge"},
		},
	})
	require.NoError(t, err)
	require.Len(t, agg.Exercises, 2)
	require.Equal(t, 1, agg.Exercises[0].Position)
	require.Equal(t, 2, agg.Exercises[1].Position)
	require.Equal(t, agg.ID, agg.Exercises[0].TemplateID)
	require.NotEmpty(t, agg.Exercises[0].ID)
	require.Len(t, agg.Exercises[0].Sets, 2)
	require.Equal(t, 2, agg.Exercises[0].Sets[1].Position)
	require.Equal(t, agg.Exercises[0].ID, agg.Exercises[0].Sets[0].ExerciseID)
}

func TestGetTemplateNotFound(t *testing.T) {
	service := NewService(newMemoryRepo(), nil)

	_, err := service.GetTemplate(context.Background(), "tenant-1", "missing")
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRenameTemplateReclassifies(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, nil)

	agg, err := service.CreateTemplate(context.Background(), CreateTemplateInput{
		TenantID: "tenant-1",
		UserID:   "user-1",
		Name:     "Full Body Strength",
	})
	require.NoError(t, err)
	require.Equal(t, intensity.Aktiv, agg.Intensity)

	renamed, err := service.RenameTemplate(context.Background(), "tenant-1", agg.ID, "Power Hour")
	require.NoError(t, err)
	require.Equal(t, "Power Hour", renamed.Name)
	require.Equal(t, intensity.Power, renamed.Intensity)
	require.Equal(t, intensity.Aktiv, repo.lastPrevious)

	stored, err := service.GetTemplate(context.Background(), "tenant-1", agg.ID)
	require.NoError(t, err)
	require.Equal(t, intensity.Power, stored.Intensity)
}

func TestRenameTemplateIdempotentLabel(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, nil)

	agg, err := service.CreateTemplate(context.Background(), CreateTemplateInput{
		TenantID: "tenant-1",
		UserID:   "user-1",
		Name:     "Yoga Flow",
	})
	require.NoError(t, err)

	renamed, err := service.RenameTemplate(context.Background(), "tenant-1", agg.ID, "Evening Yoga Flow")
	require.NoError(t, err)
	require.Equal(t, intensity.Sanft, renamed.Intensity)
	require.Equal(t, intensity.Sanft, repo.lastPrevious)
}

func TestDeleteTemplate(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, nil)

	agg, err := service.CreateTemplate(context.Background(), CreateTemplateInput{
		TenantID: "tenant-1",
		UserID:   "user-1",
		Name:     "Leg Day",
	})
	require.NoError(t, err)

	require.NoError(t, service.DeleteTemplate(context.Background(), "tenant-1", agg.ID))
	require.ErrorIs(t, service.DeleteTemplate(context.Background(), "tenant-1", agg.ID), ErrTemplateNotFound)
}

func TestIntensitySummaryRequiresUser(t *testing.T) {
	service := NewService(newMemoryRepo(), nil)

	_, err := service.IntensitySummaryByUser(context.Background(), "tenant-1", " ")
	require.Error(t, err)
}

// memoryRepo is a map-backed TemplateRepository for unit tests.
type memoryRepo struct {
	templates    map[string]TemplateAggregate
	lastPrevious intensity.Intensity
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{templates: make(map[string]TemplateAggregate)}
}

func (m *memoryRepo) Create(_ context.Context, aggregate TemplateAggregate) error {
	m.templates[aggregate.ID] = aggregate
	return nil
}

func (m *memoryRepo) Get(_ context.Context, tenantID, templateID string) (*TemplateAggregate, error) {
	agg, ok := m.templates[templateID]
	if !ok || agg.TenantID != tenantID {
		return nil, nil
	}
	copied := agg
	return &copied, nil
}

func (m *memoryRepo) ListByUser(_ context.Context, tenantID, userID string, _ *Cursor, limit int) ([]TemplateAggregate, *Cursor, error) {
	out := make([]TemplateAggregate, 0)
	for _, agg := range m.templates {
		if agg.TenantID == tenantID && agg.UserID == userID {
			out = append(out, agg)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil, nil
}

func (m *memoryRepo) Rename(_ context.Context, aggregate TemplateAggregate, previous intensity.Intensity) error {
	m.lastPrevious = previous
	m.templates[aggregate.ID] = aggregate
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, tenantID, templateID string) error {
	delete(m.templates, templateID)
	return nil
}

func (m *memoryRepo) SummaryByUser(_ context.Context, tenantID, userID string) (IntensitySummary, error) {
	var summary IntensitySummary
	var last time.Time
	for _, agg := range m.templates {
		if agg.TenantID != tenantID || agg.UserID != userID {
			continue
		}
		summary.Total++
		switch agg.Intensity {
		case intensity.Sanft:
			summary.Sanft++
		case intensity.Power:
			summary.Power++
		default:
			summary.Aktiv++
		}
		if agg.UpdatedAt.After(last) {
			last = agg.UpdatedAt
			summary.LastUpdatedAt = &last
		}
	}
	return summary, nil
}
