package domain

import (
	"time"

	"example.com/template/internal/intensity"
)

// TemplateAggregate is the workout template stored in Postgres together
// with its exercises and planned sets.
type TemplateAggregate struct {
	ID        string
	TenantID  string
	UserID    string
	Name      string
	Intensity intensity.Intensity
	Exercises []TemplateExercise
	Version   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TemplateExercise is one exercise slot within a template.
type TemplateExercise struct {
	ID         string
	TemplateID string
	Name       string
	Position   int
	Notes      string
	Sets       []ExerciseSet
}

// ExerciseSet is a planned set for a template exercise.
type ExerciseSet struct {
	ID          string
	ExerciseID  string
	Position    int
	Reps        int
	WeightKg    float64
	DurationSec int
	RestSec     int
}

// Cursor models the pagination token for template listings.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// IntensitySummary aggregates a user's templates per label.
type IntensitySummary struct {
	Total         int
	Sanft         int
	Aktiv         int
	Power         int
	LastUpdatedAt *time.Time
}
