package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/template/internal/domain"
	"example.com/template/internal/event"
	"example.com/template/internal/intensity"
	"example.com/template/internal/observability"
)

// Repository provides Postgres-backed persistence for workout templates and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const templateColumns = `template_id, tenant_id, user_id, name, intensity, version, created_at, updated_at`

// Create persists the template with its exercises and sets, and records
// outbox events inside the same transaction.
func (r *Repository) Create(ctx context.Context, aggregate domain.TemplateAggregate) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", aggregate.TenantID); err != nil {
		return err
	}

	const insertTemplate = `INSERT INTO workout_templates (template_id, tenant_id, user_id, name, intensity, version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, insertTemplate,
		aggregate.ID,
		aggregate.TenantID,
		aggregate.UserID,
		aggregate.Name,
		aggregate.Intensity,
		aggregate.Version,
		aggregate.CreatedAt,
		aggregate.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err = insertExercises(ctx, tx, aggregate); err != nil {
		return err
	}

	if err = r.insertOutbox(ctx, tx, aggregate, "template.created", event.TemplateCreated{
		TemplateID: aggregate.ID,
		TenantID:   aggregate.TenantID,
		UserID:     aggregate.UserID,
		Name:       aggregate.Name,
		Intensity:  string(aggregate.Intensity),
		CreatedAt:  aggregate.CreatedAt,
		Version:    aggregate.Version,
	}); err != nil {
		return err
	}

	if err = r.insertOutbox(ctx, tx, aggregate, "template.classified", event.TemplateClassified{
		TemplateID: aggregate.ID,
		TenantID:   aggregate.TenantID,
		UserID:     aggregate.UserID,
		Name:       aggregate.Name,
		Intensity:  string(aggregate.Intensity),
		Trigger:    event.TriggerCreate,
		OccurredAt: aggregate.UpdatedAt,
	}); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return err
	}
	observability.RecordTemplatePersisted(aggregate.UpdatedAt)
	return nil
}

func insertExercises(ctx context.Context, tx pgx.Tx, aggregate domain.TemplateAggregate) error {
	const insertExercise = `INSERT INTO workout_template_exercises (exercise_id, template_id, tenant_id, name, position, notes)
        VALUES ($1,$2,$3,$4,$5,$6)`
	const insertSet = `INSERT INTO exercise_sets (set_id, exercise_id, tenant_id, position, reps, weight_kg, duration_sec, rest_sec)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	for _, exercise := range aggregate.Exercises {
		if _, err := tx.Exec(ctx, insertExercise,
			exercise.ID,
			aggregate.ID,
			aggregate.TenantID,
			exercise.Name,
			exercise.Position,
			exercise.Notes,
		); err != nil {
			return err
		}
		for _, set := range exercise.Sets {
			if _, err := tx.Exec(ctx, insertSet,
				set.ID,
				exercise.ID,
				aggregate.TenantID,
				set.Position,
				set.Reps,
				set.WeightKg,
				set.DurationSec,
				set.RestSec,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// Get retrieves a template with its exercises and sets.
func (r *Repository) Get(ctx context.Context, tenantID, templateID string) (*domain.TemplateAggregate, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return nil, err
	}

	query := `SELECT ` + templateColumns + ` FROM workout_templates WHERE tenant_id=$1 AND template_id=$2`
	row := tx.QueryRow(ctx, query, tenantID, templateID)

	var agg domain.TemplateAggregate
	if err := row.Scan(&agg.ID, &agg.TenantID, &agg.UserID, &agg.Name, &agg.Intensity, &agg.Version, &agg.CreatedAt, &agg.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if err := tx.Commit(ctx); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, err
	}

	if agg.Exercises, err = loadExercises(ctx, tx, templateID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &agg, nil
}

func loadExercises(ctx context.Context, tx pgx.Tx, templateID string) ([]domain.TemplateExercise, error) {
	rows, err := tx.Query(ctx,
		`SELECT exercise_id, template_id, name, position, notes
         FROM workout_template_exercises WHERE template_id=$1 ORDER BY position`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := make([]domain.TemplateExercise, 0)
	index := make(map[string]int)
	for rows.Next() {
		var ex domain.TemplateExercise
		if err := rows.Scan(&ex.ID, &ex.TemplateID, &ex.Name, &ex.Position, &ex.Notes); err != nil {
			return nil, err
		}
		index[ex.ID] = len(exercises)
		exercises = append(exercises, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(exercises) == 0 {
		return exercises, nil
	}

	setRows, err := tx.Query(ctx,
		`SELECT s.set_id, s.exercise_id, s.position, s.reps, s.weight_kg, s.duration_sec, s.rest_sec
         FROM exercise_sets s
         JOIN workout_template_exercises e ON e.exercise_id = s.exercise_id
         WHERE e.template_id=$1
         ORDER BY s.exercise_id, s.position`, templateID)
	if err != nil {
		return nil, err
	}
	defer setRows.Close()

	for setRows.Next() {
		var set domain.ExerciseSet
		if err := setRows.Scan(&set.ID, &set.ExerciseID, &set.Position, &set.Reps, &set.WeightKg, &set.DurationSec, &set.RestSec); err != nil {
			return nil, err
		}
		if i, ok := index[set.ExerciseID]; ok {
			exercises[i].Sets = append(exercises[i].Sets, set)
		}
	}
	if err := setRows.Err(); err != nil {
		return nil, err
	}
	return exercises, nil
}

// ListByUser returns templates for a user ordered by creation time.
func (r *Repository) ListByUser(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.TemplateAggregate, *domain.Cursor, error) {
	args := []interface{}{tenantID, userID, limit}
	query := `SELECT ` + templateColumns + ` FROM workout_templates WHERE tenant_id=$1 AND user_id=$2`

	if cursor != nil {
		query += ` AND (created_at, template_id) < ($4, $5)`
		args = append(args, cursor.CreatedAt, cursor.ID)
	}

	query += ` ORDER BY created_at DESC, template_id DESC LIMIT $3`

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return nil, nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.TemplateAggregate, 0, limit)
	for rows.Next() {
		var agg domain.TemplateAggregate
		if err := rows.Scan(&agg.ID, &agg.TenantID, &agg.UserID, &agg.Name, &agg.Intensity, &agg.Version, &agg.CreatedAt, &agg.UpdatedAt); err != nil {
			return nil, nil, err
		}
		results = append(results, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	return results, nextCursor, nil
}

// Rename updates the name and intensity, recording a classified event when
// the label changed.
func (r *Repository) Rename(ctx context.Context, aggregate domain.TemplateAggregate, previous intensity.Intensity) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", aggregate.TenantID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE workout_templates SET name=$1, intensity=$2, updated_at=$3 WHERE tenant_id=$4 AND template_id=$5`,
		aggregate.Name, aggregate.Intensity, aggregate.UpdatedAt, aggregate.TenantID, aggregate.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = fmt.Errorf("template %s not updated", aggregate.ID)
		return err
	}

	if aggregate.Intensity != previous {
		if err = r.insertOutbox(ctx, tx, aggregate, "template.classified", event.TemplateClassified{
			TemplateID: aggregate.ID,
			TenantID:   aggregate.TenantID,
			UserID:     aggregate.UserID,
			Name:       aggregate.Name,
			Intensity:  string(aggregate.Intensity),
			Previous:   string(previous),
			Trigger:    event.TriggerRename,
			OccurredAt: aggregate.UpdatedAt,
		}); err != nil {
			return err
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		return err
	}
	observability.RecordTemplatePersisted(aggregate.UpdatedAt)
	return nil
}

// Delete removes a template together with its exercises and sets.
func (r *Repository) Delete(ctx context.Context, tenantID, templateID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return err
	}

	if _, err = tx.Exec(ctx,
		`DELETE FROM exercise_sets WHERE exercise_id IN (SELECT exercise_id FROM workout_template_exercises WHERE template_id=$1)`,
		templateID); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `DELETE FROM workout_template_exercises WHERE template_id=$1`, templateID); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `DELETE FROM workout_templates WHERE tenant_id=$1 AND template_id=$2`, tenantID, templateID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// SummaryByUser aggregates intensity counts for a user's templates. The
// intensity column is indexed, so the grouped scan stays cheap.
func (r *Repository) SummaryByUser(ctx context.Context, tenantID, userID string) (domain.IntensitySummary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return domain.IntensitySummary{}, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return domain.IntensitySummary{}, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return domain.IntensitySummary{}, err
	}

	rows, err := tx.Query(ctx,
		`SELECT intensity, COUNT(*), MAX(updated_at)
         FROM workout_templates WHERE tenant_id=$1 AND user_id=$2
         GROUP BY intensity`, tenantID, userID)
	if err != nil {
		return domain.IntensitySummary{}, err
	}
	defer rows.Close()

	var summary domain.IntensitySummary
	for rows.Next() {
		var label string
		var count int
		var updated time.Time
		if err := rows.Scan(&label, &count, &updated); err != nil {
			return domain.IntensitySummary{}, err
		}
		summary.Total += count
		switch intensity.Intensity(label) {
		case intensity.Sanft:
			summary.Sanft = count
		case intensity.Power:
			summary.Power = count
		default:
			summary.Aktiv += count
		}
		if summary.LastUpdatedAt == nil || updated.After(*summary.LastUpdatedAt) {
			ts := updated
			summary.LastUpdatedAt = &ts
		}
	}
	if err := rows.Err(); err != nil {
		return domain.IntensitySummary{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.IntensitySummary{}, err
	}
	return summary, nil
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, aggregate domain.TemplateAggregate, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta := eventCatalog[eventType]
	if meta.Topic == "" {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	partitionKey := meta.PartitionKeyFn(aggregate)
	dedupeKey := fmt.Sprintf("%s:%s:%d", aggregate.ID, eventType, aggregate.UpdatedAt.UnixNano())

	const stmt = `INSERT INTO outbox (tenant_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, stmt,
		aggregate.TenantID,
		"template",
		aggregate.ID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		partitionKey,
		body,
		dedupeKey,
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	SchemaSubject  string
	PartitionKeyFn func(domain.TemplateAggregate) string
}

var eventCatalog = map[string]EventMetadata{
	"template.created": {
		Topic:         "template_events",
		SchemaSubject: "template_events-value",
		PartitionKeyFn: func(t domain.TemplateAggregate) string {
			return fmt.Sprintf("%s:%s", t.TenantID, t.UserID)
		},
	},
	"template.classified": {
		Topic:         "template_events",
		SchemaSubject: "template_events-value",
		PartitionKeyFn: func(t domain.TemplateAggregate) string {
			return t.ID
		},
	},
}
