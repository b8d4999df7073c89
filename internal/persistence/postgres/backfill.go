package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/template/internal/domain"
	"example.com/template/internal/event"
	"example.com/template/internal/intensity"
	"example.com/template/internal/observability"
)

// BackfillReport summarises a reclassification pass.
type BackfillReport struct {
	Scanned int
	Changed int
	Sanft   int
	Aktiv   int
	Power   int
}

// Reclassify walks every template row, recomputes the intensity from the
// current rule table, and rewrites only the rows whose label changed. Each
// change is recorded as a template.classified outbox event in the same
// transaction as the update. The pass is idempotent: a second run over an
// already-classified table changes zero rows.
//
// The streaming scan runs without tenant scoping and therefore needs a
// connection role that is exempt from RLS (the table owner, or the policies
// toggled off via DisableRowLevelSecurity). Per-row updates still set
// app.tenant_id so the write path matches the service's RLS contract.
func (r *Repository) Reclassify(ctx context.Context, classifier *intensity.Classifier, batchSize int) (BackfillReport, error) {
	if classifier == nil {
		classifier = intensity.NewClassifier(nil)
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	var report BackfillReport
	lastID := ""

	for {
		rows, err := r.fetchPage(ctx, lastID, batchSize)
		if err != nil {
			return report, err
		}
		if len(rows) == 0 {
			break
		}
		lastID = rows[len(rows)-1].ID

		for _, row := range rows {
			report.Scanned++
			label := classifier.Classify(row.Name)
			report.count(label)
			if label == row.Intensity {
				continue
			}
			if err := r.applyReclassification(ctx, row, label); err != nil {
				return report, err
			}
			report.Changed++
			observability.RecordBackfillChange(string(label))
		}
	}

	observability.RecordBackfillRun(time.Now().UTC())
	return report, nil
}

// ClassifyDryRun performs the same scan as Reclassify but writes nothing;
// Changed counts the rows a real pass would rewrite.
func (r *Repository) ClassifyDryRun(ctx context.Context, classifier *intensity.Classifier, batchSize int) (BackfillReport, error) {
	if classifier == nil {
		classifier = intensity.NewClassifier(nil)
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	var report BackfillReport
	lastID := ""

	for {
		rows, err := r.fetchPage(ctx, lastID, batchSize)
		if err != nil {
			return report, err
		}
		if len(rows) == 0 {
			break
		}
		lastID = rows[len(rows)-1].ID

		for _, row := range rows {
			report.Scanned++
			label := classifier.Classify(row.Name)
			report.count(label)
			if label != row.Intensity {
				report.Changed++
			}
		}
	}

	return report, nil
}

func (report *BackfillReport) count(label intensity.Intensity) {
	switch label {
	case intensity.Sanft:
		report.Sanft++
	case intensity.Power:
		report.Power++
	default:
		report.Aktiv++
	}
}

type backfillRow struct {
	ID        string
	TenantID  string
	UserID    string
	Name      string
	Intensity intensity.Intensity
}

func (r *Repository) fetchPage(ctx context.Context, afterID string, limit int) ([]backfillRow, error) {
	query := `SELECT template_id, tenant_id, user_id, name, intensity
        FROM workout_templates WHERE template_id::text > $1
        ORDER BY template_id::text LIMIT $2`

	rows, err := r.pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := make([]backfillRow, 0, limit)
	for rows.Next() {
		var row backfillRow
		if err := rows.Scan(&row.ID, &row.TenantID, &row.UserID, &row.Name, &row.Intensity); err != nil {
			return nil, err
		}
		page = append(page, row)
	}
	return page, rows.Err()
}

func (r *Repository) applyReclassification(ctx context.Context, row backfillRow, label intensity.Intensity) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", row.TenantID); err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err = tx.Exec(ctx,
		`UPDATE workout_templates SET intensity=$1, updated_at=$2 WHERE tenant_id=$3 AND template_id=$4`,
		label, now, row.TenantID, row.ID); err != nil {
		return err
	}

	payload, err := json.Marshal(event.TemplateClassified{
		TemplateID: row.ID,
		TenantID:   row.TenantID,
		UserID:     row.UserID,
		Name:       row.Name,
		Intensity:  string(label),
		Previous:   string(row.Intensity),
		Trigger:    event.TriggerBackfill,
		OccurredAt: now,
	})
	if err != nil {
		return err
	}

	meta := eventCatalog["template.classified"]
	dedupeKey := fmt.Sprintf("%s:template.classified:%d", row.ID, now.UnixNano())
	if _, err = tx.Exec(ctx,
		`INSERT INTO outbox (tenant_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		row.TenantID, "template", row.ID, "template.classified", meta.Topic, meta.SchemaSubject, row.ID, payload, dedupeKey,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ByLabel returns the scanned totals per label, mostly for operator logs.
func (report BackfillReport) ByLabel() map[string]int {
	return map[string]int{
		string(intensity.Sanft): report.Sanft,
		string(intensity.Aktiv): report.Aktiv,
		string(intensity.Power): report.Power,
	}
}

var _ domain.TemplateRepository = (*Repository)(nil)
