package postgres

import (
	"context"
	"fmt"
)

// rlsTables are the collections guarded by per-tenant row-level security.
var rlsTables = []string{"workout_templates", "workout_template_exercises", "exercise_sets"}

// DisableRowLevelSecurity switches RLS off on the template tables. Intended
// for ad-hoc operator use only (backfill command); idempotent.
func (r *Repository) DisableRowLevelSecurity(ctx context.Context) error {
	return r.toggleRLS(ctx, "DISABLE")
}

// EnableRowLevelSecurity restores RLS on the template tables. Idempotent.
func (r *Repository) EnableRowLevelSecurity(ctx context.Context) error {
	return r.toggleRLS(ctx, "ENABLE")
}

func (r *Repository) toggleRLS(ctx context.Context, verb string) error {
	for _, table := range rlsTables {
		stmt := fmt.Sprintf("ALTER TABLE %s %s ROW LEVEL SECURITY", table, verb)
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%s RLS on %s: %w", verb, table, err)
		}
	}
	return nil
}
