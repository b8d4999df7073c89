// Command backfill reclassifies stored workout templates against the
// current intensity rule table. It replaces the old paste-into-the-console
// UPDATE scripts with an idempotent, observable pass.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/template/internal/config"
	persistence "example.com/template/internal/persistence/postgres"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "scan and report without writing changes")
	disableRLS := flag.Bool("disable-rls", false, "disable row-level security on the template tables before the pass")
	restoreRLS := flag.Bool("restore-rls", false, "re-enable row-level security after the pass")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Println("backfill interrupted")
		cancel()
	}()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := persistence.NewRepository(pool)

	if *disableRLS {
		if err := repo.DisableRowLevelSecurity(ctx); err != nil {
			log.Fatalf("disable RLS: %v", err)
		}
		log.Println("row-level security disabled on template tables")
	}

	if *dryRun {
		report, err := repo.ClassifyDryRun(ctx, nil, cfg.BackfillBatchSize)
		if err != nil {
			log.Fatalf("dry run failed: %v", err)
		}
		log.Printf("dry run: scanned=%d would_change=%d by_label=%v", report.Scanned, report.Changed, report.ByLabel())
	} else {
		report, err := repo.Reclassify(ctx, nil, cfg.BackfillBatchSize)
		if err != nil {
			log.Fatalf("backfill failed: %v", err)
		}
		log.Printf("backfill complete: scanned=%d changed=%d by_label=%v", report.Scanned, report.Changed, report.ByLabel())
	}

	if *restoreRLS {
		if err := repo.EnableRowLevelSecurity(ctx); err != nil {
			log.Fatalf("enable RLS: %v", err)
		}
		log.Println("row-level security restored on template tables")
	}
}
