package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
)

// Configuration for the queue cleanup job
type Config struct {
	SpannerDB             string
	CompleteRetentionDays int
	DeadRetentionDays     int
	DriftRetentionDays    int
	StagedRetentionDays   int
	DryRun                bool
}

func main() {
	config := Config{}
	flag.StringVar(&config.SpannerDB, "database", "", "Spanner database (required, format: projects/PROJECT/instances/INSTANCE/databases/DATABASE)")
	flag.IntVar(&config.CompleteRetentionDays, "complete-retention", 30, "Retention days for completed queue items")
	flag.IntVar(&config.DeadRetentionDays, "dead-retention", 90, "Retention days for dead-lettered queue items")
	flag.IntVar(&config.DriftRetentionDays, "drift-retention", 90, "Retention days for drift events")
	flag.IntVar(&config.StagedRetentionDays, "staged-retention", 14, "Retention days for processed staging rows")
	flag.BoolVar(&config.DryRun, "dry-run", false, "Show what would be deleted without actually deleting")
	flag.Parse()

	if config.SpannerDB == "" {
		log.Fatal("Error: -database flag is required")
	}

	ctx := context.Background()

	if err := cleanup(ctx, config); err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}

	log.Println("Cleanup completed successfully")
}

// target pairs one retention rule with the statement that enforces it. The
// dead-letter audit trail in failed_events is deliberately not covered;
// operators prune it by hand once a replay decision is made.
type target struct {
	name string
	sql  string
	args map[string]interface{}
}

func targets(config Config, now time.Time) []target {
	completeCutoff := now.AddDate(0, 0, -config.CompleteRetentionDays)
	deadCutoff := now.AddDate(0, 0, -config.DeadRetentionDays)
	driftCutoff := now.AddDate(0, 0, -config.DriftRetentionDays)
	stagedCutoff := now.AddDate(0, 0, -config.StagedRetentionDays)

	return []target{
		{
			name: "terminal queue items",
			sql: `DELETE FROM change_queue
				WHERE (status = 'complete' AND updated_at < @completeCutoff)
				   OR (status = 'dead' AND updated_at < @deadCutoff)`,
			args: map[string]interface{}{
				"completeCutoff": completeCutoff,
				"deadCutoff":     deadCutoff,
			},
		},
		{
			name: "drift events",
			sql:  `DELETE FROM drift_events WHERE created_at < @driftCutoff`,
			args: map[string]interface{}{"driftCutoff": driftCutoff},
		},
		{
			name: "processed staging rows",
			sql: `DELETE FROM staging_listings
				WHERE process_status = 'processed' AND processed_at < @stagedCutoff`,
			args: map[string]interface{}{"stagedCutoff": stagedCutoff},
		},
	}
}

func cleanup(ctx context.Context, config Config) error {
	client, err := spanner.NewClient(ctx, config.SpannerDB)
	if err != nil {
		return fmt.Errorf("failed to create Spanner client: %w", err)
	}
	defer client.Close()

	now := time.Now().UTC()

	log.Printf("Starting queue cleanup...")
	log.Printf("  Complete retention: %d days, dead: %d, drift: %d, staged: %d",
		config.CompleteRetentionDays, config.DeadRetentionDays, config.DriftRetentionDays, config.StagedRetentionDays)
	log.Printf("  Dry run: %v", config.DryRun)

	for _, t := range targets(config, now) {
		if config.DryRun {
			if err := dryRunTarget(ctx, client, t); err != nil {
				return err
			}
			continue
		}
		if err := deleteTarget(ctx, client, t); err != nil {
			return err
		}
	}

	if config.DryRun {
		log.Println("Run without --dry-run to actually delete rows")
	}
	return nil
}

func dryRunTarget(ctx context.Context, client *spanner.Client, t target) error {
	countSQL := "SELECT COUNT(*) " + t.sql[len("DELETE "):]
	stmt := spanner.Statement{SQL: countSQL, Params: t.args}

	iter := client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err == iterator.Done {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to count %s: %w", t.name, err)
	}

	var count int64
	if err := row.Columns(&count); err != nil {
		return fmt.Errorf("failed to parse count for %s: %w", t.name, err)
	}

	log.Printf("  Would delete %d %s", count, t.name)
	return nil
}

func deleteTarget(ctx context.Context, client *spanner.Client, t target) error {
	_, err := client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		deleted, err := txn.Update(ctx, spanner.Statement{SQL: t.sql, Params: t.args})
		if err != nil {
			return err
		}
		log.Printf("  Deleted %d %s", deleted, t.name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", t.name, err)
	}
	return nil
}
