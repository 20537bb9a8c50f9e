package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"leadpilot_backend/internal/leads/activity"
	"leadpilot_backend/internal/leads/repository"
	"leadpilot_backend/internal/scheduler"
	"leadpilot_backend/platform/config"
	"leadpilot_backend/platform/db"
	"leadpilot_backend/platform/logger"
)

func main() {
	var (
		mode       = flag.String("mode", "summary", "one of: summary, age, count, combined, clear, enqueue")
		olderThan  = flag.Int("older-than-days", 30, "age threshold in days for age/combined modes")
		keepRecent = flag.Int("keep-recent", 50, "per-lead retention count for count/combined modes")
		execute    = flag.Bool("execute", false, "apply deletions instead of previewing them")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	ctx := context.Background()

	dryRun := !*execute
	age := time.Duration(*olderThan) * 24 * time.Hour

	// Enqueue hands the run to the scheduler worker instead of pruning in
	// process, so it needs Redis but no database connection.
	if *mode == "enqueue" {
		client, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to create scheduler client", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		payload := scheduler.ActivityCleanupPayload{RetentionAge: age, KeepRecent: *keepRecent}
		if err := client.EnqueueActivityCleanup(ctx, payload); err != nil {
			log.Error("failed to enqueue cleanup", "error", err)
			os.Exit(1)
		}
		fmt.Println("cleanup task enqueued")
		return
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	repo := repository.New(pool)
	activities := activity.NewService(repo, log)

	switch *mode {
	case "summary":
		summary, err := activities.Summarize(ctx)
		if err != nil {
			log.Error("failed to summarize activity log", "error", err)
			os.Exit(1)
		}
		fmt.Printf("total activities: %d\n", summary.Total)
		for action, count := range summary.ByAction {
			fmt.Printf("  %-28s %d\n", action, count)
		}
		if summary.Oldest != nil {
			fmt.Printf("oldest: %s\n", summary.Oldest.Format(time.RFC3339))
		}
		if summary.Newest != nil {
			fmt.Printf("newest: %s\n", summary.Newest.Format(time.RFC3339))
		}

	case "age":
		result, err := activities.PruneByAge(ctx, age, dryRun)
		if err != nil {
			log.Error("prune by age failed", "error", err)
			os.Exit(1)
		}
		printPruneResult(result)

	case "count":
		result, err := activities.PruneByCountPerLead(ctx, *keepRecent, dryRun)
		if err != nil {
			log.Error("prune by count failed", "error", err)
			os.Exit(1)
		}
		printPruneResult(result)

	case "combined":
		result, err := activities.PruneCombined(ctx, age, *keepRecent, dryRun)
		if err != nil {
			log.Error("combined prune failed", "error", err)
			os.Exit(1)
		}
		printPruneResult(result)

	case "clear":
		result, err := activities.ClearAll(ctx, dryRun)
		if err != nil {
			log.Error("clear failed", "error", err)
			os.Exit(1)
		}
		if result.DryRun {
			fmt.Printf("dry run: would delete all %d activities\n", result.Total)
		} else {
			fmt.Printf("deleted %d activities\n", result.Deleted)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		flag.Usage()
		os.Exit(2)
	}
}

func printPruneResult(result activity.PruneResult) {
	if result.DryRun {
		fmt.Printf("dry run: %d activities match\n", result.Candidates)
	} else {
		fmt.Printf("deleted %d of %d matching activities\n", result.Deleted, result.Candidates)
	}
	for _, a := range result.Preview {
		fmt.Println("  " + activity.FormatActivityLine(a))
	}
	if result.Candidates > len(result.Preview) {
		fmt.Printf("  ... and %d more\n", result.Candidates-len(result.Preview))
	}
}
