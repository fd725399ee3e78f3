// Command expire-offers moves pending offers older than a cutoff to expired.
// It is meant to run on a schedule.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/marketplace-core/internal/config"
	"github.com/shinyyama/marketplace-core/internal/db"
	"github.com/shinyyama/marketplace-core/internal/ledger"
	"github.com/shinyyama/marketplace-core/internal/repository"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("expire-offers: %v", err)
	}
}

type options struct {
	olderThan time.Duration
	limit     int
	dryRun    bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	flags := pflag.NewFlagSet("expire-offers", pflag.ContinueOnError)
	flags.DurationVar(&opts.olderThan, "older-than", 72*time.Hour, "expire pending offers created before now minus this duration")
	flags.IntVar(&opts.limit, "limit", 500, "maximum offers to expire in one run (0 for no limit)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "list the offers that would expire without changing them")
	if err := flags.Parse(args); err != nil {
		return options{}, err
	}
	if opts.olderThan <= 0 {
		return options{}, fmt.Errorf("--older-than must be positive")
	}
	if opts.limit < 0 {
		return options{}, fmt.Errorf("--limit must not be negative")
	}
	return opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	conn, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}

	ctx := context.Background()
	store := repository.NewStore(conn)
	cutoff := time.Now().UTC().Add(-opts.olderThan)

	if opts.dryRun {
		offers, err := store.PendingOffersBefore(ctx, cutoff, opts.limit)
		if err != nil {
			return err
		}
		for _, o := range offers {
			logger.Info("would expire",
				zap.String("offer_id", o.ID),
				zap.String("listing_id", o.ListingID),
				zap.Time("created_at", o.CreatedAt))
		}
		logger.Info("dry run complete", zap.Int("count", len(offers)), zap.Time("cutoff", cutoff))
		return nil
	}

	offers := ledger.NewOfferLedger(store, ledger.NewLocks(), ledger.Options{
		Increment:        cfg.BidIncrement,
		EndingSoonWindow: cfg.EndingSoonWindow,
	})
	n, err := offers.ExpirePendingBefore(ctx, cutoff, opts.limit)
	if err != nil {
		return err
	}
	logger.Info("expired offers", zap.Int("count", n), zap.Time("cutoff", cutoff))
	return nil
}
