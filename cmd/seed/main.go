package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/marketplace-core/internal/config"
	"github.com/shinyyama/marketplace-core/internal/db"
	"github.com/shinyyama/marketplace-core/internal/listingstatus"
	"github.com/shinyyama/marketplace-core/internal/model"
	"github.com/shinyyama/marketplace-core/internal/repository"
	"github.com/shinyyama/marketplace-core/internal/service"
	"github.com/shinyyama/marketplace-core/internal/verification"
)

type seedAccount struct {
	UID         string
	DisplayName string
	Tier        verification.Tier
}

type seedListing struct {
	Title          string
	Price          int64
	Type           model.ListingType
	AllowBestOffer bool
	Duration       time.Duration
}

var accounts = []seedAccount{
	{"demo-unverified", "Una Verified", verification.TierUnverified},
	{"demo-verified", "Vera Buyer", verification.TierVerified},
	{"demo-trader", "Theo Trader", verification.TierTrader},
}

var listings = []seedListing{
	{"Mid-century armchair", 120, model.ListingTypeAuction, false, 7 * 24 * time.Hour},
	{"Film camera with 50mm lens", 250, model.ListingTypeAuction, true, 20 * time.Hour},
	{"Oak dining table", 400, model.ListingTypeClassified, true, 14 * 24 * time.Hour},
	{"Vintage road bike", 1000, model.ListingTypeAuction, false, 3 * 24 * time.Hour},
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	accountSvc := service.NewAccountService(repository.NewAccountRepository(gdb))
	for _, a := range accounts {
		if _, err := accountSvc.Upsert(ctx, a.UID, a.DisplayName, a.Tier); err != nil {
			return fmt.Errorf("upsert account %s: %w", a.UID, err)
		}
		log.Printf("account %s (%s)", a.UID, a.Tier)
	}

	listingRepo := repository.NewListingRepository(gdb)
	existing, err := listingRepo.ListBySeller(ctx, "demo-trader")
	if err != nil {
		return fmt.Errorf("list existing: %w", err)
	}
	if len(existing) > 0 {
		log.Printf("demo listings already exist; skipping")
		return nil
	}

	listingSvc := service.NewListingService(listingRepo, listingstatus.NewResolver(cfg.EndingSoonWindow), nil)
	seller := verification.Caller{UserID: "demo-trader", Tier: verification.TierTrader}
	for _, l := range listings {
		view, err := listingSvc.Create(ctx, seller, service.CreateListingInput{
			Title:          l.Title,
			Price:          l.Price,
			Type:           l.Type,
			AllowBestOffer: l.AllowBestOffer,
			Duration:       l.Duration,
		})
		if err != nil {
			return fmt.Errorf("create listing %q: %w", l.Title, err)
		}
		log.Printf("listing %s %q (%s)", view.Listing.ID, view.Listing.Title, view.EffectiveStatus)
	}
	return nil
}
