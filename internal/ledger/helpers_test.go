package ledger

import (
	"time"

	"github.com/shinyyama/marketplace-core/internal/model"
	"github.com/shinyyama/marketplace-core/internal/verification"
)

var testNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func testOptions() Options {
	return Options{Increment: 5, EndingSoonWindow: 24 * time.Hour, Now: fixedNow}
}

func auctionListing(id string, price int64) model.Listing {
	return model.Listing{
		ID:        id,
		SellerID:  "seller",
		Title:     "Road bike",
		Price:     price,
		Type:      model.ListingTypeAuction,
		Status:    model.ListingStatusActive,
		ExpiresAt: testNow.Add(7 * 24 * time.Hour),
	}
}

func offerListing(id string, price int64) model.Listing {
	l := auctionListing(id, price)
	l.Type = model.ListingTypeClassified
	l.AllowBestOffer = true
	return l
}

func verified(uid string) verification.Caller {
	return verification.Caller{UserID: uid, Tier: verification.TierVerified}
}

func unverified(uid string) verification.Caller {
	return verification.Caller{UserID: uid, Tier: verification.TierUnverified}
}

func newLedgers(store Store) (*BidLedger, *OfferLedger) {
	locks := NewLocks()
	return NewBidLedger(store, locks, testOptions()), NewOfferLedger(store, locks, testOptions())
}
