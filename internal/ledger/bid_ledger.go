package ledger

import (
	"context"

	"github.com/shinyyama/marketplace-core/internal/listingstatus"
	"github.com/shinyyama/marketplace-core/internal/model"
	"github.com/shinyyama/marketplace-core/internal/verification"
)

type BidLedger struct {
	store    Store
	locks    *Locks
	resolver listingstatus.Resolver
	opts     Options
}

func NewBidLedger(store Store, locks *Locks, opts Options) *BidLedger {
	opts = opts.withDefaults()
	return &BidLedger{
		store:    store,
		locks:    locks,
		resolver: listingstatus.NewResolver(opts.EndingSoonWindow),
		opts:     opts,
	}
}

type BidResult struct {
	Bid             model.Bid
	Listing         model.Listing
	CurrentPrice    int64
	IsHighestBidder bool
	HighestBidderID string
	BidCount        int
}

// AuctionState is the full, idempotent read model of a listing's auction.
type AuctionState struct {
	ListingID       string
	StartingPrice   int64
	CurrentPrice    int64
	HighestBid      int64
	HighestBidderID string
	MinimumNextBid  int64
	BidCount        int
	Bids            []model.Bid
}

// PlaceBid admits a maximum bid. Preconditions are evaluated in a fixed order
// and the first failure is returned. Everything after the capability check runs
// inside the listing's serialization unit, so a bid that lost a race is judged
// against the state the winner left behind.
func (l *BidLedger) PlaceBid(ctx context.Context, caller verification.Caller, listingID string, amount int64) (*BidResult, error) {
	if !caller.Allows(verification.CapPlaceBids) {
		return nil, ErrUnauthorized
	}

	var res *BidResult
	err := l.locks.Do(ctx, listingID, func() error {
		return l.store.Atomic(ctx, listingID, func(tx Store) error {
			listing, err := tx.GetListing(ctx, listingID)
			if err != nil {
				return err
			}
			now := l.opts.Now()
			if !l.resolver.Resolve(listing, now).Open() {
				return ErrAuctionClosed
			}
			if listing.SellerID == caller.UserID {
				return ErrUnauthorized
			}
			bids, err := tx.ListBids(ctx, listingID)
			if err != nil {
				return err
			}
			before := Fold(listing.Price, l.opts.Increment, bids)
			if err := l.checkAmount(before, caller.UserID, amount); err != nil {
				return err
			}

			bid := model.Bid{
				ID:        NewID(now),
				ListingID: listingID,
				Sequence:  nextSequence(bids),
				UserID:    caller.UserID,
				Amount:    amount,
				CreatedAt: now,
			}
			if err := tx.AppendBid(ctx, &bid); err != nil {
				return err
			}

			after := Fold(listing.Price, l.opts.Increment, append(bids, bid))
			res = &BidResult{
				Bid:             bid,
				Listing:         *listing,
				CurrentPrice:    after.CurrentPrice,
				IsHighestBidder: after.HighestBidderID == caller.UserID,
				HighestBidderID: after.HighestBidderID,
				BidCount:        after.BidCount,
			}
			return nil
		})
	})
	if err != nil {
		return nil, classify(err)
	}
	return res, nil
}

// checkAmount applies the acceptance rule. Amounts lie in (0, MaxAmount] on the
// increment grid; the opening bid may also equal the starting price exactly.
func (l *BidLedger) checkAmount(st Standing, userID string, amount int64) error {
	if amount <= 0 || amount > l.opts.MaxAmount {
		return ErrInvalidAmount
	}
	opening := st.BidCount == 0 && amount == st.StartingPrice
	if amount%l.opts.Increment != 0 && !opening {
		return ErrInvalidAmount
	}
	if amount < st.MinimumNextBid(l.opts.Increment) {
		return ErrInvalidAmount
	}
	if amount <= st.UserMaximum(userID) {
		return ErrInvalidAmount
	}
	return nil
}

func nextSequence(bids []model.Bid) int64 {
	var seq int64
	for _, b := range bids {
		if b.Sequence > seq {
			seq = b.Sequence
		}
	}
	return seq + 1
}

func (l *BidLedger) standing(ctx context.Context, listingID string) (*model.Listing, Standing, []model.Bid, error) {
	listing, err := l.store.GetListing(ctx, listingID)
	if err != nil {
		return nil, Standing{}, nil, classify(err)
	}
	bids, err := l.store.ListBids(ctx, listingID)
	if err != nil {
		return nil, Standing{}, nil, classify(err)
	}
	return listing, Fold(listing.Price, l.opts.Increment, bids), bids, nil
}

// CurrentPrice is the visible price: the starting price until a second bidder
// forces it up.
func (l *BidLedger) CurrentPrice(ctx context.Context, listingID string) (int64, error) {
	_, st, _, err := l.standing(ctx, listingID)
	if err != nil {
		return 0, err
	}
	return st.CurrentPrice, nil
}

func (l *BidLedger) BidCount(ctx context.Context, listingID string) (int, error) {
	_, st, _, err := l.standing(ctx, listingID)
	if err != nil {
		return 0, err
	}
	return st.BidCount, nil
}

func (l *BidLedger) State(ctx context.Context, listingID string) (*AuctionState, error) {
	listing, st, bids, err := l.standing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return &AuctionState{
		ListingID:       listing.ID,
		StartingPrice:   listing.Price,
		CurrentPrice:    st.CurrentPrice,
		HighestBid:      st.HighestBid,
		HighestBidderID: st.HighestBidderID,
		MinimumNextBid:  st.MinimumNextBid(l.opts.Increment),
		BidCount:        st.BidCount,
		Bids:            bids,
	}, nil
}

func (l *BidLedger) UserBidStatus(ctx context.Context, listingID, userID string) (UserStatus, error) {
	_, st, _, err := l.standing(ctx, listingID)
	if err != nil {
		return UserStatus{}, err
	}
	return st.UserStatus(userID), nil
}
