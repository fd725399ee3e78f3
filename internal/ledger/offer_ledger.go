package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shinyyama/marketplace-core/internal/listingstatus"
	"github.com/shinyyama/marketplace-core/internal/model"
	"github.com/shinyyama/marketplace-core/internal/verification"
)

// AcceptHook runs inside the listing's serialization unit right after an offer
// is accepted. It is how the listing's owner collaborator reacts to the sale.
type AcceptHook func(ctx context.Context, tx Store, listing *model.Listing, offer *model.Offer) error

type OfferLedger struct {
	store    Store
	locks    *Locks
	resolver listingstatus.Resolver
	opts     Options
	onAccept AcceptHook
}

func NewOfferLedger(store Store, locks *Locks, opts Options) *OfferLedger {
	opts = opts.withDefaults()
	return &OfferLedger{
		store:    store,
		locks:    locks,
		resolver: listingstatus.NewResolver(opts.EndingSoonWindow),
		opts:     opts,
	}
}

// OnAccept registers the hook run when an offer is accepted.
func (l *OfferLedger) OnAccept(h AcceptHook) {
	l.onAccept = h
}

type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionDeclined Decision = "declined"
)

func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionAccepted:
		return DecisionAccepted, nil
	case DecisionDeclined:
		return DecisionDeclined, nil
	}
	return "", ErrInvalidDecision
}

// Resolution describes a completed seller response. Sold is the event that
// moves the listing toward sold.
type Resolution struct {
	Offer   model.Offer
	Listing model.Listing
	Sold    bool
}

type OfferState struct {
	HasPendingOffer bool
	LatestOffer     *model.Offer
}

// MakeOffer creates a pending offer. Rejections: ErrUnauthorized,
// ErrOffersNotAllowed, ErrAuctionClosed, ErrBiddingAlreadyStarted,
// ErrDuplicatePendingOffer, ErrInvalidAmount.
func (l *OfferLedger) MakeOffer(ctx context.Context, caller verification.Caller, listingID string, amount int64, message *string) (*model.Offer, *model.Listing, error) {
	if !caller.Allows(verification.CapMakeOffers) {
		return nil, nil, ErrUnauthorized
	}
	message = normalizeMessage(message)

	var (
		offer   *model.Offer
		listing *model.Listing
	)
	err := l.locks.Do(ctx, listingID, func() error {
		return l.store.Atomic(ctx, listingID, func(tx Store) error {
			var err error
			listing, err = tx.GetListing(ctx, listingID)
			if err != nil {
				return err
			}
			if !listing.AllowBestOffer {
				return ErrOffersNotAllowed
			}
			if listing.SellerID == caller.UserID {
				return ErrUnauthorized
			}
			now := l.opts.Now()
			if !l.resolver.Resolve(listing, now).Open() {
				return ErrAuctionClosed
			}
			bids, err := tx.ListBids(ctx, listingID)
			if err != nil {
				return err
			}
			if len(bids) > 0 {
				return ErrBiddingAlreadyStarted
			}
			offers, err := tx.ListOffers(ctx, listingID)
			if err != nil {
				return err
			}
			for _, o := range offers {
				if o.UserID == caller.UserID && o.Status == model.OfferStatusPending {
					return ErrDuplicatePendingOffer
				}
			}
			if amount <= 0 || amount > l.opts.MaxAmount {
				return ErrInvalidAmount
			}

			offer = &model.Offer{
				ID:        NewID(now),
				ListingID: listingID,
				UserID:    caller.UserID,
				Amount:    amount,
				Message:   message,
				Status:    model.OfferStatusPending,
				CreatedAt: now,
				UpdatedAt: now,
			}
			return tx.AppendOffer(ctx, offer)
		})
	})
	if err != nil {
		return nil, nil, classify(err)
	}
	return offer, listing, nil
}

// RespondToOffer applies the seller's decision exactly once. A second response
// to the same offer fails with ErrAlreadyResolved.
func (l *OfferLedger) RespondToOffer(ctx context.Context, caller verification.Caller, offerID string, decision Decision) (*Resolution, error) {
	if !caller.Allows(verification.CapBuyAndSell) {
		return nil, ErrUnauthorized
	}
	if decision != DecisionAccepted && decision != DecisionDeclined {
		return nil, ErrInvalidDecision
	}
	found, err := l.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, classify(err)
	}

	var res *Resolution
	err = l.locks.Do(ctx, found.ListingID, func() error {
		return l.store.Atomic(ctx, found.ListingID, func(tx Store) error {
			offer, err := tx.GetOffer(ctx, offerID)
			if err != nil {
				return err
			}
			listing, err := tx.GetListing(ctx, offer.ListingID)
			if err != nil {
				return err
			}
			if listing.SellerID != caller.UserID {
				return ErrUnauthorized
			}
			if offer.Status.Terminal() {
				return ErrAlreadyResolved
			}
			if decision == DecisionAccepted && listing.Status != model.ListingStatusActive {
				return ErrAuctionClosed
			}

			to := model.OfferStatus(decision)
			now := l.opts.Now()
			changed, err := tx.TransitionOffer(ctx, offer.ID, model.OfferStatusPending, to, now)
			if err != nil {
				return err
			}
			if !changed {
				return ErrAlreadyResolved
			}
			offer.Status = to
			offer.UpdatedAt = now

			sold := decision == DecisionAccepted
			if sold && l.onAccept != nil {
				if err := l.onAccept(ctx, tx, listing, offer); err != nil {
					return err
				}
			}
			res = &Resolution{Offer: *offer, Listing: *listing, Sold: sold}
			return nil
		})
	})
	if err != nil {
		return nil, classify(err)
	}
	return res, nil
}

// Expire moves a pending offer to expired. It is triggered by an external time
// sweep.
func (l *OfferLedger) Expire(ctx context.Context, offerID string) (*model.Offer, error) {
	found, err := l.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, classify(err)
	}
	var offer *model.Offer
	err = l.locks.Do(ctx, found.ListingID, func() error {
		return l.store.Atomic(ctx, found.ListingID, func(tx Store) error {
			now := l.opts.Now()
			changed, err := tx.TransitionOffer(ctx, offerID, model.OfferStatusPending, model.OfferStatusExpired, now)
			if err != nil {
				return err
			}
			if !changed {
				return ErrAlreadyResolved
			}
			offer, err = tx.GetOffer(ctx, offerID)
			return err
		})
	})
	if err != nil {
		return nil, classify(err)
	}
	return offer, nil
}

// ExpirePendingBefore expires up to limit pending offers created before cutoff
// and returns how many changed. Offers resolved concurrently are skipped.
func (l *OfferLedger) ExpirePendingBefore(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	offers, err := l.store.PendingOffersBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, classify(err)
	}
	n := 0
	for _, o := range offers {
		if _, err := l.Expire(ctx, o.ID); err != nil {
			if errors.Is(err, ErrAlreadyResolved) {
				continue
			}
			return n, err
		}
		n++
	}
	return n, nil
}

func (l *OfferLedger) OfferState(ctx context.Context, listingID, userID string) (*OfferState, error) {
	if _, err := l.store.GetListing(ctx, listingID); err != nil {
		return nil, classify(err)
	}
	offers, err := l.store.ListOffers(ctx, listingID)
	if err != nil {
		return nil, classify(err)
	}
	st := &OfferState{}
	for i := range offers {
		o := offers[i]
		if o.UserID != userID {
			continue
		}
		if o.Status == model.OfferStatusPending {
			st.HasPendingOffer = true
		}
		st.LatestOffer = &o
	}
	return st, nil
}

// ListOffers returns every offer on a listing. Only the seller may see them.
func (l *OfferLedger) ListOffers(ctx context.Context, caller verification.Caller, listingID string) ([]model.Offer, error) {
	listing, err := l.store.GetListing(ctx, listingID)
	if err != nil {
		return nil, classify(err)
	}
	if caller.UserID == "" || listing.SellerID != caller.UserID {
		return nil, ErrUnauthorized
	}
	offers, err := l.store.ListOffers(ctx, listingID)
	if err != nil {
		return nil, classify(err)
	}
	return offers, nil
}

func normalizeMessage(m *string) *string {
	if m == nil {
		return nil
	}
	s := strings.TrimSpace(*m)
	if s == "" {
		return nil
	}
	return &s
}
