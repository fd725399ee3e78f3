package ledger

import (
	"context"
	"time"

	"github.com/shinyyama/marketplace-core/internal/model"
)

// Store is the persistence collaborator. Implementations return ErrNotFound
// for missing rows. Bids are returned in admission order (Sequence ascending),
// offers in creation order.
type Store interface {
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	SetListingStatus(ctx context.Context, id string, status model.ListingStatus) error

	ListBids(ctx context.Context, listingID string) ([]model.Bid, error)
	AppendBid(ctx context.Context, bid *model.Bid) error

	ListOffers(ctx context.Context, listingID string) ([]model.Offer, error)
	GetOffer(ctx context.Context, id string) (*model.Offer, error)
	AppendOffer(ctx context.Context, offer *model.Offer) error
	// TransitionOffer moves an offer from one status to another only if it is
	// still in the from status. It reports whether a row changed.
	TransitionOffer(ctx context.Context, id string, from, to model.OfferStatus, at time.Time) (bool, error)
	PendingOffersBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.Offer, error)

	// Atomic runs fn as one unit scoped to a listing. Everything fn does
	// through tx commits or rolls back together.
	Atomic(ctx context.Context, listingID string, fn func(tx Store) error) error
}
