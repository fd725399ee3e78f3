package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shinyyama/marketplace-core/internal/model"
)

type fakeStore struct {
	mu        sync.Mutex
	listings  map[string]model.Listing
	bids      map[string][]model.Bid
	offers    map[string]model.Offer
	appendErr error
}

func newFakeStore(listings ...model.Listing) *fakeStore {
	s := &fakeStore{
		listings: make(map[string]model.Listing),
		bids:     make(map[string][]model.Bid),
		offers:   make(map[string]model.Offer),
	}
	for _, l := range listings {
		s.listings[l.ID] = l
	}
	return s
}

func (s *fakeStore) GetListing(_ context.Context, id string) (*model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (s *fakeStore) SetListingStatus(_ context.Context, id string, status model.ListingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return ErrNotFound
	}
	l.Status = status
	s.listings[id] = l
	return nil
}

func (s *fakeStore) ListBids(_ context.Context, listingID string) ([]model.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Bid, len(s.bids[listingID]))
	copy(out, s.bids[listingID])
	return out, nil
}

func (s *fakeStore) AppendBid(_ context.Context, bid *model.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.bids[bid.ListingID] = append(s.bids[bid.ListingID], *bid)
	return nil
}

func (s *fakeStore) ListOffers(_ context.Context, listingID string) ([]model.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Offer
	for _, o := range s.offers {
		if o.ListingID == listingID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) GetOffer(_ context.Context, id string) (*model.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (s *fakeStore) AppendOffer(_ context.Context, offer *model.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.offers[offer.ID] = *offer
	return nil
}

func (s *fakeStore) TransitionOffer(_ context.Context, id string, from, to model.OfferStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = at
	s.offers[id] = o
	return true, nil
}

func (s *fakeStore) PendingOffersBefore(_ context.Context, cutoff time.Time, limit int) ([]model.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Offer
	for _, o := range s.offers {
		if o.Status == model.OfferStatusPending && o.CreatedAt.Before(cutoff) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) Atomic(_ context.Context, _ string, fn func(tx Store) error) error {
	return fn(s)
}
