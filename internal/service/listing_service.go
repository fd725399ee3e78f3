package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shinyyama/marketplace-core/internal/ledger"
	"github.com/shinyyama/marketplace-core/internal/listingstatus"
	"github.com/shinyyama/marketplace-core/internal/model"
	"github.com/shinyyama/marketplace-core/internal/repository"
	"github.com/shinyyama/marketplace-core/internal/verification"
)

var ErrInvalidListing = errors.New("invalid_listing")

const (
	DefaultListingDuration = 7 * 24 * time.Hour
	MinListingDuration     = time.Hour
	MaxListingDuration     = 30 * 24 * time.Hour
)

type CreateListingInput struct {
	Title          string
	Price          int64
	Type           model.ListingType
	AllowBestOffer bool
	Duration       time.Duration
}

// ListingView pairs a listing with the status a client should display.
type ListingView struct {
	Listing         model.Listing
	EffectiveStatus listingstatus.Status
}

type ListingService interface {
	Create(ctx context.Context, caller verification.Caller, in CreateListingInput) (*ListingView, error)
	Get(ctx context.Context, id string) (*ListingView, error)
	List(ctx context.Context, limit, offset int) ([]ListingView, int64, error)
}

type listingService struct {
	repo     repository.ListingRepository
	resolver listingstatus.Resolver
	now      func() time.Time
}

func NewListingService(repo repository.ListingRepository, resolver listingstatus.Resolver, now func() time.Time) ListingService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &listingService{repo: repo, resolver: resolver, now: now}
}

func (s *listingService) Create(ctx context.Context, caller verification.Caller, in CreateListingInput) (*ListingView, error) {
	if !caller.Allows(verification.CapCreateListings) {
		return nil, ledger.ErrUnauthorized
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > 120 {
		return nil, fmt.Errorf("%w: invalid title", ErrInvalidListing)
	}
	if in.Price <= 0 || in.Price > ledger.DefaultMaxAmount {
		return nil, fmt.Errorf("%w: price out of range", ErrInvalidListing)
	}
	typ := in.Type
	if typ == "" {
		typ = model.ListingTypeAuction
	}
	if typ != model.ListingTypeAuction && typ != model.ListingTypeClassified {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidListing, in.Type)
	}
	d := in.Duration
	if d == 0 {
		d = DefaultListingDuration
	}
	if d < MinListingDuration || d > MaxListingDuration {
		return nil, fmt.Errorf("%w: duration out of range", ErrInvalidListing)
	}

	now := s.now()
	l := &model.Listing{
		ID:             ledger.NewID(now),
		SellerID:       caller.UserID,
		Title:          title,
		Price:          in.Price,
		Type:           typ,
		AllowBestOffer: in.AllowBestOffer,
		Status:         model.ListingStatusActive,
		ExpiresAt:      now.Add(d),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrStorageFailure, err)
	}
	return s.view(l, now), nil
}

func (s *listingService) Get(ctx context.Context, id string) (*ListingView, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ledger.ErrStorageFailure, err)
	}
	return s.view(l, s.now()), nil
}

func (s *listingService) List(ctx context.Context, limit, offset int) ([]ListingView, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ledger.ErrStorageFailure, err)
	}
	now := s.now()
	views := make([]ListingView, 0, len(list))
	for i := range list {
		views = append(views, *s.view(&list[i], now))
	}
	return views, total, nil
}

func (s *listingService) view(l *model.Listing, now time.Time) *ListingView {
	return &ListingView{Listing: *l, EffectiveStatus: s.resolver.Resolve(l, now)}
}
