package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shinyyama/marketplace-core/internal/ledger"
	"github.com/shinyyama/marketplace-core/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements ledger.Store on gorm. Atomic takes a row lock on the
// listing so replicas serialize per listing as well.
type Store struct {
	db *gorm.DB
}

var _ ledger.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.ErrNotFound
	}
	return err
}

func (s *Store) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	var l model.Listing
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&l).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (s *Store) SetListingStatus(ctx context.Context, id string, status model.ListingStatus) error {
	res := s.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero for a no-op update, so confirm the row exists.
		var n int64
		if err := s.db.WithContext(ctx).Model(&model.Listing{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ledger.ErrNotFound
		}
	}
	return nil
}

func (s *Store) ListBids(ctx context.Context, listingID string) ([]model.Bid, error) {
	var list []model.Bid
	if err := s.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("sequence ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) AppendBid(ctx context.Context, bid *model.Bid) error {
	return s.db.WithContext(ctx).Create(bid).Error
}

func (s *Store) ListOffers(ctx context.Context, listingID string) ([]model.Offer, error) {
	var list []model.Offer
	if err := s.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) GetOffer(ctx context.Context, id string) (*model.Offer, error) {
	var o model.Offer
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&o).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *Store) AppendOffer(ctx context.Context, offer *model.Offer) error {
	return s.db.WithContext(ctx).Create(offer).Error
}

func (s *Store) TransitionOffer(ctx context.Context, id string, from, to model.OfferStatus, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&model.Offer{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) PendingOffersBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.Offer, error) {
	var list []model.Offer
	q := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.OfferStatusPending, cutoff).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) Atomic(ctx context.Context, listingID string, fn func(tx ledger.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l model.Listing
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", listingID).
			Take(&l).Error; err != nil {
			return notFound(err)
		}
		return fn(&Store{db: tx})
	})
}
