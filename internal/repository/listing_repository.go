package repository

import (
	"context"

	"github.com/shinyyama/marketplace-core/internal/model"
	"gorm.io/gorm"
)

type ListingRepository interface {
	Create(ctx context.Context, l *model.Listing) error
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	List(ctx context.Context, limit, offset int) ([]model.Listing, int64, error)
	ListBySeller(ctx context.Context, sellerID string) ([]model.Listing, error)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, l *model.Listing) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *listingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	var l model.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&l).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (r *listingRepository) List(ctx context.Context, limit, offset int) ([]model.Listing, int64, error) {
	var (
		list  []model.Listing
		total int64
	)
	if err := r.db.WithContext(ctx).Model(&model.Listing{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).
		Order("created_at desc, id desc").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *listingRepository) ListBySeller(ctx context.Context, sellerID string) ([]model.Listing, error) {
	var list []model.Listing
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at desc, id desc").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
