package model

import "time"

type ListingType string

const (
	ListingTypeAuction    ListingType = "auction"
	ListingTypeClassified ListingType = "classified"
)

// ListingStatus is the stored lifecycle status. Effective status is derived by
// the listingstatus package and never persisted.
type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusSold      ListingStatus = "sold"
	ListingStatusExpired   ListingStatus = "expired"
	ListingStatusCompleted ListingStatus = "completed"
)

type Listing struct {
	ID             string        `gorm:"primaryKey;size:26"`
	SellerID       string        `gorm:"column:seller_id;size:128;index;not null"`
	Title          string        `gorm:"size:120;not null"`
	Price          int64         `gorm:"not null"`
	Type           ListingType   `gorm:"column:type;size:16;not null"`
	AllowBestOffer bool          `gorm:"column:allow_best_offer;not null;default:false"`
	Status         ListingStatus `gorm:"column:status;size:16;not null;index"`
	ExpiresAt      time.Time     `gorm:"column:expires_at;not null;index"`
	CreatedAt      time.Time     `gorm:"autoCreateTime"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime"`
}

func (Listing) TableName() string {
	return "listings"
}
