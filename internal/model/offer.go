package model

import "time"

type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusDeclined OfferStatus = "declined"
	OfferStatusExpired  OfferStatus = "expired"
)

// Terminal reports whether no further transition is allowed.
func (s OfferStatus) Terminal() bool {
	return s != OfferStatusPending
}

type Offer struct {
	ID        string      `gorm:"primaryKey;size:26"`
	ListingID string      `gorm:"column:listing_id;size:26;not null;index:idx_offers_listing_user,priority:1"`
	UserID    string      `gorm:"column:user_id;size:128;not null;index:idx_offers_listing_user,priority:2"`
	Amount    int64       `gorm:"not null"`
	Message   *string     `gorm:"type:text"`
	Status    OfferStatus `gorm:"column:status;size:16;not null;index"`
	CreatedAt time.Time   `gorm:"autoCreateTime"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime"`
}

func (Offer) TableName() string {
	return "offers"
}
