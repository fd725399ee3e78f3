package model

import "time"

// Bid is a bidder's maximum. Rows are append-only.
type Bid struct {
	ID        string    `gorm:"primaryKey;size:26"`
	ListingID string    `gorm:"column:listing_id;size:26;not null;uniqueIndex:uk_bids_listing_seq,priority:1"`
	Sequence  int64     `gorm:"column:sequence;not null;uniqueIndex:uk_bids_listing_seq,priority:2"`
	UserID    string    `gorm:"column:user_id;size:128;not null;index"`
	Amount    int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Bid) TableName() string {
	return "bids"
}
