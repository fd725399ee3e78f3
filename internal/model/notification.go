package model

import "time"

const (
	NotificationNewBid        = "new_bid"
	NotificationNewOffer      = "new_offer"
	NotificationOfferAccepted = "offer_accepted"
	NotificationOfferDeclined = "offer_declined"
)

type Notification struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement"`
	EventID   string     `gorm:"column:event_id;size:36;uniqueIndex"`
	UserID    string     `gorm:"column:user_id;size:128;index;not null"`
	Type      string     `gorm:"column:type;size:64;not null"`
	Title     string     `gorm:"column:title;size:255"`
	Body      string     `gorm:"column:body;type:text"`
	ListingID string     `gorm:"column:listing_id;size:26;index"`
	OfferID   *string    `gorm:"column:offer_id;size:26;index"`
	BidID     *string    `gorm:"column:bid_id;size:26"`
	Payload   string     `gorm:"column:payload;type:text"`
	ReadAt    *time.Time `gorm:"column:read_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
