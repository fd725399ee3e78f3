package model

import "time"

// Account holds the verification tier of an identity uid. StrikeCount is
// maintained by moderation and only read here.
type Account struct {
	ID          string    `gorm:"primaryKey;size:128"`
	DisplayName string    `gorm:"column:display_name;size:120"`
	Tier        string    `gorm:"column:tier;size:16;not null;default:unverified"`
	StrikeCount int       `gorm:"column:strike_count;not null;default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Account) TableName() string {
	return "accounts"
}
