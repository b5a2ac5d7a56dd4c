package models

import "time"

const (
	RewardTypePurchase         = "PURCHASE"
	RewardTypeReferralPurchase = "REFERRAL_PURCHASE"
)

// Reward records a one-time loyalty payout linked to an order. The unique
// (order_id, type) index is the database-level guarantee that each order
// yields at most one PURCHASE and one REFERRAL_PURCHASE reward.
type Reward struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	OrderID   uint      `gorm:"not null;index:ux_rewards_order_type,unique,priority:1" json:"order_id"`
	Type      string    `gorm:"type:varchar(30);not null;index:ux_rewards_order_type,unique,priority:2" json:"type"`
	Points    int       `gorm:"not null" json:"points"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
