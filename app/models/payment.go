package models

import "time"

// Payment is the audit artifact of a settlement: exactly one row per gateway
// reference, created or updated via upsert-by-reference.
type Payment struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	OrderID         *uint      `gorm:"index" json:"order_id,omitempty"`
	TransactionID   string     `gorm:"type:varchar(100);not null;uniqueIndex" json:"transaction_id"`
	Amount          float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency        string     `gorm:"type:varchar(10);not null;default:'NGN'" json:"currency"`
	Method          string     `gorm:"type:varchar(20);not null" json:"method"`
	Status          string     `gorm:"type:varchar(20);not null;index" json:"status"`
	GatewayResponse string     `gorm:"type:longtext" json:"-"`
	PaidAt          *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
