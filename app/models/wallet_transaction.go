package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	WalletTxTypeCredit = "CREDIT"
	WalletTxTypeDebit  = "DEBIT"
)

// WalletTransaction is a single funding (or spend) attempt against a user's
// wallet. The reference is unique per attempt and doubles as the idempotency
// key: the balance increment for a CREDIT is applied at most once per reference.
type WalletTransaction struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID" json:"-"`
	Type        string         `gorm:"type:varchar(10);not null;index" json:"type" validate:"oneof=CREDIT DEBIT"`
	Amount      float64        `gorm:"type:decimal(12,2);not null" json:"amount" validate:"gt=0"`
	Reference   string         `gorm:"type:varchar(100);not null;uniqueIndex" json:"reference"`
	Status      string         `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status" validate:"oneof=PENDING COMPLETED FAILED"`
	Description string         `gorm:"type:varchar(255)" json:"description"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsTerminal reports whether the transaction already reached COMPLETED or
// FAILED. Terminal wallet transactions are never revisited.
func (t *WalletTransaction) IsTerminal() bool {
	return t.Status == PaymentStatusCompleted || t.Status == PaymentStatusFailed
}

// AmountKobo returns the transaction amount in the gateway's minor unit.
func (t *WalletTransaction) AmountKobo() int64 {
	return int64(t.Amount*100 + 0.5)
}
