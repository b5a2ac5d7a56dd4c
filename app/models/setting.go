package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// PointsSetting configures how purchase loyalty points are earned. Only one
// row is active at a time; the dispatcher always reads the newest active row.
type PointsSetting struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	MinimumOrderTotal float64   `gorm:"type:decimal(12,2);not null;default:0" json:"minimum_order_total" validate:"gte=0"`
	AmountPerPoint    float64   `gorm:"type:decimal(12,2);not null" json:"amount_per_point" validate:"gt=0"`
	IsActive          bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *PointsSetting) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

// ComputePurchasePoints returns the points earned for an order total under
// this setting. Totals under the minimum earn nothing; otherwise one point
// per AmountPerPoint spent, rounded down.
func (s *PointsSetting) ComputePurchasePoints(orderTotal float64) int {
	if s == nil || s.AmountPerPoint <= 0 {
		return 0
	}
	if orderTotal < s.MinimumOrderTotal {
		return 0
	}
	return int(orderTotal / s.AmountPerPoint)
}

// ReferralSetting configures the one-time payout to a referrer when a
// referred user's order settles.
type ReferralSetting struct {
	ID                        uint      `gorm:"primaryKey" json:"id"`
	ReferrerPointsPerPurchase int       `gorm:"not null;default:0" json:"referrer_points_per_purchase" validate:"gte=0"`
	IsActive                  bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt                 time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                 time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
