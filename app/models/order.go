package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// Order.PaymentStatus values. COMPLETED is terminal and must never be
	// overwritten back to FAILED by a later gateway event.
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"

	// Order.Status values.
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusPacked    = "PACKED"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"

	// Order.PaymentMethod values.
	PaymentMethodPaystack = "paystack"
	PaymentMethodWallet   = "wallet"
	PaymentMethodCOD      = "cod"
)

type Order struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	OrderNumber     string         `gorm:"type:varchar(40);uniqueIndex;not null" json:"order_number"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	User            User           `gorm:"foreignKey:UserID" json:"-"`
	Items           []OrderItem    `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	TotalAmount     float64        `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaymentMethod   string         `gorm:"type:varchar(20);not null;index" json:"payment_method" validate:"oneof=paystack wallet cod"`
	PaymentStatus   string         `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"payment_status" validate:"oneof=PENDING COMPLETED FAILED"`
	Status          string         `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	TransactionID   string         `gorm:"type:varchar(100);default:null;index" json:"transaction_id,omitempty"`
	DeliveryAddress string         `gorm:"type:text" json:"delivery_address"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   uint    `gorm:"not null;index" json:"order_id"`
	ProductID uint    `gorm:"not null;index" json:"product_id"`
	Product   Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	UnitPrice float64 `gorm:"type:decimal(10,2);not null" json:"unit_price"`
}

// IsPaymentTerminal reports whether the order's payment already reached a
// terminal state.
func (o *Order) IsPaymentTerminal() bool {
	return o.PaymentStatus == PaymentStatusCompleted || o.PaymentStatus == PaymentStatusFailed
}

// TotalKobo returns the order total converted to the gateway's minor unit.
func (o *Order) TotalKobo() int64 {
	return int64(o.TotalAmount*100 + 0.5)
}
