package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a catalog row. Catalog management itself lives in the admin
// back office; the payment engine only references products through order items.
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(200);not null" json:"name" validate:"required,min=2,max=200"`
	Description string         `gorm:"type:text" json:"description"`
	Price       float64        `gorm:"type:decimal(10,2);not null" json:"price" validate:"gte=0"`
	Unit        string         `gorm:"type:varchar(30);default:'piece'" json:"unit"`
	Stock       int            `gorm:"not null;default:0" json:"stock"`
	IsAvailable bool           `gorm:"default:true;index" json:"is_available"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
