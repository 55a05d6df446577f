package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a catalog entry looked up at order time. The catalog itself is
// managed elsewhere; orders only read the current price and availability and
// snapshot the price onto their items.
type Product struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Category  string         `json:"category"`
	Price     float64        `gorm:"not null" json:"price"`
	Available bool           `gorm:"not null;default:true" json:"available"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}
