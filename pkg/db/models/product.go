package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is a catalog entry. Orders never own products; they embed a
// snapshot of the display fields instead.
type Product struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	SKU         string         `gorm:"column:sku;not null;uniqueIndex" json:"sku"`
	Price       int64          `gorm:"column:price;not null" json:"price"`
	Image       string         `gorm:"column:image" json:"image,omitempty"`
	Brand       string         `gorm:"column:brand" json:"brand,omitempty"`
	Category    string         `gorm:"column:category;index" json:"category,omitempty"`
	Description string         `gorm:"column:description" json:"description,omitempty"`
	Tags        pq.StringArray `gorm:"column:tags;type:text[]" json:"tags,omitempty"`
	Stock       int            `gorm:"column:stock;not null;default:0" json:"stock"`
	Active      bool           `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
