package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hanbitmall/hanbit-backend/pkg/types"
)

// OrderItem captures one purchased line with a point-in-time product
// snapshot. ProductID is a weak reference: the product may be edited or
// deleted later without touching the snapshot.
type OrderItem struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID         uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID       *uuid.UUID            `gorm:"column:product_id;type:uuid" json:"product_id,omitempty"`
	ProductSnapshot types.ProductSnapshot `gorm:"column:product_snapshot;type:jsonb;serializer:json" json:"product_snapshot"`
	Quantity        int                   `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice       int64                 `gorm:"column:unit_price;not null" json:"unit_price"`
	TotalPrice      int64                 `gorm:"column:total_price;not null" json:"total_price"`
	Options         types.OptionMap       `gorm:"column:options;type:jsonb;serializer:json" json:"options,omitempty"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
