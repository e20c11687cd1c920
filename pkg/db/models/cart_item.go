package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hanbitmall/hanbit-backend/pkg/types"
)

// CartItem is one line of a cart: product reference, unit price snapshot at
// add time, and free-form options.
type CartItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CartID    uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index" json:"cart_id"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Quantity  int             `gorm:"column:quantity;not null;default:1" json:"quantity"`
	UnitPrice int64           `gorm:"column:unit_price;not null" json:"unit_price"`
	Options   types.OptionMap `gorm:"column:options;type:jsonb;serializer:json" json:"options,omitempty"`
	AddedAt   time.Time       `gorm:"column:added_at;autoCreateTime" json:"added_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
