package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hanbitmall/hanbit-backend/pkg/enums"
)

// Cart is the ephemeral pre-order container. One active cart per user,
// enforced by a partial unique index; a cart emptied by cleanup or item
// removal is deleted, never persisted empty.
type Cart struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Status    enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'" json:"status"`
	Note      *string          `gorm:"column:note" json:"note,omitempty"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
