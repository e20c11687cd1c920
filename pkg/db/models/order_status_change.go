package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hanbitmall/hanbit-backend/pkg/enums"
)

// OrderStatusChange is one row of the append-only status audit trail.
// Rows are only ever inserted; the order's current status is always the
// most recent entry.
type OrderStatusChange struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null" json:"status"`
	ChangedAt time.Time         `gorm:"column:changed_at;not null" json:"changed_at"`
	ChangedBy uuid.UUID         `gorm:"column:changed_by;type:uuid;not null" json:"changed_by"`
	Memo      *string           `gorm:"column:memo" json:"memo,omitempty"`
}
