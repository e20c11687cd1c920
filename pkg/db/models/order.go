package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hanbitmall/hanbit-backend/pkg/enums"
	"github.com/hanbitmall/hanbit-backend/pkg/types"
)

// Order is the central entity: created once after successful gateway
// verification, then mutated only through status updates or the owner's
// restricted field set. OrderUID is the externally visible merchant order
// reference; the unique index on it is the authoritative idempotency guard.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderUID        string                `gorm:"column:order_uid;not null;uniqueIndex:uq_orders_order_uid" json:"order_uid"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	CartID          *uuid.UUID            `gorm:"column:cart_id;type:uuid" json:"cart_id,omitempty"`
	Status          enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'pending';index" json:"status"`
	SubTotal        int64                 `gorm:"column:sub_total;not null" json:"sub_total"`
	ShippingFee     int64                 `gorm:"column:shipping_fee;not null;default:0" json:"shipping_fee"`
	TotalAmount     int64                 `gorm:"column:total_amount;not null" json:"total_amount"`
	Payment         types.PaymentInfo     `gorm:"column:payment;type:jsonb;serializer:json" json:"payment"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json" json:"shipping_address"`
	DeliveryNote    *string               `gorm:"column:delivery_note" json:"delivery_note,omitempty"`
	Memo            *string               `gorm:"column:memo" json:"memo,omitempty"`
	AdminNote       *string               `gorm:"column:admin_note" json:"-"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	StatusHistory   []OrderStatusChange   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"status_history"`
	User            *User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
