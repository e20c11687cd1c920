package orders

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hanbitmall/hanbit-backend/pkg/db/models"
	"github.com/hanbitmall/hanbit-backend/pkg/enums"
	"github.com/hanbitmall/hanbit-backend/pkg/types"
)

// Actor identifies the authenticated caller for authorization decisions.
type Actor struct {
	ID   uuid.UUID
	Type enums.UserType
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Type.IsAdmin()
}

// DuplicateRefs are the identifiers checked before creating an order. Any
// match short-circuits creation with the existing order.
type DuplicateRefs struct {
	OrderUID      string
	TransactionID string
	MerchantUID   string
}

// Empty reports whether no reference is usable for duplicate detection.
func (r DuplicateRefs) Empty() bool {
	return r.OrderUID == "" && r.TransactionID == "" && r.MerchantUID == ""
}

// ListFilters describe the inputs supported by the order list.
type ListFilters struct {
	Status *enums.OrderStatus
	UserID *uuid.UUID
}

// OrderList wraps a page of orders plus the total row count.
type OrderList struct {
	Orders []models.Order
	Total  int64
}

// CreateOrderItemInput is one submitted purchase line.
type CreateOrderItemInput struct {
	ProductID  uuid.UUID
	CartItemID *uuid.UUID
	Quantity   int
	UnitPrice  int64
	TotalPrice *int64
	Options    types.OptionMap
}

// CreatePaymentInput carries the client-side payment references. Status is
// never taken from here; the gateway is the only source of truth for it.
type CreatePaymentInput struct {
	TransactionID string
	MerchantUID   string
	Method        string
	Provider      string
}

// CreateOrderInput is the full order submission handed to the engine.
type CreateOrderInput struct {
	Actor           Actor
	UserID          *uuid.UUID
	OrderUID        string
	CartID          *uuid.UUID
	Items           []CreateOrderItemInput
	ShippingAddress types.ShippingAddress
	DeliveryNote    *string
	Memo            *string
	SubTotal        int64
	ShippingFee     int64
	TotalAmount     int64
	Payment         CreatePaymentInput
	StatusOverride  *enums.OrderStatus
}

// OwnerOrderPatch is the restricted field set a customer may change on their
// own order. Anything else submitted by an owner is dropped at the boundary.
type OwnerOrderPatch struct {
	ShippingAddress *types.ShippingAddress
	DeliveryNote    *string
	Memo            *string
}

// Empty reports whether the patch carries no change.
func (p OwnerOrderPatch) Empty() bool {
	return p.ShippingAddress == nil && p.DeliveryNote == nil && p.Memo == nil
}

// AdminOrderPatch extends the owner set with status and operational fields.
type AdminOrderPatch struct {
	OwnerOrderPatch
	Status      *enums.OrderStatus
	StatusMemo  *string
	AdminNote   *string
	ShippingFee *int64
	TotalAmount *int64
}

// ReplaceOrderInput is the admin-only full update applied by PUT.
type ReplaceOrderInput struct {
	ShippingAddress types.ShippingAddress
	DeliveryNote    *string
	Memo            *string
	AdminNote       *string
	SubTotal        int64
	ShippingFee     int64
	TotalAmount     int64
	Status          enums.OrderStatus
	StatusMemo      *string
}

// ConflictError signals that an equivalent order already exists. The
// pre-existing order rides along so clients can resume instead of erroring.
type ConflictError struct {
	Existing *models.Order
}

func (e *ConflictError) Error() string {
	if e == nil || e.Existing == nil {
		return "order already exists"
	}
	return fmt.Sprintf("order already exists: %s", e.Existing.OrderUID)
}
