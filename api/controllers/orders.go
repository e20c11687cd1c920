package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hanbitmall/hanbit-backend/api/middleware"
	"github.com/hanbitmall/hanbit-backend/api/responses"
	"github.com/hanbitmall/hanbit-backend/api/validators"
	internalorders "github.com/hanbitmall/hanbit-backend/internal/orders"
	"github.com/hanbitmall/hanbit-backend/pkg/enums"
	pkgerrors "github.com/hanbitmall/hanbit-backend/pkg/errors"
	"github.com/hanbitmall/hanbit-backend/pkg/logger"
	"github.com/hanbitmall/hanbit-backend/pkg/types"
)

type createOrderItemRequest struct {
	ProductID  uuid.UUID       `json:"product_id" validate:"required"`
	CartItemID *uuid.UUID      `json:"cart_item_id,omitempty"`
	Quantity   int             `json:"quantity" validate:"required,min=1"`
	UnitPrice  int64           `json:"unit_price" validate:"gte=0"`
	TotalPrice *int64          `json:"total_price,omitempty"`
	Options    types.OptionMap `json:"options,omitempty"`
}

type createOrderPaymentRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	MerchantUID   string `json:"merchant_uid,omitempty"`
	Method        string `json:"method,omitempty"`
	Provider      string `json:"provider,omitempty"`
}

type createOrderRequest struct {
	OrderUID        string                    `json:"order_uid,omitempty"`
	UserID          *uuid.UUID                `json:"user_id,omitempty"`
	CartID          *uuid.UUID                `json:"cart_id,omitempty"`
	Items           []createOrderItemRequest  `json:"items" validate:"required,min=1,dive"`
	ShippingAddress types.ShippingAddress     `json:"shipping_address" validate:"required"`
	DeliveryNote    *string                   `json:"delivery_note,omitempty"`
	Memo            *string                   `json:"memo,omitempty"`
	SubTotal        int64                     `json:"sub_total" validate:"gte=0"`
	ShippingFee     int64                     `json:"shipping_fee" validate:"gte=0"`
	TotalAmount     int64                     `json:"total_amount" validate:"gte=0"`
	Payment         createOrderPaymentRequest `json:"payment" validate:"required"`
	Status          *string                   `json:"status,omitempty"`
}

type ownerOrderPatchRequest struct {
	ShippingAddress *types.ShippingAddress `json:"shipping_address,omitempty"`
	DeliveryNote    *string                `json:"delivery_note,omitempty"`
	Memo            *string                `json:"memo,omitempty"`
}

type adminOrderPatchRequest struct {
	ownerOrderPatchRequest
	Status      *string `json:"status,omitempty"`
	StatusMemo  *string `json:"status_memo,omitempty"`
	AdminNote   *string `json:"admin_note,omitempty"`
	ShippingFee *int64  `json:"shipping_fee,omitempty"`
	TotalAmount *int64  `json:"total_amount,omitempty"`
}

type replaceOrderRequest struct {
	ShippingAddress types.ShippingAddress `json:"shipping_address" validate:"required"`
	DeliveryNote    *string               `json:"delivery_note,omitempty"`
	Memo            *string               `json:"memo,omitempty"`
	AdminNote       *string               `json:"admin_note,omitempty"`
	SubTotal        int64                 `json:"sub_total" validate:"gte=0"`
	ShippingFee     int64                 `json:"shipping_fee" validate:"gte=0"`
	TotalAmount     int64                 `json:"total_amount" validate:"gte=0"`
	Status          string                `json:"status" validate:"required"`
	StatusMemo      *string               `json:"status_memo,omitempty"`
}

func actorFromRequest(r *http.Request) internalorders.Actor {
	return internalorders.Actor{
		ID:   middleware.UserIDFromContext(r.Context()),
		Type: middleware.UserTypeFromContext(r.Context()),
	}
}

// CreateOrder verifies the referenced payment against the gateway and
// persists the order. Duplicate submissions get a 409 that carries the
// already-persisted order.
func CreateOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.CreateOrderInput{
			Actor:           actorFromRequest(r),
			UserID:          req.UserID,
			OrderUID:        strings.TrimSpace(req.OrderUID),
			CartID:          req.CartID,
			ShippingAddress: req.ShippingAddress,
			DeliveryNote:    req.DeliveryNote,
			Memo:            req.Memo,
			SubTotal:        req.SubTotal,
			ShippingFee:     req.ShippingFee,
			TotalAmount:     req.TotalAmount,
			Payment: internalorders.CreatePaymentInput{
				TransactionID: strings.TrimSpace(req.Payment.TransactionID),
				MerchantUID:   strings.TrimSpace(req.Payment.MerchantUID),
				Method:        req.Payment.Method,
				Provider:      req.Payment.Provider,
			},
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, internalorders.CreateOrderItemInput{
				ProductID:  item.ProductID,
				CartItemID: item.CartItemID,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				TotalPrice: item.TotalPrice,
				Options:    item.Options,
			})
		}
		if req.Status != nil {
			status, err := enums.ParseOrderStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
				return
			}
			input.StatusOverride = &status
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			var conflict *internalorders.ConflictError
			if errors.As(err, &conflict) {
				responses.WriteConflict(w, "order already exists", conflict.Existing)
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func GetOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID, actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ListOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryOrderStatus(r, "status")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := validators.ParseQueryUUID(r, "userId", "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), actorFromRequest(r), params, internalorders.ListFilters{
			Status: status,
			UserID: userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list.Orders, len(list.Orders), list.Total, params)
	}
}

// PatchOrder routes the body through the admin or owner field set depending
// on the caller's role. Owner bodies are decoded leniently: restricted
// fields are dropped, not rejected.
func PatchOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := actorFromRequest(r)

		if actor.IsAdmin() {
			var req adminOrderPatchRequest
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			patch := internalorders.AdminOrderPatch{
				OwnerOrderPatch: internalorders.OwnerOrderPatch{
					ShippingAddress: req.ShippingAddress,
					DeliveryNote:    req.DeliveryNote,
					Memo:            req.Memo,
				},
				StatusMemo:  req.StatusMemo,
				AdminNote:   req.AdminNote,
				ShippingFee: req.ShippingFee,
				TotalAmount: req.TotalAmount,
			}
			if req.Status != nil {
				status, err := enums.ParseOrderStatus(*req.Status)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
					return
				}
				patch.Status = &status
			}
			order, err := svc.PatchAsAdmin(r.Context(), orderID, actor, patch)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, order)
			return
		}

		var req ownerOrderPatchRequest
		if err := validators.DecodeJSONBodyLenient(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.PatchAsOwner(r.Context(), orderID, actor, internalorders.OwnerOrderPatch{
			ShippingAddress: req.ShippingAddress,
			DeliveryNote:    req.DeliveryNote,
			Memo:            req.Memo,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ReplaceOrder is the admin-only full update.
func ReplaceOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req replaceOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
			return
		}

		order, err := svc.Replace(r.Context(), orderID, actorFromRequest(r), internalorders.ReplaceOrderInput{
			ShippingAddress: req.ShippingAddress,
			DeliveryNote:    req.DeliveryNote,
			Memo:            req.Memo,
			AdminNote:       req.AdminNote,
			SubTotal:        req.SubTotal,
			ShippingFee:     req.ShippingFee,
			TotalAmount:     req.TotalAmount,
			Status:          status,
			StatusMemo:      req.StatusMemo,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func DeleteOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), orderID, actorFromRequest(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
