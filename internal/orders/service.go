package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hanbitmall/hanbit-backend/internal/cart"
	"github.com/hanbitmall/hanbit-backend/pkg/db"
	"github.com/hanbitmall/hanbit-backend/pkg/db/models"
	"github.com/hanbitmall/hanbit-backend/pkg/enums"
	pkgerrors "github.com/hanbitmall/hanbit-backend/pkg/errors"
	"github.com/hanbitmall/hanbit-backend/pkg/logger"
	"github.com/hanbitmall/hanbit-backend/pkg/metrics"
	"github.com/hanbitmall/hanbit-backend/pkg/pagination"
	"github.com/hanbitmall/hanbit-backend/pkg/portone"
	"github.com/hanbitmall/hanbit-backend/pkg/types"
)

const orderUIDConstraint = "uq_orders_order_uid"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gatewayClient interface {
	GetPayment(ctx context.Context, impUID string) (*portone.Payment, error)
}

type cartCleaner interface {
	CleanupAfterOrder(ctx context.Context, input cart.CleanupInput) error
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// Service runs the order lifecycle: verified creation, gated reads, role
// scoped mutation, and the append-only status trail.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	List(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*OrderList, error)
	PatchAsOwner(ctx context.Context, orderID uuid.UUID, actor Actor, patch OwnerOrderPatch) (*models.Order, error)
	PatchAsAdmin(ctx context.Context, orderID uuid.UUID, actor Actor, patch AdminOrderPatch) (*models.Order, error)
	Replace(ctx context.Context, orderID uuid.UUID, actor Actor, input ReplaceOrderInput) (*models.Order, error)
	Delete(ctx context.Context, orderID uuid.UUID, actor Actor) error
}

type service struct {
	repo     Repository
	tx       txRunner
	gateway  gatewayClient
	cleaner  cartCleaner
	products productLoader
	logg     *logger.Logger
	metrics  *metrics.OrderMetrics
	now      func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	gateway gatewayClient,
	cleaner cartCleaner,
	products productLoader,
	logg *logger.Logger,
	orderMetrics *metrics.OrderMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway client required")
	}
	if cleaner == nil {
		return nil, fmt.Errorf("cart cleaner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		gateway:  gateway,
		cleaner:  cleaner,
		products: products,
		logg:     logg,
		metrics:  orderMetrics,
		now:      time.Now,
	}, nil
}

// Create runs the reconciliation sequence: validate, duplicate-check, verify
// the payment against the gateway, gate on settled status, persist
// atomically, then trigger best-effort cart cleanup. Steps never reorder;
// each assumes the previous one's invariants.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	started := s.now()
	order, err := s.create(ctx, input)
	s.metrics.ObserveCreationDuration(createOutcome(err), s.now().Sub(started))
	s.metrics.IncCreated(createOutcome(err))
	return order, err
}

func (s *service) create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order items required")
	}
	if input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	ownerID := input.Actor.ID
	if input.UserID != nil && *input.UserID != uuid.Nil {
		if *input.UserID != input.Actor.ID && !input.Actor.IsAdmin() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot create an order for another user")
		}
		ownerID = *input.UserID
	}
	if input.StatusOverride != nil && !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may set order status at creation")
	}

	// Candidate external reference: caller-supplied, else the payment's
	// merchant reference.
	orderUID := input.OrderUID
	if orderUID == "" {
		orderUID = input.Payment.MerchantUID
	}

	refs := DuplicateRefs{
		OrderUID:      orderUID,
		TransactionID: input.Payment.TransactionID,
		MerchantUID:   input.Payment.MerchantUID,
	}
	if existing, err := s.repo.FindDuplicate(ctx, refs); err == nil {
		return nil, &ConflictError{Existing: existing}
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "duplicate check")
	}

	subTotal := clampAmount(input.SubTotal)
	shippingFee := clampAmount(input.ShippingFee)
	totalAmount := input.TotalAmount
	if totalAmount <= 0 {
		totalAmount = subTotal + shippingFee
	}

	if input.Payment.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment transaction id required")
	}

	payment, err := s.gateway.GetPayment(ctx, input.Payment.TransactionID)
	if err != nil {
		s.metrics.IncVerification("error")
		return nil, err
	}
	s.metrics.IncVerification("verified")

	// Merchant-reference cross-check prevents pairing a payment with a
	// different order.
	if input.Payment.MerchantUID != "" && payment.MerchantUID != "" && input.Payment.MerchantUID != payment.MerchantUID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant reference does not match the payment")
	}

	// Amount cross-check prevents client-side tampering with totals.
	if totalAmount > 0 {
		paid := decimal.NewFromFloat(payment.Amount).Round(0).IntPart()
		if paid != totalAmount {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "paid amount does not match the order total").WithDetails(map[string]any{
				"expected": totalAmount,
				"paid":     paid,
			})
		}
	}

	fallbackMethod := enums.PaymentMethod(input.Payment.Method)
	paymentStatus := mapGatewayPaymentStatus(payment.Status, enums.PaymentStatusPending)
	paymentMethod := mapGatewayPayMethod(payment.PayMethod, fallbackMethod)

	if !paymentStatus.IsSettled() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment not completed").WithDetails(map[string]any{
			"payment_status": paymentStatus.String(),
		})
	}

	status := deriveOrderStatus(paymentStatus)
	if input.StatusOverride != nil {
		if !input.StatusOverride.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status override")
		}
		status = *input.StatusOverride
	}

	if orderUID == "" {
		orderUID = payment.MerchantUID
	}
	if orderUID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference could not be determined")
	}

	provider := payment.PGProvider
	if provider == "" {
		provider = input.Payment.Provider
	}

	currency, currencyErr := enums.ParseCurrency(payment.Currency)
	if currencyErr != nil {
		currency = enums.CurrencyKRW
	}

	items, purchasedCartItems, err := s.buildItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	address := input.ShippingAddress
	address.Normalize()

	order := &models.Order{
		OrderUID:    orderUID,
		UserID:      ownerID,
		CartID:      input.CartID,
		Status:      status,
		SubTotal:    subTotal,
		ShippingFee: shippingFee,
		TotalAmount: totalAmount,
		Payment: types.PaymentInfo{
			Method:        paymentMethod,
			Provider:      provider,
			TransactionID: payment.ImpUID,
			MerchantUID:   payment.MerchantUID,
			PGTid:         payment.PGTid,
			ReceiptURL:    payment.ReceiptURL,
			AmountPaid:    decimal.NewFromFloat(payment.Amount).Round(0).IntPart(),
			Currency:      currency,
			Status:        paymentStatus,
			PaidAt:        payment.PaidAt,
		},
		ShippingAddress: address,
		DeliveryNote:    input.DeliveryNote,
		Memo:            input.Memo,
		Items:           items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, order); err != nil {
			return err
		}
		return repo.CreateStatusChange(ctx, &models.OrderStatusChange{
			OrderID:   order.ID,
			Status:    status,
			ChangedAt: s.now(),
			ChangedBy: input.Actor.ID,
		})
	})
	if err != nil {
		// Two concurrent submissions can both pass the pre-check; the unique
		// index on order_uid picks the winner and the loser surfaces as the
		// same conflict a retry would.
		if db.IsUniqueViolation(err, orderUIDConstraint) {
			if existing, findErr := s.repo.FindDuplicate(ctx, refs); findErr == nil {
				return nil, &ConflictError{Existing: existing}
			}
			return nil, &ConflictError{}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	s.cleanupCart(ctx, input, order, purchasedCartItems)

	persisted, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return persisted, nil
}

// buildItems normalizes submitted lines and freezes product snapshots.
func (s *service) buildItems(ctx context.Context, inputs []CreateOrderItemInput) ([]models.OrderItem, []uuid.UUID, error) {
	productIDs := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		if in.ProductID != uuid.Nil {
			productIDs = append(productIDs, in.ProductID)
		}
	}

	snapshots := map[uuid.UUID]types.ProductSnapshot{}
	if len(productIDs) > 0 {
		products, err := s.products.FindByIDs(ctx, productIDs)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products for snapshot")
		}
		for _, p := range products {
			snapshots[p.ID] = types.ProductSnapshot{
				Name:        p.Name,
				SKU:         p.SKU,
				Image:       p.Image,
				Brand:       p.Brand,
				Category:    p.Category,
				Description: p.Description,
			}
		}
	}

	items := make([]models.OrderItem, 0, len(inputs))
	var purchasedCartItems []uuid.UUID
	for _, in := range inputs {
		quantity := in.Quantity
		if quantity < 1 {
			quantity = 1
		}
		unitPrice := clampAmount(in.UnitPrice)
		totalPrice := unitPrice * int64(quantity)
		if in.TotalPrice != nil && *in.TotalPrice >= 0 {
			totalPrice = *in.TotalPrice
		}

		item := models.OrderItem{
			Quantity:   quantity,
			UnitPrice:  unitPrice,
			TotalPrice: totalPrice,
			Options:    in.Options,
		}
		if in.ProductID != uuid.Nil {
			productID := in.ProductID
			item.ProductID = &productID
			item.ProductSnapshot = snapshots[in.ProductID]
		}
		items = append(items, item)

		if in.CartItemID != nil && *in.CartItemID != uuid.Nil {
			purchasedCartItems = append(purchasedCartItems, *in.CartItemID)
		}
	}

	return items, purchasedCartItems, nil
}

// cleanupCart is fired only after the order is durably committed. Failures
// are logged and swallowed: the order is the source of truth, cart tidiness
// is secondary.
func (s *service) cleanupCart(ctx context.Context, input CreateOrderInput, order *models.Order, purchased []uuid.UUID) {
	if input.CartID == nil || *input.CartID == uuid.Nil {
		return
	}
	err := s.cleaner.CleanupAfterOrder(ctx, cart.CleanupInput{
		CartID:           *input.CartID,
		PurchasedItemIDs: purchased,
		ActorID:          input.Actor.ID,
		ActorType:        input.Actor.Type,
	})
	if err != nil {
		ctx = s.logg.WithOrderUID(ctx, order.OrderUID)
		s.logg.Error(ctx, "cart cleanup after order failed", err)
	}
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanAccess(order, actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.IsAdmin() {
		// Non-admins only ever see their own orders.
		own := actor.ID
		filters.UserID = &own
	}
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) PatchAsOwner(ctx context.Context, orderID uuid.UUID, actor Actor, patch OwnerOrderPatch) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanAccess(order, actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to modify this order")
	}

	updates := ownerPatchUpdates(patch)
	if len(updates) == 0 {
		return order, nil
	}
	if err := s.repo.Update(ctx, orderID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	return s.load(ctx, orderID)
}

func (s *service) PatchAsAdmin(ctx context.Context, orderID uuid.UUID, actor Actor, patch AdminOrderPatch) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	updates := ownerPatchUpdates(patch.OwnerOrderPatch)
	if patch.AdminNote != nil {
		updates["admin_note"] = *patch.AdminNote
	}
	if patch.ShippingFee != nil {
		updates["shipping_fee"] = clampAmount(*patch.ShippingFee)
	}
	if patch.TotalAmount != nil {
		updates["total_amount"] = clampAmount(*patch.TotalAmount)
	}

	statusChanged := patch.Status != nil && *patch.Status != order.Status
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if statusChanged {
		updates["status"] = *patch.Status
	}

	if len(updates) == 0 {
		return order, nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, orderID, updates); err != nil {
			return err
		}
		if statusChanged {
			return repo.CreateStatusChange(ctx, &models.OrderStatusChange{
				OrderID:   orderID,
				Status:    *patch.Status,
				ChangedAt: s.now(),
				ChangedBy: actor.ID,
				Memo:      patch.StatusMemo,
			})
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	return s.load(ctx, orderID)
}

func (s *service) Replace(ctx context.Context, orderID uuid.UUID, actor Actor, input ReplaceOrderInput) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if !input.ShippingAddress.Complete() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address incomplete")
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	address := input.ShippingAddress
	address.Normalize()
	addressJSON, err := json.Marshal(address)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode shipping address")
	}

	updates := map[string]any{
		"shipping_address": addressJSON,
		"sub_total":        clampAmount(input.SubTotal),
		"shipping_fee":     clampAmount(input.ShippingFee),
		"total_amount":     clampAmount(input.TotalAmount),
	}
	if input.DeliveryNote != nil {
		updates["delivery_note"] = *input.DeliveryNote
	}
	if input.Memo != nil {
		updates["memo"] = *input.Memo
	}
	if input.AdminNote != nil {
		updates["admin_note"] = *input.AdminNote
	}

	statusChanged := input.Status != order.Status
	if statusChanged {
		updates["status"] = input.Status
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, orderID, updates); err != nil {
			return err
		}
		if statusChanged {
			return repo.CreateStatusChange(ctx, &models.OrderStatusChange{
				OrderID:   orderID,
				Status:    input.Status,
				ChangedAt: s.now(),
				ChangedBy: actor.ID,
				Memo:      input.StatusMemo,
			})
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace order")
	}
	return s.load(ctx, orderID)
}

func (s *service) Delete(ctx context.Context, orderID uuid.UUID, actor Actor) error {
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if err := s.repo.Delete(ctx, orderID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func ownerPatchUpdates(patch OwnerOrderPatch) map[string]any {
	updates := map[string]any{}
	if patch.ShippingAddress != nil {
		address := *patch.ShippingAddress
		address.Normalize()
		if encoded, err := json.Marshal(address); err == nil {
			updates["shipping_address"] = encoded
		}
	}
	if patch.DeliveryNote != nil {
		updates["delivery_note"] = *patch.DeliveryNote
	}
	if patch.Memo != nil {
		updates["memo"] = *patch.Memo
	}
	return updates
}

func clampAmount(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func createOutcome(err error) string {
	if err == nil {
		return "created"
	}
	if _, ok := err.(*ConflictError); ok {
		return "duplicate"
	}
	typed := pkgerrors.As(err)
	if typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeValidation:
			return "rejected"
		case pkgerrors.CodeGateway:
			return "gateway_error"
		}
	}
	return "error"
}
