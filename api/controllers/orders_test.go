package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hanbitmall/hanbit-backend/api/middleware"
	internalorders "github.com/hanbitmall/hanbit-backend/internal/orders"
	"github.com/hanbitmall/hanbit-backend/pkg/db/models"
	"github.com/hanbitmall/hanbit-backend/pkg/enums"
	"github.com/hanbitmall/hanbit-backend/pkg/pagination"
)

type stubControllerOrderService struct {
	create       func(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error)
	list         func(ctx context.Context, actor internalorders.Actor, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error)
	patchAsOwner func(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor, patch internalorders.OwnerOrderPatch) (*models.Order, error)
	patchAsAdmin func(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor, patch internalorders.AdminOrderPatch) (*models.Order, error)
}

func (s *stubControllerOrderService) Create(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
	if s.create != nil {
		return s.create(ctx, input)
	}
	return nil, nil
}

func (s *stubControllerOrderService) Get(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*models.Order, error) {
	panic("unimplemented")
}

func (s *stubControllerOrderService) List(ctx context.Context, actor internalorders.Actor, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error) {
	if s.list != nil {
		return s.list(ctx, actor, params, filters)
	}
	return &internalorders.OrderList{}, nil
}

func (s *stubControllerOrderService) PatchAsOwner(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor, patch internalorders.OwnerOrderPatch) (*models.Order, error) {
	if s.patchAsOwner != nil {
		return s.patchAsOwner(ctx, orderID, actor, patch)
	}
	return &models.Order{}, nil
}

func (s *stubControllerOrderService) PatchAsAdmin(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor, patch internalorders.AdminOrderPatch) (*models.Order, error) {
	if s.patchAsAdmin != nil {
		return s.patchAsAdmin(ctx, orderID, actor, patch)
	}
	return &models.Order{}, nil
}

func (s *stubControllerOrderService) Replace(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor, input internalorders.ReplaceOrderInput) (*models.Order, error) {
	panic("unimplemented")
}

func (s *stubControllerOrderService) Delete(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) error {
	panic("unimplemented")
}

const createOrderBody = `{
	"order_uid": "ORD-20260831-0001",
	"items": [{"product_id": "%s", "quantity": 1, "unit_price": 25000}],
	"shipping_address": {
		"recipient_name": "Kim Jiwoo",
		"recipient_phone": "010-1234-5678",
		"postal_code": "04524",
		"address_line1": "Sejong-daero 110"
	},
	"sub_total": 25000,
	"shipping_fee": 0,
	"total_amount": 25000,
	"payment": {"transaction_id": "imp_1234567890"}%s
}`

func authedRequest(req *http.Request, userID uuid.UUID, userType enums.UserType) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), userID, userType))
}

func TestCreateOrderReturnsCreated(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	svc := &stubControllerOrderService{
		create: func(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
			if input.Actor.ID != userID {
				t.Fatalf("unexpected actor %s", input.Actor.ID)
			}
			if input.OrderUID != "ORD-20260831-0001" {
				t.Fatalf("unexpected order uid %q", input.OrderUID)
			}
			if len(input.Items) != 1 || input.Items[0].ProductID != productID {
				t.Fatalf("items not mapped")
			}
			if input.Payment.TransactionID != "imp_1234567890" {
				t.Fatalf("payment not mapped")
			}
			return &models.Order{OrderUID: input.OrderUID, Status: enums.OrderStatusPaid}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(renderCreateBody(productID, "")))
	req = authedRequest(req, userID, enums.UserTypeCustomer)

	resp := httptest.NewRecorder()
	CreateOrder(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data models.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderUID != "ORD-20260831-0001" {
		t.Fatalf("unexpected order in response")
	}
}

func TestCreateOrderRejectsUnknownFields(t *testing.T) {
	svc := &stubControllerOrderService{
		create: func(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
			t.Fatal("service should not be reached")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"surprise": true}`))
	req = authedRequest(req, uuid.New(), enums.UserTypeCustomer)

	resp := httptest.NewRecorder()
	CreateOrder(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateOrderRejectsUnknownStatusOverride(t *testing.T) {
	svc := &stubControllerOrderService{
		create: func(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
			t.Fatal("service should not be reached")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders",
		strings.NewReader(renderCreateBody(uuid.New(), `, "status": "bogus"`)))
	req = authedRequest(req, uuid.New(), enums.UserTypeAdmin)

	resp := httptest.NewRecorder()
	CreateOrder(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateOrderMapsDuplicateToConflict(t *testing.T) {
	existing := &models.Order{OrderUID: "ORD-20260831-0001", Status: enums.OrderStatusPaid}
	svc := &stubControllerOrderService{
		create: func(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
			return nil, &internalorders.ConflictError{Existing: existing}
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(renderCreateBody(uuid.New(), "")))
	req = authedRequest(req, uuid.New(), enums.UserTypeCustomer)

	resp := httptest.NewRecorder()
	CreateOrder(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
		Data models.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderUID != existing.OrderUID {
		t.Fatalf("conflict should carry the existing order")
	}
}

func TestListOrdersParsesFilters(t *testing.T) {
	userID := uuid.New()
	filterUser := uuid.New()
	svc := &stubControllerOrderService{
		list: func(ctx context.Context, actor internalorders.Actor, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error) {
			if params.Page != 2 || params.Limit != 5 {
				t.Fatalf("unexpected pagination %+v", params)
			}
			if filters.Status == nil || *filters.Status != enums.OrderStatusPaid {
				t.Fatalf("status not parsed")
			}
			if filters.UserID == nil || *filters.UserID != filterUser {
				t.Fatalf("user filter not parsed")
			}
			return &internalorders.OrderList{Orders: []models.Order{{OrderUID: "ORD-1"}}, Total: 11}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/orders?page=2&limit=5&status=paid&user_id="+filterUser.String(), nil)
	req = authedRequest(req, userID, enums.UserTypeAdmin)

	resp := httptest.NewRecorder()
	ListOrders(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestListOrdersAcceptsCamelCaseUserFilter(t *testing.T) {
	filterUser := uuid.New()
	svc := &stubControllerOrderService{
		list: func(ctx context.Context, actor internalorders.Actor, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error) {
			if filters.UserID == nil || *filters.UserID != filterUser {
				t.Fatalf("userId alias not parsed")
			}
			return &internalorders.OrderList{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?userId="+filterUser.String(), nil)
	req = authedRequest(req, uuid.New(), enums.UserTypeAdmin)

	resp := httptest.NewRecorder()
	ListOrders(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestPatchOrderOwnerDropsRestrictedFields(t *testing.T) {
	orderID := uuid.New()
	svc := &stubControllerOrderService{
		patchAsOwner: func(ctx context.Context, gotID uuid.UUID, actor internalorders.Actor, patch internalorders.OwnerOrderPatch) (*models.Order, error) {
			if gotID != orderID {
				t.Fatalf("unexpected order id %s", gotID)
			}
			if patch.Memo == nil || *patch.Memo != "leave at door" {
				t.Fatalf("memo not mapped")
			}
			return &models.Order{ID: gotID}, nil
		},
		patchAsAdmin: func(ctx context.Context, gotID uuid.UUID, actor internalorders.Actor, patch internalorders.AdminOrderPatch) (*models.Order, error) {
			t.Fatal("owner patch must not take the admin path")
			return nil, nil
		},
	}

	body := `{"memo": "leave at door", "status": "cancelled", "total_amount": 1}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String(), strings.NewReader(body))
	req = withOrderParam(req, orderID)
	req = authedRequest(req, uuid.New(), enums.UserTypeCustomer)

	resp := httptest.NewRecorder()
	PatchOrder(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestPatchOrderAdminParsesStatus(t *testing.T) {
	orderID := uuid.New()
	svc := &stubControllerOrderService{
		patchAsAdmin: func(ctx context.Context, gotID uuid.UUID, actor internalorders.Actor, patch internalorders.AdminOrderPatch) (*models.Order, error) {
			if patch.Status == nil || *patch.Status != enums.OrderStatusShipped {
				t.Fatalf("status not parsed")
			}
			return &models.Order{ID: gotID}, nil
		},
	}

	body := `{"status": "shipped", "status_memo": "handed to courier"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String(), strings.NewReader(body))
	req = withOrderParam(req, orderID)
	req = authedRequest(req, uuid.New(), enums.UserTypeAdmin)

	resp := httptest.NewRecorder()
	PatchOrder(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestGetOrderRejectsMalformedID(t *testing.T) {
	svc := &stubControllerOrderService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("orderId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
	req = authedRequest(req, uuid.New(), enums.UserTypeCustomer)

	resp := httptest.NewRecorder()
	GetOrder(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func withOrderParam(req *http.Request, orderID uuid.UUID) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("orderId", orderID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}

func renderCreateBody(productID uuid.UUID, extra string) string {
	body := strings.Replace(createOrderBody, "%s", productID.String(), 1)
	return strings.Replace(body, "%s", extra, 1)
}
