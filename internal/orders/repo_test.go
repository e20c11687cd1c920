package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hanbitmall/hanbit-backend/pkg/db"
	"github.com/hanbitmall/hanbit-backend/pkg/db/models"
	"github.com/hanbitmall/hanbit-backend/pkg/enums"
	"github.com/hanbitmall/hanbit-backend/pkg/pagination"
	"github.com/hanbitmall/hanbit-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_uid TEXT NOT NULL,
  user_id TEXT NOT NULL,
  cart_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  sub_total INTEGER NOT NULL,
  shipping_fee INTEGER NOT NULL DEFAULT 0,
  total_amount INTEGER NOT NULL,
  payment TEXT,
  shipping_address TEXT,
  delivery_note TEXT,
  memo TEXT,
  admin_note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  product_snapshot TEXT,
  quantity INTEGER NOT NULL,
  unit_price INTEGER NOT NULL,
  total_price INTEGER NOT NULL,
  options TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	statusChanges := `
CREATE TABLE IF NOT EXISTS order_status_changes (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  changed_at DATETIME NOT NULL,
  changed_by TEXT NOT NULL,
  memo TEXT
);`
	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL DEFAULT '',
  phone TEXT,
  user_type TEXT NOT NULL DEFAULT 'customer',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  sku TEXT NOT NULL,
  price INTEGER NOT NULL,
  image TEXT,
  brand TEXT,
  category TEXT,
  description TEXT,
  tags TEXT,
  stock INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	uidIndex := `CREATE UNIQUE INDEX IF NOT EXISTS uq_orders_order_uid ON orders (order_uid);`

	require.NoError(t, conn.Exec(orders).Error)
	require.NoError(t, conn.Exec(orderItems).Error)
	require.NoError(t, conn.Exec(statusChanges).Error)
	require.NoError(t, conn.Exec(users).Error)
	require.NoError(t, conn.Exec(products).Error)
	require.NoError(t, conn.Exec(uidIndex).Error)

	t.Cleanup(func() {
		conn.Exec("DELETE FROM order_status_changes")
		conn.Exec("DELETE FROM order_items")
		conn.Exec("DELETE FROM orders")
		conn.Exec("DELETE FROM users")
		conn.Exec("DELETE FROM products")
	})

	return conn
}

func newTestOrder(t *testing.T, conn *gorm.DB, orderUID, transactionID string, userID uuid.UUID) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:          uuid.New(),
		OrderUID:    orderUID,
		UserID:      userID,
		Status:      enums.OrderStatusPaid,
		SubTotal:    50000,
		TotalAmount: 50000,
		Payment: types.PaymentInfo{
			Method:        enums.PaymentMethodCard,
			TransactionID: transactionID,
			MerchantUID:   orderUID,
			AmountPaid:    50000,
			Currency:      enums.CurrencyKRW,
			Status:        enums.PaymentStatusCaptured,
		},
		ShippingAddress: types.ShippingAddress{
			RecipientName:  "Kim Hana",
			RecipientPhone: "010-1234-5678",
			PostalCode:     "04524",
			AddressLine1:   "100 Sejong-daero",
			Country:        "KR",
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, conn.Create(order).Error)

	item := &models.OrderItem{
		ID:         uuid.New(),
		OrderID:    order.ID,
		Quantity:   1,
		UnitPrice:  50000,
		TotalPrice: 50000,
		ProductSnapshot: types.ProductSnapshot{
			Name: "Test Product",
			SKU:  "SKU-1",
		},
	}
	require.NoError(t, conn.Create(item).Error)

	return order
}

func TestRepositoryFindByIDPreloadsChildren(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	userID := uuid.New()
	order := newTestOrder(t, conn, "order_find_1", "imp_find_1", userID)

	change := &models.OrderStatusChange{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Status:    enums.OrderStatusPaid,
		ChangedAt: time.Now().UTC(),
		ChangedBy: userID,
	}
	require.NoError(t, conn.Create(change).Error)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "order_find_1", found.OrderUID)
	assert.Len(t, found.Items, 1)
	assert.Len(t, found.StatusHistory, 1)
	assert.Equal(t, "imp_find_1", found.Payment.TransactionID)
	assert.Equal(t, "Test Product", found.Items[0].ProductSnapshot.Name)
}

func TestRepositoryFindDuplicate(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := newTestOrder(t, conn, "order_dup_1", "imp_dup_1", uuid.New())

	byUID, err := repo.FindDuplicate(ctx, DuplicateRefs{OrderUID: "order_dup_1"})
	require.NoError(t, err)
	assert.Equal(t, order.ID, byUID.ID)

	byTxn, err := repo.FindDuplicate(ctx, DuplicateRefs{TransactionID: "imp_dup_1"})
	require.NoError(t, err)
	assert.Equal(t, order.ID, byTxn.ID)

	byMerchant, err := repo.FindDuplicate(ctx, DuplicateRefs{MerchantUID: "order_dup_1"})
	require.NoError(t, err)
	assert.Equal(t, order.ID, byMerchant.ID)

	_, err = repo.FindDuplicate(ctx, DuplicateRefs{OrderUID: "order_dup_other"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindDuplicate(ctx, DuplicateRefs{})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryCreateEnforcesOrderUIDUniqueness(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	newTestOrder(t, conn, "order_race_1", "imp_race_1", uuid.New())

	dup := &models.Order{
		ID:          uuid.New(),
		OrderUID:    "order_race_1",
		UserID:      uuid.New(),
		Status:      enums.OrderStatusPaid,
		SubTotal:    1000,
		TotalAmount: 1000,
	}
	_, err := repo.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "uq_orders_order_uid"))
}

func TestRepositoryListFiltersAndPaginates(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	userA := uuid.New()
	userB := uuid.New()
	newTestOrder(t, conn, "order_list_1", "imp_list_1", userA)
	newTestOrder(t, conn, "order_list_2", "imp_list_2", userA)
	newTestOrder(t, conn, "order_list_3", "imp_list_3", userB)

	all, err := repo.List(ctx, pagination.Params{Page: 1, Limit: 10}, ListFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Total)
	assert.Len(t, all.Orders, 3)

	mine, err := repo.List(ctx, pagination.Params{Page: 1, Limit: 10}, ListFilters{UserID: &userA})
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine.Total)

	paged, err := repo.List(ctx, pagination.Params{Page: 2, Limit: 2}, ListFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, paged.Total)
	assert.Len(t, paged.Orders, 1)

	status := enums.OrderStatusPaid
	byStatus, err := repo.List(ctx, pagination.Params{Page: 1, Limit: 10}, ListFilters{Status: &status})
	require.NoError(t, err)
	assert.EqualValues(t, 3, byStatus.Total)
}

func TestRepositoryUpdateAndDelete(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := newTestOrder(t, conn, "order_upd_1", "imp_upd_1", uuid.New())

	require.NoError(t, repo.Update(ctx, order.ID, map[string]any{"status": enums.OrderStatusShipped}))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, found.Status)

	assert.ErrorIs(t, repo.Update(ctx, uuid.New(), map[string]any{"status": enums.OrderStatusPaid}), gorm.ErrRecordNotFound)

	require.NoError(t, repo.Delete(ctx, order.ID))
	_, err = repo.FindByID(ctx, order.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, order.ID), gorm.ErrRecordNotFound)
}

func TestRepositorySnapshotSurvivesCatalogChanges(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := newTestOrder(t, conn, "order_snap_1", "imp_snap_1", uuid.New())

	productID := uuid.New()
	require.NoError(t, conn.Exec(
		"INSERT INTO products (id, name, sku, price, stock, active) VALUES (?, 'Test Product', 'SKU-1', 50000, 5, 1)",
		productID,
	).Error)
	require.NoError(t, conn.Exec(
		"UPDATE order_items SET product_id = ? WHERE order_id = ?", productID, order.ID,
	).Error)

	require.NoError(t, conn.Exec(
		"UPDATE products SET name = 'Renamed Product', sku = 'SKU-2', price = 1 WHERE id = ?", productID,
	).Error)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Test Product", found.Items[0].ProductSnapshot.Name)
	assert.Equal(t, "SKU-1", found.Items[0].ProductSnapshot.SKU)
	assert.EqualValues(t, 50000, found.Items[0].UnitPrice)

	require.NoError(t, conn.Exec("DELETE FROM products WHERE id = ?", productID).Error)

	found, err = repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Test Product", found.Items[0].ProductSnapshot.Name)
	assert.Equal(t, "SKU-1", found.Items[0].ProductSnapshot.SKU)
}
