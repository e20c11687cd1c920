package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hanbitmall/hanbit-backend/pkg/db/models"
	pkgerrors "github.com/hanbitmall/hanbit-backend/pkg/errors"
	"github.com/hanbitmall/hanbit-backend/pkg/pagination"
)

type stubProductsRepo struct {
	products map[uuid.UUID]*models.Product
	updates  map[string]any

	createFn   func(ctx context.Context, product *models.Product) (*models.Product, error)
	findByIDFn func(ctx context.Context, id uuid.UUID) (*models.Product, error)
	listFn     func(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
}

func newStubProductsRepo() *stubProductsRepo {
	return &stubProductsRepo{products: map[uuid.UUID]*models.Product{}}
}

func (s *stubProductsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubProductsRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if s.createFn != nil {
		return s.createFn(ctx, product)
	}
	product.ID = uuid.New()
	s.products[product.ID] = product
	return product, nil
}

func (s *stubProductsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (s *stubProductsRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			out = append(out, *product)
		}
	}
	return out, nil
}

func (s *stubProductsRepo) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params, filters)
	}
	return &List{}, nil
}

func (s *stubProductsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if _, ok := s.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.updates = updates
	if name, ok := updates["name"].(string); ok {
		s.products[id].Name = name
	}
	if active, ok := updates["active"].(bool); ok {
		s.products[id].Active = active
	}
	return nil
}

func (s *stubProductsRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.products, id)
	return nil
}

func TestCreateProductDefaultsToActive(t *testing.T) {
	repo := newStubProductsRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	created, err := svc.Create(context.Background(), CreateProductInput{
		Name:  "  Hanbit Hoodie  ",
		SKU:   "HB-HOODIE-01",
		Price: 25000,
		Stock: 10,
	})
	require.NoError(t, err)
	require.Equal(t, "Hanbit Hoodie", created.Name)
	require.True(t, created.Active)
}

func TestCreateProductRequiresNameAndSKU(t *testing.T) {
	repo := newStubProductsRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateProductInput{SKU: "HB-1", Price: 100})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Create(context.Background(), CreateProductInput{Name: "Hoodie", Price: 100})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateProductRejectsNegativePrice(t *testing.T) {
	repo := newStubProductsRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateProductInput{Name: "Hoodie", SKU: "HB-1", Price: -1})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestGetProductNotFound(t *testing.T) {
	repo := newStubProductsRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateProductAppliesPartialFields(t *testing.T) {
	repo := newStubProductsRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	created, err := svc.Create(context.Background(), CreateProductInput{Name: "Hoodie", SKU: "HB-1", Price: 100})
	require.NoError(t, err)

	name := "Hanbit Hoodie v2"
	inactive := false
	updated, err := svc.Update(context.Background(), created.ID, UpdateProductInput{Name: &name, Active: &inactive})
	require.NoError(t, err)
	require.Equal(t, "Hanbit Hoodie v2", updated.Name)
	require.False(t, updated.Active)
	require.NotContains(t, repo.updates, "price")
}

func TestUpdateProductWithoutChangesReturnsCurrent(t *testing.T) {
	repo := newStubProductsRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	created, err := svc.Create(context.Background(), CreateProductInput{Name: "Hoodie", SKU: "HB-1", Price: 100})
	require.NoError(t, err)

	current, err := svc.Update(context.Background(), created.ID, UpdateProductInput{})
	require.NoError(t, err)
	require.Equal(t, created.ID, current.ID)
	require.Nil(t, repo.updates)
}

func TestDeleteProductNotFound(t *testing.T) {
	repo := newStubProductsRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
