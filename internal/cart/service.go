package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/hanbitmall/hanbit-backend/pkg/db/models"
	"github.com/hanbitmall/hanbit-backend/pkg/enums"
	pkgerrors "github.com/hanbitmall/hanbit-backend/pkg/errors"
	"github.com/hanbitmall/hanbit-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations plus the post-order cleanup hook.
type Service interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	CleanupAfterOrder(ctx context.Context, input CleanupInput) error
}

// AddItemInput carries the payload for adding one product to the cart.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Options   types.OptionMap
}

// CleanupInput identifies the cart lines consumed by a committed order.
type CleanupInput struct {
	CartID           uuid.UUID
	PurchasedItemIDs []uuid.UUID
	ActorID          uuid.UUID
	ActorType        enums.UserType
}

type service struct {
	repo     Repository
	tx       txRunner
	products productLoader
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, tx txRunner, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}

	created, err := s.repo.Create(ctx, &models.Cart{
		UserID: userID,
		Status: enums.CartStatusActive,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.Cart, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Same product with identical options increments quantity instead of
	// adding a second line.
	for i := range cart.Items {
		existing := &cart.Items[i]
		if existing.ProductID == input.ProductID && existing.Options.Equal(input.Options) {
			updates := map[string]any{"quantity": existing.Quantity + quantity}
			if err := s.repo.UpdateItem(ctx, existing.ID, updates); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
			return s.reload(ctx, cart.ID)
		}
	}

	_, err = s.repo.CreateItem(ctx, &models.CartItem{
		CartID:    cart.ID,
		ProductID: input.ProductID,
		Quantity:  quantity,
		UnitPrice: product.Price,
		Options:   input.Options,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}

	return s.reload(ctx, cart.ID)
}

func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	cart, err := s.ownedActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	if quantity < 1 {
		return s.RemoveItem(ctx, userID, itemID)
	}

	if err := s.repo.UpdateItem(ctx, item.ID, map[string]any{"quantity": quantity}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return s.reload(ctx, cart.ID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {
	cart, err := s.ownedActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindItem(ctx, cart.ID, itemID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	if err := s.repo.DeleteItems(ctx, cart.ID, []uuid.UUID{itemID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}

	reloaded, err := s.reload(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	// Empty carts are deleted, never persisted.
	if len(reloaded.Items) == 0 {
		if err := s.repo.Delete(ctx, cart.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete empty cart")
		}
		return nil, nil
	}
	return reloaded, nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.ownedActiveCart(ctx, userID)
	if err != nil {
		typed := pkgerrors.As(err)
		if typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}
	if err := s.repo.Delete(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// CleanupAfterOrder removes the purchased lines from the originating cart.
// It is a best-effort side effect of order creation: unauthorized actors and
// already-cleaned carts are silent no-ops so the call stays idempotent.
func (s *service) CleanupAfterOrder(ctx context.Context, input CleanupInput) error {
	if input.CartID == uuid.Nil {
		return nil
	}

	cart, err := s.repo.FindByID(ctx, input.CartID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart for cleanup")
	}

	if cart.UserID != input.ActorID && !input.ActorType.IsAdmin() {
		return nil
	}

	if len(cart.Items) == 0 || len(input.PurchasedItemIDs) == 0 {
		if err := s.repo.Delete(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart during cleanup")
		}
		return nil
	}

	purchased := make(map[uuid.UUID]struct{}, len(input.PurchasedItemIDs))
	for _, id := range input.PurchasedItemIDs {
		purchased[id] = struct{}{}
	}

	var matched []uuid.UUID
	remainder := 0
	for _, item := range cart.Items {
		if _, ok := purchased[item.ID]; ok {
			matched = append(matched, item.ID)
		} else {
			remainder++
		}
	}

	if remainder == 0 {
		if err := s.repo.Delete(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart during cleanup")
		}
		return nil
	}

	// A retry after a successful prune matches nothing; the surviving lines
	// belong to the user and must stay.
	if len(matched) == 0 {
		return nil
	}

	var errs error
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItems(ctx, cart.ID, matched); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("prune purchased items: %w", err))
		}
		if err := repo.UpdateStatus(ctx, cart.ID, enums.CartStatusOrdered); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mark cart ordered: %w", err))
		}
		return errs
	})
}

func (s *service) ownedActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}
	return cart, nil
}

func (s *service) reload(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return cart, nil
}
