// Package cart manages the single pre-checkout basket of each customer.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Prem931993/buytown-sub000/internal/inventory"
	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type availabilityChecker interface {
	Availability(ctx context.Context, conn *gorm.DB, productID uuid.UUID) (int, error)
}

type rateProvider interface {
	ActiveRate(ctx context.Context, conn *gorm.DB) (decimal.Decimal, error)
}

// Service exposes cart operations.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*Summary, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// AddItemInput identifies the product line to add.
type AddItemInput struct {
	ProductID   uuid.UUID
	VariationID *uuid.UUID
	Quantity    int
}

type service struct {
	repo     CartRepository
	tx       txRunner
	stock    availabilityChecker
	tax      rateProvider
	maxLines int
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, stock availabilityChecker, tax rateProvider, maxLines int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("availability checker required")
	}
	if tax == nil {
		return nil, fmt.Errorf("tax rate provider required")
	}
	return &service{repo: repo, tx: tx, stock: stock, tax: tax, maxLines: maxLines}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var summary Summary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		items, err := s.repo.WithTx(tx).ListItems(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
		}
		rate, err := s.tax.ActiveRate(ctx, tx)
		if err != nil {
			return err
		}
		summary = Summarize(items, rate)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error) {
	if userID == uuid.Nil || input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and product id are required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var saved *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.GetOrCreate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		price, err := s.unitPrice(ctx, repo, input.ProductID, input.VariationID)
		if err != nil {
			return err
		}

		item, err := repo.FindLine(ctx, cart.ID, input.ProductID, input.VariationID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := s.ensureLineCapacity(ctx, repo, cart.ID); err != nil {
				return err
			}
			item = &models.CartItem{
				CartID:      cart.ID,
				ProductID:   input.ProductID,
				VariationID: input.VariationID,
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		quantity := item.Quantity + input.Quantity
		if err := s.ensureAvailable(ctx, tx, repo, userID, item, quantity); err != nil {
			return err
		}

		item.Quantity = quantity
		item.Price = price
		item.TotalPrice = LineTotal(price, quantity)
		if err := repo.SaveItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
		}
		if err := repo.UpdateStatus(ctx, cart.ID, enums.CartStatusPending); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart status")
		}
		saved = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var saved *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.ownedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}

		price, err := s.unitPrice(ctx, repo, item.ProductID, item.VariationID)
		if err != nil {
			return err
		}
		if err := s.ensureAvailable(ctx, tx, repo, userID, item, quantity); err != nil {
			return err
		}

		item.Quantity = quantity
		item.Price = price
		item.TotalPrice = LineTotal(price, quantity)
		if err := repo.SaveItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
		}
		saved = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.ownedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, item.CartID, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		count, err := repo.CountLines(ctx, item.CartID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart items")
		}
		if count == 0 {
			return repo.UpdateStatus(ctx, item.CartID, enums.CartStatusEmpty)
		}
		return nil
	})
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindByUser(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		return ClearCart(ctx, repo, cart.ID)
	})
}

// ClearCart deletes every item and marks the cart empty. repo must already
// be bound to the caller's transaction.
func ClearCart(ctx context.Context, repo CartRepository, cartID uuid.UUID) error {
	if err := repo.ClearItems(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
	}
	if err := repo.UpdateStatus(ctx, cartID, enums.CartStatusEmpty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart status")
	}
	return nil
}

func (s *service) ownedItem(ctx context.Context, repo CartRepository, userID, itemID uuid.UUID) (*models.CartItem, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	item, err := repo.FindItem(ctx, cart.ID, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return item, nil
}

// unitPrice snapshots the variation price when one is set, else the product price.
func (s *service) unitPrice(ctx context.Context, repo CartRepository, productID uuid.UUID, variationID *uuid.UUID) (decimal.Decimal, error) {
	product, err := repo.FindProduct(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.Status == enums.ProductStatusDiscontinued {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("product %s is discontinued", product.Name))
	}
	if variationID == nil {
		return product.Price, nil
	}

	variation, err := repo.FindVariation(ctx, productID, *variationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product variation not found")
	}
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product variation")
	}
	return variation.Price, nil
}

// ensureAvailable checks that the product's total across every cart line,
// with item at quantity, fits current availability. Nothing is reserved.
func (s *service) ensureAvailable(ctx context.Context, tx *gorm.DB, repo CartRepository, userID uuid.UUID, item *models.CartItem, quantity int) error {
	items, err := repo.ListItems(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	requested := quantity
	for _, other := range items {
		if other.ProductID == item.ProductID && other.ID != item.ID {
			requested += other.Quantity
		}
	}

	available, err := s.stock.Availability(ctx, tx, item.ProductID)
	if err != nil {
		return err
	}
	if requested > available {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(inventory.ShortageDetails{
				ProductID: item.ProductID,
				Requested: requested,
				Available: available,
			})
	}
	return nil
}

func (s *service) ensureLineCapacity(ctx context.Context, repo CartRepository, cartID uuid.UUID) error {
	if s.maxLines <= 0 {
		return nil
	}
	count, err := repo.CountLines(ctx, cartID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart items")
	}
	if count >= int64(s.maxLines) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cart cannot hold more than %d items", s.maxLines))
	}
	return nil
}
