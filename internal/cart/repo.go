package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
)

// Repository exposes persistence operations for carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUser returns the cart owned by the user.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreate returns the user's cart, creating it on first use.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := r.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.Cart{UserID: userID, Status: enums.CartStatusPending}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(created).Error; err != nil {
		return nil, err
	}
	// A concurrent request may have won the insert.
	return r.FindByUser(ctx, userID)
}

// ListItems returns the user's items with their products, oldest first.
func (r *Repository) ListItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", userID).
		Order("cart_items.created_at ASC, cart_items.id ASC").
		Find(&items).Error
	return items, err
}

// FindItem loads one item restricted to the cart.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Take(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindLine loads the item for a product/variation pair.
func (r *Repository) FindLine(ctx context.Context, cartID, productID uuid.UUID, variationID *uuid.UUID) (*models.CartItem, error) {
	query := r.db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID)
	if variationID == nil {
		query = query.Where("variation_id IS NULL")
	} else {
		query = query.Where("variation_id = ?", *variationID)
	}

	var item models.CartItem
	if err := query.Take(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// SaveItem inserts or updates an item.
func (r *Repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error
}

// DeleteItem removes one item from the cart.
func (r *Repository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearItems deletes every item of the cart.
func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// UpdateStatus sets the cart status.
func (r *Repository) UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("status", status).Error
}

// CountLines returns how many items the cart holds.
func (r *Repository) CountLines(ctx context.Context, cartID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("cart_id = ?", cartID).Count(&count).Error
	return count, err
}

// FindProduct loads the product a line points at.
func (r *Repository) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", productID).Take(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVariation loads a variation belonging to the product.
func (r *Repository) FindVariation(ctx context.Context, productID, variationID uuid.UUID) (*models.ProductVariation, error) {
	var variation models.ProductVariation
	err := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", variationID, productID).
		Take(&variation).Error
	if err != nil {
		return nil, err
	}
	return &variation, nil
}
