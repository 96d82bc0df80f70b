package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	"github.com/Prem931993/buytown-sub000/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	List(ctx context.Context, query ListQuery) ([]models.Order, error)
}

// ListQuery narrows an order listing. Nil fields are not filtered.
type ListQuery struct {
	UserID           *uuid.UUID
	DeliveryPersonID *uuid.UUID
	Status           *enums.OrderStatus
	Cursor           *pagination.Cursor
	Limit            int
}

// ListFilter is the admin listing filter.
type ListFilter struct {
	Status *enums.OrderStatus
}
