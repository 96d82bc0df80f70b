// Package checkout converts a cart into an order in one transaction: stock is
// reserved, the order number issued, the order written and the cart cleared
// together or not at all.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Prem931993/buytown-sub000/internal/cart"
	"github.com/Prem931993/buytown-sub000/internal/delivery"
	"github.com/Prem931993/buytown-sub000/internal/inventory"
	"github.com/Prem931993/buytown-sub000/internal/notifications"
	"github.com/Prem931993/buytown-sub000/internal/orders"
	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
	"github.com/Prem931993/buytown-sub000/pkg/logger"
	"github.com/Prem931993/buytown-sub000/pkg/metrics"
	"github.com/Prem931993/buytown-sub000/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockReserver interface {
	ReserveItems(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error
}

type numberGenerator interface {
	Generate(ctx context.Context, tx *gorm.DB) (string, error)
}

type rateProvider interface {
	ActiveRate(ctx context.Context, conn *gorm.DB) (decimal.Decimal, error)
}

// Service executes checkout orchestration.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error)
}

// Input captures the customer supplied checkout data.
type Input struct {
	ShippingAddress  *types.Address
	BillingAddress   *types.Address
	PaymentMethod    string
	Notes            *string
	DeliveryDistance *decimal.Decimal
}

type service struct {
	tx        txRunner
	cartRepo  cart.CartRepository
	orders    orders.Repository
	stock     stockReserver
	numbers   numberGenerator
	tax       rateProvider
	estimator delivery.Estimator
	notifier  notifications.Notifier
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
}

// NewService builds the checkout service. estimator and m may be nil.
func NewService(
	tx txRunner,
	cartRepo cart.CartRepository,
	ordersRepo orders.Repository,
	stock stockReserver,
	numbers numberGenerator,
	tax rateProvider,
	estimator delivery.Estimator,
	notifier notifications.Notifier,
	m *metrics.OrderMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock reserver required")
	}
	if numbers == nil {
		return nil, fmt.Errorf("order number generator required")
	}
	if tax == nil {
		return nil, fmt.Errorf("tax rate provider required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        tx,
		cartRepo:  cartRepo,
		orders:    ordersRepo,
		stock:     stock,
		numbers:   numbers,
		tax:       tax,
		estimator: estimator,
		notifier:  notifier,
		metrics:   m,
		logg:      logg,
	}, nil
}

func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error) {
	order, err := s.checkout(ctx, userID, input)
	method := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	if err != nil {
		s.metrics.ObserveCheckout(method, metrics.OutcomeFailure)
		return nil, err
	}
	s.metrics.ObserveCheckout(method, metrics.OutcomeSuccess)

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, fmt.Sprintf("checkout created order %s", order.OrderNumber))
	s.notifier.Notify(ctx, notifications.OrderEvent(enums.NotificationOrderCreated, order).WithActor(enums.RoleCustomer))
	return order, nil
}

func (s *service) checkout(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	method, err := enums.ParsePaymentMethod(strings.ToLower(strings.TrimSpace(input.PaymentMethod)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	shipping, billing, err := normalizeAddresses(input.ShippingAddress, input.BillingAddress)
	if err != nil {
		return nil, err
	}
	distance := s.deliveryDistance(ctx, shipping, input.DeliveryDistance)

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)

		basket, err := cartRepo.FindByUser(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		items, err := cartRepo.ListItems(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		rate, err := s.tax.ActiveRate(ctx, tx)
		if err != nil {
			return err
		}
		summary := cart.Summarize(items, rate)

		if err := s.stock.ReserveItems(ctx, tx, reservationLines(items)); err != nil {
			return err
		}

		number, err := s.numbers.Generate(ctx, tx)
		if err != nil {
			return err
		}

		order := &models.Order{
			OrderNumber:      number,
			UserID:           userID,
			Status:           enums.OrderStatusAwaitingConfirmation,
			PaymentStatus:    enums.PaymentStatusPending,
			PaymentMethod:    method,
			ShippingAddress:  shipping,
			BillingAddress:   billing,
			Notes:            trimmed(input.Notes),
			Subtotal:         summary.Subtotal,
			TaxRate:          summary.TaxRate,
			Tax:              summary.Tax,
			Discount:         summary.Discount,
			Shipping:         summary.Shipping,
			DeliveryDistance: distance,
			DeliveryCharges:  decimal.Zero,
			Items:            orderItems(items),
		}
		order.TotalAmount = order.ChargeableTotal().Round(2)

		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := cart.ClearCart(ctx, cartRepo, basket.ID); err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// deliveryDistance prefers the caller's value. Estimation failures are
// logged and leave the distance unknown (zero) for the approver to fill.
func (s *service) deliveryDistance(ctx context.Context, shipping types.Address, provided *decimal.Decimal) decimal.Decimal {
	if provided != nil && provided.IsPositive() {
		return provided.Round(2)
	}
	if s.estimator == nil {
		return decimal.Zero
	}
	distance, err := s.estimator.Estimate(ctx, shipping)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("delivery distance estimate failed: %v", err))
		return decimal.Zero
	}
	return distance
}

func normalizeAddresses(shipping, billing *types.Address) (types.Address, *types.Address, error) {
	if shipping == nil {
		return types.Address{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	ship := shipping.Normalized()
	if err := ship.Validate(); err != nil {
		return types.Address{}, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}
	if billing == nil {
		return ship, nil, nil
	}
	bill := billing.Normalized()
	if err := bill.Validate(); err != nil {
		return types.Address{}, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing address")
	}
	return ship, &bill, nil
}

func reservationLines(items []models.CartItem) []inventory.Line {
	out := make([]inventory.Line, 0, len(items))
	for _, item := range items {
		out = append(out, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

func orderItems(items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		out = append(out, models.OrderItem{
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			ProductName: name,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
			TotalPrice:  item.TotalPrice,
		})
	}
	return out
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
