// Package orders drives an order from checkout to a terminal state. Every
// transition locks the order row, checks the status precondition, applies
// ledger side effects and saves inside one transaction. Notifications go out
// after commit.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Prem931993/buytown-sub000/internal/delivery"
	"github.com/Prem931993/buytown-sub000/internal/inventory"
	"github.com/Prem931993/buytown-sub000/internal/notifications"
	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
	"github.com/Prem931993/buytown-sub000/pkg/logger"
	"github.com/Prem931993/buytown-sub000/pkg/metrics"
	"github.com/Prem931993/buytown-sub000/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// InventoryLedger is the slice of the ledger transitions need.
type InventoryLedger interface {
	ReleaseItems(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error
	CommitItems(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error
}

type userDirectory interface {
	Get(ctx context.Context, conn *gorm.DB, id uuid.UUID) (*models.User, error)
}

type chargeCalculator interface {
	CalculateTx(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID, distanceKm decimal.Decimal) (*delivery.Quote, error)
}

// Service exposes order transitions and reads.
type Service interface {
	Approve(ctx context.Context, input ApproveInput) (*models.Order, error)
	Reject(ctx context.Context, input RejectInput) (*models.Order, error)
	AssignDeliveryPerson(ctx context.Context, input AssignInput) (*models.Order, error)
	CompleteByDeliveryPerson(ctx context.Context, orderID, personID uuid.UUID) (*models.Order, error)
	RejectByDeliveryPerson(ctx context.Context, orderID, personID uuid.UUID, reason string) (*models.Order, error)
	CancelByCustomer(ctx context.Context, orderID, customerID uuid.UUID, reason string) (*models.Order, error)
	MarkReceivedByCustomer(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error)
	MarkCompleted(ctx context.Context, orderID, adminID uuid.UUID) (*models.Order, error)
	ApplyPaymentResult(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, result enums.PaymentAttemptStatus) (bool, error)

	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetForCustomer(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*pagination.Page[models.Order], error)
	ListForAdmin(ctx context.Context, filter ListFilter, params pagination.Params) (*pagination.Page[models.Order], error)
	ListForDeliveryPerson(ctx context.Context, personID uuid.UUID, params pagination.Params) (*pagination.Page[models.Order], error)
}

// ApproveInput is the admin approval payload.
type ApproveInput struct {
	OrderID          uuid.UUID
	VehicleID        uuid.UUID
	DistanceKm       decimal.Decimal
	DeliveryPersonID *uuid.UUID
}

// RejectInput is the admin rejection payload.
type RejectInput struct {
	OrderID          uuid.UUID
	Reason           string
	RejectedByUserID *uuid.UUID
}

// AssignInput is the admin delivery assignment payload.
type AssignInput struct {
	OrderID          uuid.UUID
	DeliveryPersonID uuid.UUID
	DistanceKm       decimal.Decimal
}

type service struct {
	repo      Repository
	tx        txRunner
	ledger    InventoryLedger
	users     userDirectory
	pricing   chargeCalculator
	estimator delivery.Estimator
	notifier  notifications.Notifier
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// Option customizes the service.
type Option func(*service)

// WithEstimator enables re-estimating a missing delivery distance.
func WithEstimator(estimator delivery.Estimator) Option {
	return func(s *service) { s.estimator = estimator }
}

func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the order state machine.
func NewService(
	repo Repository,
	tx txRunner,
	ledger InventoryLedger,
	users userDirectory,
	pricing chargeCalculator,
	notifier notifications.Notifier,
	logg *logger.Logger,
	opts ...Option,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if pricing == nil {
		return nil, fmt.Errorf("delivery calculator required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	s := &service{
		repo:     repo,
		tx:       tx,
		ledger:   ledger,
		users:    users,
		pricing:  pricing,
		notifier: notifier,
		logg:     logg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// transition is the shared lock, check, mutate, save, notify skeleton.
type transition struct {
	name    string
	event   enums.NotificationEvent
	actor   enums.Role
	orderID uuid.UUID
	apply   func(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

func (s *service) run(ctx context.Context, t transition) (*models.Order, error) {
	if t.orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	ctx = s.logg.WithOrderID(ctx, t.orderID.String())

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := lockOrder(ctx, repo, t.orderID)
		if err != nil {
			return err
		}
		if err := t.apply(ctx, tx, order); err != nil {
			return err
		}
		if err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		updated = order
		return nil
	})
	if err != nil {
		s.metrics.ObserveTransition(t.name, metrics.OutcomeFailure)
		return nil, err
	}

	s.metrics.ObserveTransition(t.name, metrics.OutcomeSuccess)
	s.logg.Info(ctx, fmt.Sprintf("order %s: %s -> %s", t.name, updated.OrderNumber, updated.Status))
	if t.event != "" {
		evt := notifications.OrderEvent(t.event, updated)
		if t.actor != "" {
			evt = evt.WithActor(t.actor)
		}
		s.notifier.Notify(ctx, evt)
	}
	return updated, nil
}

func lockOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindForUpdate(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) Approve(ctx context.Context, input ApproveInput) (*models.Order, error) {
	if input.VehicleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle id is required")
	}
	return s.run(ctx, transition{
		name:    "approve",
		event:   enums.NotificationOrderApproved,
		actor:   enums.RoleAdmin,
		orderID: input.OrderID,
		apply: func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
			if err := requireStatus(order, "approved", enums.OrderStatusAwaitingConfirmation); err != nil {
				return err
			}
			if err := requireOnlinePaid(order, "approved"); err != nil {
				return err
			}

			var person *models.User
			if input.DeliveryPersonID != nil && *input.DeliveryPersonID != uuid.Nil {
				p, err := s.deliveryPerson(ctx, tx, *input.DeliveryPersonID)
				if err != nil {
					return err
				}
				person = p
			}

			distance, err := s.resolveDistance(ctx, order, input.DistanceKm)
			if err != nil {
				return err
			}
			if err := s.applyDeliveryCharge(ctx, tx, order, input.VehicleID, distance); err != nil {
				return err
			}

			now := s.now().UTC()
			order.Status = enums.OrderStatusApproved
			order.ApprovedAt = &now
			if person != nil {
				assignPerson(order, person)
			}
			return nil
		},
	})
}

func (s *service) Reject(ctx context.Context, input RejectInput) (*models.Order, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	return s.run(ctx, transition{
		name:    "reject",
		event:   enums.NotificationOrderRejected,
		actor:   enums.RoleAdmin,
		orderID: input.OrderID,
		apply: func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
			if err := requireStatus(order, "rejected", enums.OrderStatusAwaitingConfirmation, enums.OrderStatusApproved); err != nil {
				return err
			}
			if err := s.ledger.ReleaseItems(ctx, tx, lines(order)); err != nil {
				return err
			}
			now := s.now().UTC()
			order.Status = enums.OrderStatusRejected
			order.RejectionReason = &reason
			order.RejectedByUserID = input.RejectedByUserID
			order.RejectedAt = &now
			return nil
		},
	})
}

func (s *service) AssignDeliveryPerson(ctx context.Context, input AssignInput) (*models.Order, error) {
	if input.DeliveryPersonID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery person id is required")
	}
	return s.run(ctx, transition{
		name:    "assign_delivery_person",
		event:   enums.NotificationOrderDeliveryAssigned,
		actor:   enums.RoleAdmin,
		orderID: input.OrderID,
		apply: func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
			if err := requireStatus(order, "assigned", enums.OrderStatusAwaitingConfirmation, enums.OrderStatusApproved); err != nil {
				return err
			}
			person, err := s.deliveryPerson(ctx, tx, input.DeliveryPersonID)
			if err != nil {
				return err
			}

			vehicleID := person.VehicleID
			if vehicleID == nil {
				vehicleID = order.VehicleID
			}
			if vehicleID == nil || *vehicleID == uuid.Nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "no vehicle available for delivery person")
			}

			distance, err := s.resolveDistance(ctx, order, input.DistanceKm)
			if err != nil {
				return err
			}
			if err := s.applyDeliveryCharge(ctx, tx, order, *vehicleID, distance); err != nil {
				return err
			}
			assignPerson(order, person)
			return nil
		},
	})
}

func (s *service) CompleteByDeliveryPerson(ctx context.Context, orderID, personID uuid.UUID) (*models.Order, error) {
	return s.run(ctx, transition{
		name:    "complete_by_delivery_person",
		event:   enums.NotificationOrderCompleted,
		actor:   enums.RoleDeliveryPerson,
		orderID: orderID,
		apply: func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
			if err := requireAssignee(order, personID); err != nil {
				return err
			}
			if err := requireStatus(order, "completed", enums.OrderStatusApproved); err != nil {
				return err
			}
			return s.complete(ctx, tx, order)
		},
	})
}

func (s *service) RejectByDeliveryPerson(ctx context.Context, orderID, personID uuid.UUID, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	return s.run(ctx, transition{
		name:    "reject_by_delivery_person",
		event:   enums.NotificationOrderRejected,
		actor:   enums.RoleDeliveryPerson,
		orderID: orderID,
		apply: func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
			if err := requireAssignee(order, personID); err != nil {
				return err
			}
			if err := requireStatus(order, "rejected", enums.OrderStatusApproved); err != nil {
				return err
			}
			if err := s.ledger.ReleaseItems(ctx, tx, lines(order)); err != nil {
				return err
			}
			now := s.now().UTC()
			order.Status = enums.OrderStatusRejected
			order.RejectionReason = &reason
			order.RejectedByUserID = &personID
			order.RejectedAt = &now
			return nil
		},
	})
}

func (s *service) CancelByCustomer(ctx context.Context, orderID, customerID uuid.UUID, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	return s.run(ctx, transition{
		name:    "cancel_by_customer",
		event:   enums.NotificationOrderCancelled,
		actor:   enums.RoleCustomer,
		orderID: orderID,
		apply: func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
			if err := requireOwner(order, customerID); err != nil {
				return err
			}
			switch order.Status {
			case enums.OrderStatusCompleted, enums.OrderStatusDelivered, enums.OrderStatusReceived,
				enums.OrderStatusRejected, enums.OrderStatusCancelled:
				return invalidState(order, "cancelled")
			}
			if err := s.ledger.ReleaseItems(ctx, tx, lines(order)); err != nil {
				return err
			}
			now := s.now().UTC()
			order.Status = enums.OrderStatusCancelled
			order.PaymentStatus = enums.PaymentStatusCancelled
			order.CancelledAt = &now
			if reason != "" {
				order.CancellationReason = &reason
			}
			return nil
		},
	})
}

func (s *service) MarkReceivedByCustomer(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error) {
	return s.run(ctx, transition{
		name:    "mark_received",
		event:   enums.NotificationOrderReceived,
		actor:   enums.RoleCustomer,
		orderID: orderID,
		apply: func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
			if err := requireOwner(order, customerID); err != nil {
				return err
			}
			if !order.Status.IsFulfilled() {
				return invalidState(order, "received")
			}
			now := s.now().UTC()
			order.Status = enums.OrderStatusReceived
			order.ReceivedAt = &now
			return nil
		},
	})
}

func (s *service) MarkCompleted(ctx context.Context, orderID, adminID uuid.UUID) (*models.Order, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}
	return s.run(ctx, transition{
		name:    "mark_completed",
		event:   enums.NotificationOrderCompleted,
		actor:   enums.RoleAdmin,
		orderID: orderID,
		apply: func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
			if err := requireStatus(order, "completed", enums.OrderStatusAwaitingConfirmation, enums.OrderStatusApproved); err != nil {
				return err
			}
			return s.complete(ctx, tx, order)
		},
	})
}

// ApplyPaymentResult folds a gateway outcome into the order inside the
// caller's transaction. It reports whether the order changed.
func (s *service) ApplyPaymentResult(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, result enums.PaymentAttemptStatus) (bool, error) {
	if tx == nil {
		return false, pkgerrors.New(pkgerrors.CodeInternal, "payment result requires a transaction")
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())
	repo := s.repo.WithTx(tx)
	order, err := lockOrder(ctx, repo, orderID)
	if err != nil {
		return false, err
	}

	if !order.Status.IsOpen() {
		s.logg.Warn(ctx, fmt.Sprintf("payment %s ignored for closed order in status %s", result, order.Status))
		return false, nil
	}

	switch result {
	case enums.PaymentAttemptPaid:
		if order.PaymentStatus == enums.PaymentStatusPaid {
			return false, nil
		}
		order.PaymentStatus = enums.PaymentStatusPaid
	case enums.PaymentAttemptFailed, enums.PaymentAttemptCancelled:
		if err := s.ledger.ReleaseItems(ctx, tx, lines(order)); err != nil {
			return false, err
		}
		now := s.now().UTC()
		reason := fmt.Sprintf("payment %s", result)
		order.PaymentStatus = enums.PaymentStatusFailed
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		order.CancellationReason = &reason
	default:
		return false, nil
	}

	if err := repo.Save(ctx, order); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
	}
	return true, nil
}

// complete consumes the held stock and closes the order. Cash on delivery is
// collected at this point.
func (s *service) complete(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if err := requireOnlinePaid(order, "completed"); err != nil {
		return err
	}
	if err := s.ledger.CommitItems(ctx, tx, lines(order)); err != nil {
		return err
	}
	now := s.now().UTC()
	order.Status = enums.OrderStatusCompleted
	order.CompletedAt = &now
	if order.PaymentMethod == enums.PaymentMethodCOD {
		order.PaymentStatus = enums.PaymentStatusPaid
	}
	return nil
}

func (s *service) deliveryPerson(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.User, error) {
	user, err := s.users.Get(ctx, tx, id)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery person")
	}
	if err != nil {
		return nil, err
	}
	if user.Role != enums.RoleDeliveryPerson {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery person")
	}
	return user, nil
}

// resolveDistance prefers the explicit input, then the stored distance, then
// a fresh estimate from the shipping address.
func (s *service) resolveDistance(ctx context.Context, order *models.Order, input decimal.Decimal) (decimal.Decimal, error) {
	if input.IsPositive() {
		return input, nil
	}
	if order.DeliveryDistance.IsPositive() {
		return order.DeliveryDistance, nil
	}
	if s.estimator != nil {
		distance, err := s.estimator.Estimate(ctx, order.ShippingAddress)
		if err == nil && distance.IsPositive() {
			return distance, nil
		}
		if err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("delivery distance estimate failed: %v", err))
		}
	}
	return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid distance")
}

func (s *service) applyDeliveryCharge(ctx context.Context, tx *gorm.DB, order *models.Order, vehicleID uuid.UUID, distance decimal.Decimal) error {
	quote, err := s.pricing.CalculateTx(ctx, tx, vehicleID, distance)
	if err != nil {
		return err
	}
	order.VehicleID = &vehicleID
	order.DeliveryDistance = distance
	order.DeliveryCharges = quote.TotalCharge
	order.TotalAmount = order.ChargeableTotal().Round(2)
	return nil
}

func assignPerson(order *models.Order, person *models.User) {
	id := person.ID
	name := person.Name
	order.DeliveryPersonID = &id
	order.DeliveryDriver = &name
}

func lines(order *models.Order) []inventory.Line {
	out := make([]inventory.Line, 0, len(order.Items))
	for _, item := range order.Items {
		out = append(out, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

func requireStatus(order *models.Order, target string, allowed ...enums.OrderStatus) error {
	for _, status := range allowed {
		if order.Status == status {
			return nil
		}
	}
	return invalidState(order, target)
}

func invalidState(order *models.Order, target string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidState,
		fmt.Sprintf("order %s cannot be %s from status %s", order.OrderNumber, target, order.Status)).
		WithDetails(map[string]any{
			"order_id": order.ID,
			"status":   order.Status,
			"target":   target,
		})
}

func requireOnlinePaid(order *models.Order, target string) error {
	if order.PaymentMethod.IsOnline() && order.PaymentStatus != enums.PaymentStatusPaid {
		return pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("order %s cannot be %s before online payment is received", order.OrderNumber, target)).
			WithDetails(map[string]any{
				"order_id":       order.ID,
				"payment_method": order.PaymentMethod,
				"payment_status": order.PaymentStatus,
			})
	}
	return nil
}

func requireAssignee(order *models.Order, personID uuid.UUID) error {
	if personID == uuid.Nil || order.DeliveryPersonID == nil || *order.DeliveryPersonID != personID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this delivery person")
	}
	return nil
}

func requireOwner(order *models.Order, customerID uuid.UUID) error {
	if customerID == uuid.Nil || order.UserID != customerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to this customer")
	}
	return nil
}
