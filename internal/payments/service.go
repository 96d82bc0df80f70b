// Package payments opens gateway payments for orders and folds gateway
// outcomes (polled or pushed) back into the payment and order records.
package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Prem931993/buytown-sub000/internal/notifications"
	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
	"github.com/Prem931993/buytown-sub000/pkg/logger"
	"github.com/Prem931993/buytown-sub000/pkg/metrics"
	"github.com/Prem931993/buytown-sub000/pkg/types"
)

const defaultGatewayTimeout = 15 * time.Second

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderBook interface {
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ApplyPaymentResult(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, result enums.PaymentAttemptStatus) (bool, error)
}

type contactDirectory interface {
	Get(ctx context.Context, conn *gorm.DB, id uuid.UUID) (*models.User, error)
}

// Service exposes gateway payment operations.
type Service interface {
	CreateGatewayOrder(ctx context.Context, gateway enums.PaymentGateway, orderID, userID uuid.UUID) (*CreateResult, error)
	VerifyPayment(ctx context.Context, gateway enums.PaymentGateway, gatewayOrderID string) (*Result, error)
	ParseWebhook(ctx context.Context, gateway enums.PaymentGateway, payload []byte, headers http.Header) (*WebhookEvent, error)
	ApplyWebhook(ctx context.Context, gateway enums.PaymentGateway, event *WebhookEvent) (*Result, error)
	HandleWebhook(ctx context.Context, gateway enums.PaymentGateway, payload []byte, headers http.Header) (*Result, error)
	ListPendingForReconcile(ctx context.Context, olderThan time.Duration, limit int) ([]models.Payment, error)
}

// CreateResult is returned to the customer to continue on the gateway.
type CreateResult struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	PaymentURL    string    `json:"payment_url"`
	TransactionID string    `json:"transaction_id"`
}

// Result reports the payment state after a verify or webhook.
type Result struct {
	Success   bool                       `json:"success"`
	Status    enums.PaymentAttemptStatus `json:"status"`
	OrderID   uuid.UUID                  `json:"order_id,omitempty"`
	PaymentID uuid.UUID                  `json:"payment_id,omitempty"`
	Applied   bool                       `json:"applied"`
}

type service struct {
	repo     Repository
	tx       txRunner
	orders   orderBook
	contacts contactDirectory
	gateways map[enums.PaymentGateway]Gateway
	notifier notifications.Notifier
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	currency string
	timeout  time.Duration
	now      func() time.Time
}

// Option customizes the service.
type Option func(*service)

func WithGatewayTimeout(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithCurrency(currency string) Option {
	return func(s *service) {
		if c := strings.TrimSpace(currency); c != "" {
			s.currency = strings.ToUpper(c)
		}
	}
}

func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *service) { s.metrics = m }
}

// WithContacts enables passing customer email and phone to gateways.
func WithContacts(contacts contactDirectory) Option {
	return func(s *service) { s.contacts = contacts }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires payment reconciliation over the configured gateways.
func NewService(
	repo Repository,
	tx txRunner,
	orders orderBook,
	gateways []Gateway,
	notifier notifications.Notifier,
	logg *logger.Logger,
	opts ...Option,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	registered := make(map[enums.PaymentGateway]Gateway, len(gateways))
	for _, gw := range gateways {
		if gw == nil {
			continue
		}
		registered[gw.Name()] = gw
	}

	svc := &service{
		repo:     repo,
		tx:       tx,
		orders:   orders,
		gateways: registered,
		notifier: notifier,
		logg:     logg,
		currency: "INR",
		timeout:  defaultGatewayTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

func (s *service) gateway(name enums.PaymentGateway) (Gateway, error) {
	gw, ok := s.gateways[name]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("payment gateway %q is not available", name))
	}
	return gw, nil
}

func (s *service) CreateGatewayOrder(ctx context.Context, gatewayName enums.PaymentGateway, orderID, userID uuid.UUID) (*CreateResult, error) {
	gw, err := s.gateway(gatewayName)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusAwaitingConfirmation {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("order %s cannot be paid in status %s", order.OrderNumber, order.Status))
	}
	if method, ok := order.PaymentMethod.Gateway(); !ok || method != gatewayName {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("order %s is not payable through %s", order.OrderNumber, gatewayName))
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("order %s is already paid", order.OrderNumber))
	}

	req := GatewayOrderRequest{
		Reference:   s.reference(order),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Amount:      order.TotalAmount,
		Currency:    s.currency,
	}
	s.fillContact(ctx, &req)

	started := s.now()
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	created, err := gw.CreateOrder(callCtx, req)
	cancel()
	if err != nil {
		s.metrics.ObserveGatewayCall(string(gatewayName), "create", metrics.OutcomeFailure, s.now().Sub(started))
		return nil, gatewayFailure(err, "create gateway order")
	}
	s.metrics.ObserveGatewayCall(string(gatewayName), "create", metrics.OutcomeSuccess, s.now().Sub(started))

	payment := &models.Payment{
		OrderID:        order.ID,
		Gateway:        gatewayName,
		GatewayOrderID: created.GatewayOrderID,
		Amount:         order.TotalAmount,
		Currency:       s.currency,
		Status:         enums.PaymentAttemptCreated,
	}
	if created.PaymentURL != "" {
		payment.PaymentURL = &created.PaymentURL
	}
	if created.TransactionID != "" {
		payment.TransactionID = &created.TransactionID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		return repo.AppendEvent(ctx, &models.PaymentEvent{
			PaymentID: payment.ID,
			Source:    models.PaymentEventSourceCreate,
			Status:    enums.PaymentAttemptCreated,
			Applied:   true,
			Raw:       created.Raw,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
	}

	s.logg.Info(ctx, fmt.Sprintf("%s payment %s opened for order %s", gatewayName, payment.GatewayOrderID, order.OrderNumber))
	return &CreateResult{
		PaymentID:     payment.ID,
		PaymentURL:    created.PaymentURL,
		TransactionID: payment.GatewayOrderID,
	}, nil
}

// reference is the merchant transaction id: unique per attempt and within
// the gateways' length limits.
func (s *service) reference(order *models.Order) string {
	return fmt.Sprintf("%s-%d", order.OrderNumber, s.now().UnixMilli())
}

func (s *service) fillContact(ctx context.Context, req *GatewayOrderRequest) {
	if s.contacts == nil {
		return
	}
	user, err := s.contacts.Get(ctx, nil, req.UserID)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("payment contact lookup failed: %v", err))
		return
	}
	if user.Email != nil {
		req.Email = *user.Email
	}
	if user.Phone != nil {
		req.Phone = *user.Phone
	}
}

func (s *service) VerifyPayment(ctx context.Context, gatewayName enums.PaymentGateway, gatewayOrderID string) (*Result, error) {
	gw, err := s.gateway(gatewayName)
	if err != nil {
		return nil, err
	}
	gatewayOrderID = strings.TrimSpace(gatewayOrderID)
	if gatewayOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}

	payment, err := s.repo.FindByGatewayOrder(ctx, gatewayName, gatewayOrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.Status.IsTerminal() {
		return resultFor(payment, false), nil
	}

	started := s.now()
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	status, err := gw.FetchStatus(callCtx, gatewayOrderID)
	cancel()
	if err != nil {
		s.metrics.ObserveGatewayCall(string(gatewayName), "status", metrics.OutcomeFailure, s.now().Sub(started))
		return nil, gatewayFailure(err, "fetch payment status")
	}
	s.metrics.ObserveGatewayCall(string(gatewayName), "status", metrics.OutcomeSuccess, s.now().Sub(started))

	return s.applyStatus(ctx, gatewayName, statusUpdate{
		gatewayOrderID: gatewayOrderID,
		transactionID:  status.TransactionID,
		status:         status.Status,
		message:        status.Message,
		source:         models.PaymentEventSourcePoll,
		raw:            status.Raw,
	})
}

func (s *service) ParseWebhook(ctx context.Context, gatewayName enums.PaymentGateway, payload []byte, headers http.Header) (*WebhookEvent, error) {
	gw, err := s.gateway(gatewayName)
	if err != nil {
		return nil, err
	}
	return gw.ParseWebhook(ctx, payload, headers)
}

func (s *service) ApplyWebhook(ctx context.Context, gatewayName enums.PaymentGateway, event *WebhookEvent) (*Result, error) {
	if event == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook event is required")
	}
	if event.Status == "" || event.GatewayOrderID == "" {
		s.logg.Debug(ctx, fmt.Sprintf("%s webhook %s ignored", gatewayName, event.EventID))
		return &Result{}, nil
	}
	return s.applyStatus(ctx, gatewayName, statusUpdate{
		gatewayOrderID: event.GatewayOrderID,
		transactionID:  event.TransactionID,
		status:         event.Status,
		message:        event.Message,
		source:         models.PaymentEventSourceWebhook,
		raw:            event.Raw,
	})
}

// HandleWebhook verifies the signature before touching any state.
func (s *service) HandleWebhook(ctx context.Context, gatewayName enums.PaymentGateway, payload []byte, headers http.Header) (*Result, error) {
	event, err := s.ParseWebhook(ctx, gatewayName, payload, headers)
	if err != nil {
		return nil, err
	}
	return s.ApplyWebhook(ctx, gatewayName, event)
}

func (s *service) ListPendingForReconcile(ctx context.Context, olderThan time.Duration, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.repo.ListUnsettled(ctx, s.now().Add(-olderThan), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unsettled payments")
	}
	return rows, nil
}

type statusUpdate struct {
	gatewayOrderID string
	transactionID  string
	status         enums.PaymentAttemptStatus
	message        string
	source         string
	raw            types.JSONMap
}

// applyStatus records the gateway response and moves the payment forward.
// Repeated or late responses are audited but change nothing.
func (s *service) applyStatus(ctx context.Context, gatewayName enums.PaymentGateway, update statusUpdate) (*Result, error) {
	if !update.status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", update.status))
	}

	var (
		payment      *models.Payment
		applied      bool
		orderChanged bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		p, err := repo.FindByGatewayOrderForUpdate(ctx, gatewayName, update.gatewayOrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		payment = p
		applied = p.Status != update.status && !p.Status.IsTerminal()

		if err := repo.AppendEvent(ctx, &models.PaymentEvent{
			PaymentID: p.ID,
			Source:    update.source,
			Status:    update.status,
			Applied:   applied,
			Raw:       update.raw,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append payment event")
		}
		if !applied {
			return nil
		}

		p.Status = update.status
		if update.transactionID != "" {
			txnID := update.transactionID
			p.TransactionID = &txnID
		}
		if update.status == enums.PaymentAttemptFailed || update.status == enums.PaymentAttemptCancelled {
			reason := update.message
			if reason == "" {
				reason = string(update.status)
			}
			p.FailureReason = &reason
		}
		if err := repo.Save(ctx, p); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment")
		}

		if update.status.IsTerminal() {
			changed, err := s.orders.ApplyPaymentResult(ctx, tx, p.OrderID, update.status)
			if err != nil {
				return err
			}
			orderChanged = changed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, payment.OrderID.String())
	s.metrics.ObservePaymentUpdate(string(gatewayName), update.source, string(payment.Status))
	if applied {
		s.logg.Info(ctx, fmt.Sprintf("%s payment %s is %s (%s)", gatewayName, payment.GatewayOrderID, payment.Status, update.source))
	}
	if orderChanged {
		s.notifyOrder(ctx, payment.OrderID, payment.Status)
	}
	return resultFor(payment, applied), nil
}

func (s *service) notifyOrder(ctx context.Context, orderID uuid.UUID, status enums.PaymentAttemptStatus) {
	event := enums.NotificationPaymentFailed
	if status == enums.PaymentAttemptPaid {
		event = enums.NotificationPaymentPaid
	}
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("load order for %s notification: %v", event, err))
		return
	}
	s.notifier.Notify(ctx, notifications.OrderEvent(event, order))
}

func resultFor(payment *models.Payment, applied bool) *Result {
	return &Result{
		Success:   payment.Status == enums.PaymentAttemptPaid,
		Status:    payment.Status,
		OrderID:   payment.OrderID,
		PaymentID: payment.ID,
		Applied:   applied,
	}
}

// gatewayFailure keeps an already classified error and reports anything else
// (timeouts, transport errors) as a retryable gateway error.
func gatewayFailure(err error, op string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, op+": gateway timed out")
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, err, op)
}
