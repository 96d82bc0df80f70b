package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
)

// Repository persists payment attempts and their audit events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) error
	AppendEvent(ctx context.Context, event *models.PaymentEvent) error
	FindByGatewayOrder(ctx context.Context, gateway enums.PaymentGateway, gatewayOrderID string) (*models.Payment, error)
	FindByGatewayOrderForUpdate(ctx context.Context, gateway enums.PaymentGateway, gatewayOrderID string) (*models.Payment, error)
	Save(ctx context.Context, payment *models.Payment) error
	ListUnsettled(ctx context.Context, createdBefore time.Time, limit int) ([]models.Payment, error)
	ListEvents(ctx context.Context, paymentID uuid.UUID) ([]models.PaymentEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(payment).Error
}

func (r *repository) AppendEvent(ctx context.Context, event *models.PaymentEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) FindByGatewayOrder(ctx context.Context, gateway enums.PaymentGateway, gatewayOrderID string) (*models.Payment, error) {
	return r.find(r.db.WithContext(ctx), gateway, gatewayOrderID)
}

// FindByGatewayOrderForUpdate locks the payment row until the transaction ends.
func (r *repository) FindByGatewayOrderForUpdate(ctx context.Context, gateway enums.PaymentGateway, gatewayOrderID string) (*models.Payment, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), gateway, gatewayOrderID)
}

func (r *repository) find(q *gorm.DB, gateway enums.PaymentGateway, gatewayOrderID string) (*models.Payment, error) {
	var payment models.Payment
	err := q.Where("gateway = ? AND gateway_order_id = ?", gateway, gatewayOrderID).Take(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) Save(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(payment).Error
}

// ListUnsettled returns created or pending attempts older than createdBefore,
// oldest first.
func (r *repository) ListUnsettled(ctx context.Context, createdBefore time.Time, limit int) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("status IN ?", []enums.PaymentAttemptStatus{enums.PaymentAttemptCreated, enums.PaymentAttemptPending}).
		Where("created_at < ?", createdBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListEvents(ctx context.Context, paymentID uuid.UUID) ([]models.PaymentEvent, error) {
	var rows []models.PaymentEvent
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}
