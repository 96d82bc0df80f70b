package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/Prem931993/buytown-sub000/internal/payments"
	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	"github.com/Prem931993/buytown-sub000/pkg/logger"
)

const (
	PaymentReconcileJobName = "payment_reconcile"

	defaultReconcileAfter = 10 * time.Minute
	defaultReconcileBatch = 50
)

type paymentReconciler interface {
	ListPendingForReconcile(ctx context.Context, olderThan time.Duration, limit int) ([]models.Payment, error)
	VerifyPayment(ctx context.Context, gateway enums.PaymentGateway, gatewayOrderID string) (*payments.Result, error)
}

// PaymentReconcileJobParams configures the unsettled payment sweep.
type PaymentReconcileJobParams struct {
	Logger    *logger.Logger
	Payments  paymentReconciler
	OlderThan time.Duration
	BatchSize int
}

// NewPaymentReconcileJob polls gateways for attempts whose webhook never
// arrived.
func NewPaymentReconcileJob(params PaymentReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	olderThan := params.OlderThan
	if olderThan <= 0 {
		olderThan = defaultReconcileAfter
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	return &paymentReconcileJob{
		logg:      params.Logger,
		payments:  params.Payments,
		olderThan: olderThan,
		batch:     batch,
	}, nil
}

type paymentReconcileJob struct {
	logg      *logger.Logger
	payments  paymentReconciler
	olderThan time.Duration
	batch     int
}

func (j *paymentReconcileJob) Name() string { return PaymentReconcileJobName }

func (j *paymentReconcileJob) Run(ctx context.Context) error {
	rows, err := j.payments.ListPendingForReconcile(ctx, j.olderThan, j.batch)
	if err != nil {
		return err
	}

	var (
		errs    error
		settled int
	)
	for _, payment := range rows {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		res, err := j.payments.VerifyPayment(ctx, payment.Gateway, payment.GatewayOrderID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("payment %s (%s): %w", payment.ID, payment.GatewayOrderID, err))
			continue
		}
		if res.Status.IsTerminal() {
			settled++
		}
	}

	j.logg.Info(ctx, fmt.Sprintf("payment reconcile checked=%d settled=%d failed=%d", len(rows), settled, len(multierr.Errors(errs))))
	return errs
}
