// Package webhooks receives gateway pushes. Requests are unauthenticated;
// trust comes from signature verification in the gateway adapter.
package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/Prem931993/buytown-sub000/api/responses"
	paymentsvc "github.com/Prem931993/buytown-sub000/internal/payments"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
	"github.com/Prem931993/buytown-sub000/pkg/logger"
)

const maxWebhookBody = 1 << 20

type webhookService interface {
	ParseWebhook(ctx context.Context, gateway enums.PaymentGateway, payload []byte, headers http.Header) (*paymentsvc.WebhookEvent, error)
	ApplyWebhook(ctx context.Context, gateway enums.PaymentGateway, event *paymentsvc.WebhookEvent) (*paymentsvc.Result, error)
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, gateway enums.PaymentGateway, eventID string) (bool, error)
	Release(ctx context.Context, gateway enums.PaymentGateway, eventID string) error
}

// PaymentWebhook verifies, de-duplicates and applies one gateway event.
// Replays of an already applied event answer 200 without side effects.
func PaymentWebhook(gateway enums.PaymentGateway, svc webhookService, guard webhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		event, err := svc.ParseWebhook(ctx, gateway, payload, r.Header)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"gateway": string(gateway), "event_id": event.EventID})
		}

		seen, err := guard.CheckAndMark(ctx, gateway, event.EventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook idempotency"))
			return
		}
		if seen {
			if logg != nil {
				logg.Info(ctx, "webhook.replayed")
			}
			responses.WriteSuccess(w, map[string]any{"duplicate": true})
			return
		}

		result, err := svc.ApplyWebhook(ctx, gateway, event)
		if err != nil {
			if releaseErr := guard.Release(ctx, gateway, event.EventID); releaseErr != nil && logg != nil {
				logg.Error(ctx, "webhook.release_failed", releaseErr)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithField(ctx, "applied", result.Applied), "webhook.processed")
		}
		responses.WriteSuccess(w, result)
	}
}
