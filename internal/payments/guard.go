package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Prem931993/buytown-sub000/pkg/enums"
	"github.com/Prem931993/buytown-sub000/pkg/redis"
)

// WebhookGuard marks delivered webhook events so replays short-circuit
// before any database work.
type WebhookGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewWebhookGuard(store redis.IdempotencyStore, ttl time.Duration) (*WebhookGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &WebhookGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark reports whether the event was already seen, marking it if not.
func (g *WebhookGuard) CheckAndMark(ctx context.Context, gateway enums.PaymentGateway, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	set, err := g.store.SetNX(ctx, g.key(gateway, eventID), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set webhook guard: %w", err)
	}
	return !set, nil
}

// Release forgets the event so a gateway retry is processed again.
func (g *WebhookGuard) Release(ctx context.Context, gateway enums.PaymentGateway, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.key(gateway, eventID))
}

func (g *WebhookGuard) key(gateway enums.PaymentGateway, eventID string) string {
	return g.store.IdempotencyKey("webhook:"+string(gateway), eventID)
}
