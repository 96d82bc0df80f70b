package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	paymentsvc "github.com/Prem931993/buytown-sub000/internal/payments"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

type fakeWebhookService struct {
	event    *paymentsvc.WebhookEvent
	parseErr error
	applyErr error
	applied  int
}

func (f *fakeWebhookService) ParseWebhook(ctx context.Context, gateway enums.PaymentGateway, payload []byte, headers http.Header) (*paymentsvc.WebhookEvent, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.event, nil
}

func (f *fakeWebhookService) ApplyWebhook(ctx context.Context, gateway enums.PaymentGateway, event *paymentsvc.WebhookEvent) (*paymentsvc.Result, error) {
	f.applied++
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	return &paymentsvc.Result{Success: true, Status: event.Status, OrderID: uuid.New(), Applied: true}, nil
}

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{data: make(map[string]string)}
}

func (s *inMemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *inMemoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("bt:idempotency:%s:%s", scope, id)
}

func (s *inMemoryStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func newGuard(t *testing.T) *paymentsvc.WebhookGuard {
	t.Helper()
	guard, err := paymentsvc.NewWebhookGuard(newInMemoryStore(), time.Hour)
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	return guard
}

func post(handler http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/phonepe", bytes.NewReader([]byte(`{"response":"e30="}`)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPaymentWebhookAppliesOnceAndIgnoresReplay(t *testing.T) {
	svc := &fakeWebhookService{event: &paymentsvc.WebhookEvent{
		EventID:        "txn:PAYMENT_SUCCESS:T1",
		GatewayOrderID: "BT-1",
		Status:         enums.PaymentAttemptPaid,
	}}
	handler := PaymentWebhook(enums.PaymentGatewayPhonePe, svc, newGuard(t), nil)

	if rec := post(handler); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	rec := post(handler)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.applied != 1 {
		t.Fatalf("expected one apply, got %d", svc.applied)
	}

	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode replay body: %v", err)
	}
	if body.Data["duplicate"] != true {
		t.Fatalf("expected duplicate marker, got %v", body.Data)
	}
}

func TestPaymentWebhookInvalidSignature(t *testing.T) {
	svc := &fakeWebhookService{parseErr: pkgerrors.New(pkgerrors.CodeInvalidSignature, "verify phonepe signature")}
	handler := PaymentWebhook(enums.PaymentGatewayPhonePe, svc, newGuard(t), nil)

	rec := post(handler)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid signature, got %d", rec.Code)
	}
	if svc.applied != 0 {
		t.Fatal("service must not apply an unverified event")
	}
}

func TestPaymentWebhookReleasesGuardOnFailure(t *testing.T) {
	svc := &fakeWebhookService{
		event:    &paymentsvc.WebhookEvent{EventID: "evt_1", GatewayOrderID: "cs_1", Status: enums.PaymentAttemptFailed},
		applyErr: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "apply webhook"),
	}
	handler := PaymentWebhook(enums.PaymentGatewayStripe, svc, newGuard(t), nil)

	if rec := post(handler); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	svc.applyErr = nil
	if rec := post(handler); rec.Code != http.StatusOK {
		t.Fatalf("expected retry to be processed, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.applied != 2 {
		t.Fatalf("expected retry to reach the service, got %d applies", svc.applied)
	}
}

func TestPaymentWebhookRequiresDeps(t *testing.T) {
	rec := post(PaymentWebhook(enums.PaymentGatewayStripe, nil, nil, nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without service, got %d", rec.Code)
	}
}
