package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	"github.com/Prem931993/buytown-sub000/pkg/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
	block  bool
	ctxErr error
}

func (p *recordingPublisher) Publish(ctx context.Context, evt Event) error {
	if p.block {
		<-ctx.Done()
		p.mu.Lock()
		p.ctxErr = ctx.Err()
		p.mu.Unlock()
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func sampleOrder() *models.Order {
	reason := "out of delivery area"
	return &models.Order{
		ID:              uuid.New(),
		OrderNumber:     "BYT-25-26-000000007",
		UserID:          uuid.New(),
		Status:          enums.OrderStatusRejected,
		PaymentStatus:   enums.PaymentStatusPending,
		TotalAmount:     decimal.RequireFromString("540.00"),
		RejectionReason: &reason,
	}
}

func TestDispatcherDeliversDetachedFromRequest(t *testing.T) {
	pub := &recordingPublisher{}
	d, err := NewDispatcher(pub, logger.Nop(), time.Second)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Notify(ctx, OrderEvent(enums.NotificationOrderRejected, sampleOrder()).WithActor(enums.RoleAdmin))
	d.Wait()

	if len(pub.events) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.events))
	}
	evt := pub.events[0]
	if evt.Reason != "out of delivery area" || evt.ActorRole != "admin" {
		t.Fatalf("unexpected event %+v", evt)
	}
}

func TestDispatcherTimesOutAndLogs(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	pub := &recordingPublisher{block: true}
	d, _ := NewDispatcher(pub, logg, 20*time.Millisecond)

	d.Notify(context.Background(), OrderEvent(enums.NotificationOrderCreated, sampleOrder()))
	d.Wait()

	if !errors.Is(pub.ctxErr, context.DeadlineExceeded) {
		t.Fatalf("expected publish to be bounded, got %v", pub.ctxErr)
	}
	if !strings.Contains(buf.String(), "notification dispatch failed") {
		t.Fatalf("expected failure to be logged, got %s", buf.String())
	}
}

func TestNewDispatcherRequiresPublisher(t *testing.T) {
	if _, err := NewDispatcher(nil, logger.Nop(), 0); err == nil {
		t.Fatal("expected error without publisher")
	}
}

type stubProducer struct {
	key     []byte
	value   []byte
	headers map[string]string
}

func (s *stubProducer) Publish(_ context.Context, key, value []byte, headers map[string]string) error {
	s.key, s.value, s.headers = key, value, headers
	return nil
}

func TestKafkaPublisherKeysByOrder(t *testing.T) {
	producer := &stubProducer{}
	pub, err := NewKafkaPublisher(producer)
	if err != nil {
		t.Fatalf("new kafka publisher: %v", err)
	}
	order := sampleOrder()
	if err := pub.Publish(context.Background(), OrderEvent(enums.NotificationOrderRejected, order)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if string(producer.key) != order.ID.String() {
		t.Fatalf("expected order id key, got %s", producer.key)
	}
	var decoded map[string]any
	if err := json.Unmarshal(producer.value, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded["event_type"] != "order.rejected" || decoded["order_number"] != order.OrderNumber {
		t.Fatalf("unexpected payload %v", decoded)
	}
	if producer.headers["event_type"] != "order.rejected" {
		t.Fatalf("unexpected headers %v", producer.headers)
	}
}

func TestLogPublisherWritesFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	if err := NewLogPublisher(logg).Publish(context.Background(), OrderEvent(enums.NotificationOrderCreated, sampleOrder())); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !strings.Contains(buf.String(), `"event_type":"order.created"`) {
		t.Fatalf("expected event type in log, got %s", buf.String())
	}
}
