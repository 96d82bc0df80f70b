package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/Prem931993/buytown-sub000/pkg/logger"
)

// Publisher delivers one event to a transport.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// LogPublisher writes events to the structured log. It is the default when no
// broker is configured.
type LogPublisher struct {
	logg *logger.Logger
}

func NewLogPublisher(logg *logger.Logger) *LogPublisher {
	return &LogPublisher{logg: logg}
}

func (p *LogPublisher) Publish(ctx context.Context, evt Event) error {
	if p.logg == nil {
		return nil
	}
	ctx = p.logg.WithFields(ctx, attributes(evt))
	p.logg.Info(ctx, "order notification")
	return nil
}

type topicPublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// PubSubPublisher publishes events to a Pub/Sub topic.
type PubSubPublisher struct {
	topic topicPublisher
}

func NewPubSubPublisher(topic *pubsub.Publisher) (*PubSubPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub publisher required")
	}
	return &PubSubPublisher{topic: topic}, nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:        data,
		Attributes:  stringAttributes(evt),
		OrderingKey: evt.OrderID.String(),
	})
	if result == nil {
		return errors.New("publish result is nil")
	}
	_, err = result.Get(ctx)
	return err
}

type messageProducer interface {
	Publish(ctx context.Context, key, value []byte, headers map[string]string) error
}

// KafkaPublisher publishes events keyed by order id.
type KafkaPublisher struct {
	producer messageProducer
}

func NewKafkaPublisher(producer messageProducer) (*KafkaPublisher, error) {
	if producer == nil {
		return nil, errors.New("kafka producer required")
	}
	return &KafkaPublisher{producer: producer}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return p.producer.Publish(ctx, []byte(evt.OrderID.String()), data, stringAttributes(evt))
}

func attributes(evt Event) map[string]any {
	fields := map[string]any{
		"event_id":       evt.ID.String(),
		"event_type":     string(evt.Type),
		"order_id":       evt.OrderID.String(),
		"order_number":   evt.OrderNumber,
		"status":         string(evt.Status),
		"payment_status": string(evt.PaymentStatus),
	}
	if evt.ActorRole != "" {
		fields["actor_role"] = evt.ActorRole
	}
	if evt.Reason != "" {
		fields["reason"] = evt.Reason
	}
	return fields
}

func stringAttributes(evt Event) map[string]string {
	return map[string]string{
		"event_id":    evt.ID.String(),
		"event_type":  string(evt.Type),
		"order_id":    evt.OrderID.String(),
		"occurred_at": evt.OccurredAt.Format(time.RFC3339Nano),
	}
}
