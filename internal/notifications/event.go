package notifications

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
)

// Event is the payload fanned out to admins, customers and delivery staff.
type Event struct {
	ID               uuid.UUID               `json:"event_id"`
	Type             enums.NotificationEvent `json:"event_type"`
	OrderID          uuid.UUID               `json:"order_id"`
	OrderNumber      string                  `json:"order_number"`
	UserID           uuid.UUID               `json:"user_id"`
	Status           enums.OrderStatus       `json:"status"`
	PaymentStatus    enums.PaymentStatus     `json:"payment_status"`
	TotalAmount      decimal.Decimal         `json:"total_amount"`
	DeliveryPersonID *uuid.UUID              `json:"delivery_person_id,omitempty"`
	ActorRole        string                  `json:"actor_role,omitempty"`
	Reason           string                  `json:"reason,omitempty"`
	OccurredAt       time.Time               `json:"occurred_at"`
}

// OrderEvent snapshots order into an event of the given type.
func OrderEvent(eventType enums.NotificationEvent, order *models.Order) Event {
	evt := Event{
		ID:               uuid.New(),
		Type:             eventType,
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		UserID:           order.UserID,
		Status:           order.Status,
		PaymentStatus:    order.PaymentStatus,
		TotalAmount:      order.TotalAmount,
		DeliveryPersonID: order.DeliveryPersonID,
		OccurredAt:       time.Now().UTC(),
	}
	switch {
	case order.RejectionReason != nil:
		evt.Reason = *order.RejectionReason
	case order.CancellationReason != nil:
		evt.Reason = *order.CancellationReason
	}
	return evt
}

// WithActor records which role triggered the event.
func (e Event) WithActor(role enums.Role) Event {
	e.ActorRole = string(role)
	return e
}
