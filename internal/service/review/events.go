package review

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Additional-Code/creditdesk/internal/entity"
	"github.com/Additional-Code/creditdesk/internal/messaging"
)

// Event types published on the review topic.
const (
	EventStatusChanged   = "review.status_changed"
	EventOrderSettled    = "review.order_settled"
	EventInvoiceAttached = "review.invoice_attached"
)

// Event is the payload of every review event. Settlement fields are only
// set on review.order_settled.
type Event struct {
	ID         string              `json:"id"`
	Type       string              `json:"type"`
	OrderID    string              `json:"orderId"`
	From       entity.ReviewStatus `json:"from,omitempty"`
	To         entity.ReviewStatus `json:"to,omitempty"`
	AccountID  string              `json:"accountId,omitempty"`
	Amount     *decimal.Decimal    `json:"amount,omitempty"`
	Balance    *decimal.Decimal    `json:"balance,omitempty"`
	OccurredAt time.Time           `json:"occurredAt"`
}

func newEvent(eventType, orderID string, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OrderID:    orderID,
		OccurredAt: at,
	}
}

// publish is best effort: the store write already succeeded, so a bus
// failure is logged and never reported as an operation failure.
func (s *Service) publish(ctx context.Context, event Event) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal review event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	headers := map[string]string{
		messaging.HeaderEventType: event.Type,
		"event-id":                event.ID,
	}
	if err := s.publisher.Publish(ctx, []byte(event.OrderID), payload, headers); err != nil {
		s.logger.Error("publish review event",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}
