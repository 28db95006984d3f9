package review

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/creditdesk/internal/config"
	"github.com/Additional-Code/creditdesk/internal/messaging"
	reviewsvc "github.com/Additional-Code/creditdesk/internal/service/review"
	"github.com/Additional-Code/creditdesk/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/creditdesk/worker/review")

// Module registers review event handlers.
var Module = fx.Module("worker_review",
	fx.Provide(
		fx.Annotate(
			NewEventHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// OrderInvalidator drops cached order details.
type OrderInvalidator interface {
	InvalidateOrder(ctx context.Context, orderID string) error
}

// NewEventHandler consumes review events: cached details of the touched
// order are dropped and the change is written to the audit log.
func NewEventHandler(svc *reviewsvc.Service, logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: Handle(svc, logger.Named("audit")),
	}
}

// Handle builds the message handler around inv.
func Handle(inv OrderInvalidator, logger *zap.Logger) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.review.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.String("review.event", msg.Headers[messaging.HeaderEventType]),
		))
		defer span.End()

		var event reviewsvc.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			// Poison message; committing it keeps the partition moving.
			logger.Error("failed to decode review event", zap.Int64("offset", msg.Offset), zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return nil
		}
		if event.OrderID == "" {
			logger.Warn("review event without order id", zap.String("event_id", event.ID))
			return nil
		}

		if err := inv.InvalidateOrder(ctx, event.OrderID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "cache invalidation failed")
			return fmt.Errorf("invalidate order %s: %w", event.OrderID, err)
		}

		fields := []zap.Field{
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Time("occurred_at", event.OccurredAt),
		}
		switch event.Type {
		case reviewsvc.EventStatusChanged:
			fields = append(fields, zap.String("from", string(event.From)), zap.String("to", string(event.To)))
		case reviewsvc.EventOrderSettled:
			fields = append(fields, zap.String("account_id", event.AccountID))
			if event.Amount != nil {
				fields = append(fields, zap.String("amount", event.Amount.String()))
			}
			if event.Balance != nil {
				fields = append(fields, zap.String("balance", event.Balance.String()))
			}
		}
		logger.Info("review event processed", fields...)
		return nil
	}
}
