package notify

import (
	"context"
	"time"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/pkg/logger"
	pkgEvents "refund-lifecycle-be/pkg/events"
	pktNats "refund-lifecycle-be/pkg/nats"
)

// NatsNotifier publishes staff-facing events to JetStream. A nil publisher turns
// every call into a no-op so the service runs without NATS.
type NatsNotifier struct {
	publisher *pktNats.Publisher
	logger    logger.ILogger
}

func NewNatsNotifier(publisher *pktNats.Publisher, logger logger.ILogger) *NatsNotifier {
	return &NatsNotifier{publisher: publisher, logger: logger}
}

func (n *NatsNotifier) RefundCreated(ctx context.Context, r *entity.Refund) {
	n.publish(ctx, RefundEvent(pkgEvents.RefundCreated, r, ""))
}

func (n *NatsNotifier) RefundTransitioned(ctx context.Context, r *entity.Refund, from entity.RefundStatus) {
	n.publish(ctx, RefundEvent(RefundEventType(r.Status), r, from))
}

func (n *NatsNotifier) RefundAnnotated(ctx context.Context, r *entity.Refund) {
	n.publish(ctx, RefundEvent(pkgEvents.RefundAnnotated, r, ""))
}

func (n *NatsNotifier) ProductionScheduled(ctx context.Context, item *entity.ProductionItem) {
	n.publish(ctx, ProductionEvent(pkgEvents.ProductionScheduled, item, ""))
}

func (n *NatsNotifier) ProductionAdvanced(ctx context.Context, item *entity.ProductionItem, from entity.ProductionStatus) {
	n.publish(ctx, ProductionEvent(pkgEvents.ProductionAdvanced, item, from))
}

func (n *NatsNotifier) publish(ctx context.Context, evt pkgEvents.BaseEvent) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, evt); err != nil {
		n.logger.Error("NOTIFY", "Failed to publish "+evt.Type+" event", map[string]interface{}{"error": err.Error()})
	}
}

// RefundEventType maps the status a record just entered to its event type.
func RefundEventType(status entity.RefundStatus) string {
	switch status {
	case entity.RefundStatusApproved:
		return pkgEvents.RefundApproved
	case entity.RefundStatusRejected:
		return pkgEvents.RefundRejected
	case entity.RefundStatusCompleted:
		return pkgEvents.RefundCompleted
	case entity.RefundStatusFailed:
		return pkgEvents.RefundFailed
	case entity.RefundStatusCancelled:
		return pkgEvents.RefundCancelled
	default:
		return pkgEvents.RefundTransitioned
	}
}

// RefundEvent builds the bus payload for a refund. from is empty for non-transition events.
func RefundEvent(eventType string, r *entity.Refund, from entity.RefundStatus) pkgEvents.BaseEvent {
	now := time.Now()
	data := map[string]interface{}{
		"refund_id":    r.ID.String(),
		"order_ref":    r.OrderRef,
		"order_number": r.OrderNumber,
		"customer_ref": r.CustomerRef,
		"amount":       r.RefundAmount,
		"currency":     r.Currency,
		"reason":       string(r.Reason),
		"status":       string(r.Status),
		"is_automatic": r.Automation.IsAutomatic,
		"confidence":   r.Automation.Confidence,
		"retry_count":  r.RetryCount,
		"entity_type":  "refund",
		"entity_id":    r.ID.String(),
		"occurred_at":  now,
	}
	if from != "" {
		data["from_status"] = string(from)
	}
	if r.Automation.RuleID != nil {
		data["rule_id"] = *r.Automation.RuleID
	}
	if last, err := r.Ledger.Last(); err == nil {
		data["actor"] = last.Actor
		data["description"] = last.Description
	}
	return pkgEvents.BaseEvent{Type: eventType, Data: data, OccurredAt: now}
}

func ProductionEvent(eventType string, item *entity.ProductionItem, from entity.ProductionStatus) pkgEvents.BaseEvent {
	now := time.Now()
	data := map[string]interface{}{
		"item_id":      item.ID.String(),
		"order_ref":    item.OrderRef,
		"product_name": item.ProductName,
		"priority":     string(item.Priority),
		"status":       string(item.Status),
		"entity_type":  "production_item",
		"entity_id":    item.ID.String(),
		"occurred_at":  now,
	}
	if from != "" {
		data["from_status"] = string(from)
	}
	return pkgEvents.BaseEvent{Type: eventType, Data: data, OccurredAt: now}
}
