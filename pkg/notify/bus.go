package notify

import (
	"context"
	"encoding/json"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// In-process topics that drive follow-up work.
const (
	TopicRefundCreated  = "refund.created"
	TopicRefundApproved = "refund.approved"
)

// RefundMessage is the payload on the in-process topics.
type RefundMessage struct {
	RefundId uuid.UUID `json:"refund_id"`
	Version  int64     `json:"version"`
}

// BusNotifier feeds the in-process bus: new requests are queued for automation and
// fresh approvals for execution. Re-approvals from a retry are executed by the
// retry itself and are not published.
type BusNotifier struct {
	publisher message.Publisher
	logger    logger.ILogger
}

func NewBusNotifier(publisher message.Publisher, logger logger.ILogger) *BusNotifier {
	return &BusNotifier{publisher: publisher, logger: logger}
}

func (n *BusNotifier) RefundCreated(_ context.Context, r *entity.Refund) {
	n.publish(TopicRefundCreated, r)
}

func (n *BusNotifier) RefundTransitioned(_ context.Context, r *entity.Refund, from entity.RefundStatus) {
	if r.Status == entity.RefundStatusApproved && from != entity.RefundStatusFailed {
		n.publish(TopicRefundApproved, r)
	}
}

func (n *BusNotifier) RefundAnnotated(context.Context, *entity.Refund) {}

func (n *BusNotifier) publish(topic string, r *entity.Refund) {
	payload, err := json.Marshal(RefundMessage{RefundId: r.ID, Version: r.Version})
	if err != nil {
		n.logger.Error("NOTIFY", "Failed to marshal bus message", map[string]interface{}{"error": err.Error()})
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := n.publisher.Publish(topic, msg); err != nil {
		n.logger.Error("NOTIFY", "Failed to publish to "+topic, map[string]interface{}{
			"refund_id": r.ID.String(),
			"error":     err.Error(),
		})
	}
}
