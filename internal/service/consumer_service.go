package service

import (
	"context"
	"encoding/json"
	"errors"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/pkg/logger"
	"refund-lifecycle-be/pkg/notify"
	"refund-lifecycle-be/pkg/refund"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService runs the follow-up work queued on the in-process bus: rule
// evaluation for new requests and gateway execution for fresh approvals.
type consumerService struct {
	subscriber message.Subscriber
	processor  *refund.Processor
	logger     logger.ILogger
}

func NewConsumerService(subscriber message.Subscriber, processor *refund.Processor, logger logger.ILogger) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		processor:  processor,
		logger:     logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	created, err := cs.subscriber.Subscribe(ctx, notify.TopicRefundCreated)
	if err != nil {
		return err
	}
	approved, err := cs.subscriber.Subscribe(ctx, notify.TopicRefundApproved)
	if err != nil {
		return err
	}

	go func() {
		for msg := range created {
			cs.processMessage(ctx, msg, cs.evaluate)
		}
	}()
	go func() {
		for msg := range approved {
			cs.processMessage(ctx, msg, cs.execute)
		}
	}()
	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message, handle func(context.Context, notify.RefundMessage) error) {
	var payload notify.RefundMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("AUTOMATION", "Failed to unmarshal bus message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite redelivery
		return
	}

	if err := handle(ctx, payload); err != nil {
		cs.logger.Error("AUTOMATION", "Bus message handling failed", map[string]interface{}{
			"message_id": msg.UUID,
			"refund_id":  payload.RefundId.String(),
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}
	msg.Ack()
}

func (cs *consumerService) evaluate(ctx context.Context, m notify.RefundMessage) error {
	_, err := cs.processor.Evaluate(ctx, m.RefundId)
	if errors.Is(err, refund.ErrNotFound) || errors.Is(err, refund.ErrConcurrentModification) {
		// Gone, or a concurrent writer already moved it on.
		return nil
	}
	return err
}

func (cs *consumerService) execute(ctx context.Context, m notify.RefundMessage) error {
	_, err := cs.processor.Execute(ctx, m.RefundId, entity.SystemActor)

	var (
		gwErr *refund.GatewayError
		trErr *refund.InvalidTransitionError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &gwErr) && !errors.Is(err, refund.ErrConcurrentModification):
		// Recorded on the ledger as a failed transition; retries are the scheduler's job.
		return nil
	case errors.As(err, &trErr), errors.Is(err, refund.ErrNotFound), errors.Is(err, refund.ErrConcurrentModification):
		return nil
	}
	return err
}
