package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/pkg/logger"
	"refund-lifecycle-be/internal/pkg/mailer"
	pkgEvents "refund-lifecycle-be/pkg/events"
	"refund-lifecycle-be/pkg/workflow"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRefund(status entity.RefundStatus) *entity.Refund {
	at := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)
	rule := "duplicate-order"
	return &entity.Refund{
		ID:            uuid.New(),
		OrderRef:      "ord-1",
		OrderNumber:   "ORD-1",
		CustomerRef:   "cus-1",
		CustomerName:  "Dana",
		CustomerEmail: "dana@example.com",
		RefundAmount:  2390,
		Currency:      "USD",
		Reason:        entity.RefundReasonDuplicateOrder,
		Status:        status,
		Ledger:        workflow.Seed(entity.RefundStatusPending, at, "Refund requested", "cus-1"),
		Automation:    entity.RefundAutomation{IsAutomatic: true, RuleID: &rule, Confidence: 99},
		Version:       2,
	}
}

func receive(t *testing.T, ch <-chan *message.Message) (RefundMessage, bool) {
	t.Helper()
	select {
	case msg := <-ch:
		msg.Ack()
		var m RefundMessage
		require.NoError(t, json.Unmarshal(msg.Payload, &m))
		return m, true
	case <-time.After(200 * time.Millisecond):
		return RefundMessage{}, false
	}
}

func TestBusNotifierTopics(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })
	ctx := context.Background()

	created, err := pubSub.Subscribe(ctx, TopicRefundCreated)
	require.NoError(t, err)
	approved, err := pubSub.Subscribe(ctx, TopicRefundApproved)
	require.NoError(t, err)

	n := NewBusNotifier(pubSub, logger.NewNopLogger())
	r := sampleRefund(entity.RefundStatusPending)

	n.RefundCreated(ctx, r)
	m, ok := receive(t, created)
	require.True(t, ok)
	assert.Equal(t, r.ID, m.RefundId)
	assert.Equal(t, int64(2), m.Version)

	r.Status = entity.RefundStatusApproved
	n.RefundTransitioned(ctx, r, entity.RefundStatusPending)
	_, ok = receive(t, approved)
	assert.True(t, ok, "fresh approval is published")

	n.RefundTransitioned(ctx, r, entity.RefundStatusFailed)
	_, ok = receive(t, approved)
	assert.False(t, ok, "re-approval from a retry is not published")

	r.Status = entity.RefundStatusRejected
	n.RefundTransitioned(ctx, r, entity.RefundStatusPending)
	_, ok = receive(t, approved)
	assert.False(t, ok)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.RefundUpdate
	to   []string
	err  error
}

func (m *recordingMailer) SendRefundUpdate(toEmail string, update mailer.RefundUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, toEmail)
	m.sent = append(m.sent, update)
	return m.err
}

func TestEmailNotifier(t *testing.T) {
	ctx := context.Background()

	t.Run("customer-visible statuses are mailed", func(t *testing.T) {
		m := &recordingMailer{}
		n := NewEmailNotifier(m, logger.NewNopLogger(), false)

		n.RefundTransitioned(ctx, sampleRefund(entity.RefundStatusCompleted), entity.RefundStatusApproved)
		n.RefundTransitioned(ctx, sampleRefund(entity.RefundStatusProcessing), entity.RefundStatusPending)
		n.RefundTransitioned(ctx, sampleRefund(entity.RefundStatusFailed), entity.RefundStatusApproved)

		require.Len(t, m.sent, 1)
		assert.Equal(t, "dana@example.com", m.to[0])
		assert.Equal(t, "completed", m.sent[0].Status)
		assert.Equal(t, int64(2390), m.sent[0].Amount)
	})

	t.Run("no address no mail", func(t *testing.T) {
		m := &recordingMailer{}
		n := NewEmailNotifier(m, logger.NewNopLogger(), false)
		r := sampleRefund(entity.RefundStatusApproved)
		r.CustomerEmail = ""

		n.RefundTransitioned(ctx, r, entity.RefundStatusPending)
		assert.Empty(t, m.sent)
	})

	t.Run("send failure does not reach the caller", func(t *testing.T) {
		m := &recordingMailer{err: errors.New("smtp down")}
		n := NewEmailNotifier(m, logger.NewNopLogger(), false)

		assert.NotPanics(t, func() {
			n.RefundTransitioned(ctx, sampleRefund(entity.RefundStatusRejected), entity.RefundStatusPending)
		})
		assert.Len(t, m.sent, 1)
	})
}

func TestRefundEvent(t *testing.T) {
	r := sampleRefund(entity.RefundStatusApproved)

	evt := RefundEvent(RefundEventType(r.Status), r, entity.RefundStatusPending)

	assert.Equal(t, pkgEvents.RefundApproved, evt.EventType())
	assert.Equal(t, "pending", evt.Payload()["from_status"])
	assert.Equal(t, "duplicate-order", evt.Payload()["rule_id"])
	assert.Equal(t, "cus-1", evt.Payload()["actor"])
	assert.Equal(t, int64(2390), evt.Payload()["amount"])

	assert.Equal(t, pkgEvents.RefundTransitioned, RefundEventType(entity.RefundStatusProcessing))
	assert.Equal(t, pkgEvents.RefundFailed, RefundEventType(entity.RefundStatusFailed))

	noFrom := RefundEvent(pkgEvents.RefundCreated, r, "")
	assert.NotContains(t, noFrom.Payload(), "from_status")
}

func TestNatsNotifierWithoutPublisher(t *testing.T) {
	n := NewNatsNotifier(nil, logger.NewNopLogger())
	ctx := context.Background()

	assert.NotPanics(t, func() {
		n.RefundCreated(ctx, sampleRefund(entity.RefundStatusPending))
		n.ProductionScheduled(ctx, &entity.ProductionItem{ID: uuid.New(), Status: entity.ProductionStatusQueued})
	})
}
