package notify

import (
	"context"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/pkg/refund"
)

// Fanout forwards every refund notification to each notifier in order.
type Fanout []refund.Notifier

func (f Fanout) RefundCreated(ctx context.Context, r *entity.Refund) {
	for _, n := range f {
		n.RefundCreated(ctx, r)
	}
}

func (f Fanout) RefundTransitioned(ctx context.Context, r *entity.Refund, from entity.RefundStatus) {
	for _, n := range f {
		n.RefundTransitioned(ctx, r, from)
	}
}

func (f Fanout) RefundAnnotated(ctx context.Context, r *entity.Refund) {
	for _, n := range f {
		n.RefundAnnotated(ctx, r)
	}
}
