package refund

import (
	"context"
	"fmt"
	"time"

	"refund-lifecycle-be/internal/entity"
)

// GatewayRequest is the money-movement order handed to an adapter.
type GatewayRequest struct {
	RefundID               string
	OrderRef               string
	OrderNumber            string
	Amount                 int64
	Currency               string
	Reason                 entity.RefundReason
	Method                 entity.RefundMethod
	GatewayRef             string
	OriginalTransactionRef string

	// IdempotencyKey changes only after a gateway answer that definitely moved no
	// money, so a resent call cannot refund twice.
	IdempotencyKey string
}

type GatewayResult struct {
	TransactionRef string

	// Pending means the gateway accepted the refund but has not settled it yet. The
	// record stays approved until the confirmation arrives through Complete.
	Pending bool
}

// Gateway executes refunds against a payment processor. Failures should be returned
// as *GatewayError so the retry policy can tell transient from permanent ones.
type Gateway interface {
	Name() string
	ExecuteRefund(ctx context.Context, req GatewayRequest) (*GatewayResult, error)
}

// NewGatewayRequest derives the adapter request for the current attempt of r.
func NewGatewayRequest(r *entity.Refund) GatewayRequest {
	req := GatewayRequest{
		RefundID:       r.ID.String(),
		OrderRef:       r.OrderRef,
		OrderNumber:    r.OrderNumber,
		Amount:         r.RefundAmount,
		Currency:       r.Currency,
		Reason:         r.Reason,
		Method:         r.Method,
		IdempotencyKey: fmt.Sprintf("%s-%d", r.ID, r.AttemptSeq),
	}
	if r.GatewayRef != nil {
		req.GatewayRef = *r.GatewayRef
	}
	if r.OriginalTransactionRef != nil {
		req.OriginalTransactionRef = *r.OriginalTransactionRef
	}
	return req
}

// CallWithTimeout runs an adapter call bounded by timeout. SDKs that take no context
// keep running after the deadline; their result is discarded and the attempt is
// reported as a retryable, indeterminate timeout.
func CallWithTimeout(ctx context.Context, provider string, timeout time.Duration, call func(ctx context.Context) (*GatewayResult, error)) (*GatewayResult, error) {
	if timeout <= 0 {
		return call(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		res *GatewayResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := call(ctx)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, &GatewayError{
			Provider:      provider,
			Code:          "timeout",
			Message:       fmt.Sprintf("no response within %s", timeout),
			Retryable:     true,
			Indeterminate: true,
			Err:           ctx.Err(),
		}
	}
}

// RetryPolicy bounds automatic re-submission of retryable gateway failures.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Backoff: time.Minute, MaxBackoff: time.Hour}
}

// Exhausted reports whether a record that has been retried retryCount times may not
// be retried again.
func (p RetryPolicy) Exhausted(retryCount int) bool {
	return retryCount >= p.MaxRetries
}

// Delay is the wait before retry number retryCount+1: Backoff doubled per prior retry,
// capped at MaxBackoff.
func (p RetryPolicy) Delay(retryCount int) time.Duration {
	d := p.Backoff
	for i := 0; i < retryCount; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}
