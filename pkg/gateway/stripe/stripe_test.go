package stripe

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/pkg/refund"

	stripego "github.com/stripe/stripe-go/v83"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteRefund(t *testing.T) {
	var got *stripego.RefundParams
	g := &Gateway{create: func(params *stripego.RefundParams) (*stripego.Refund, error) {
		got = params
		return &stripego.Refund{ID: "re_123", Status: stripego.RefundStatusSucceeded}, nil
	}}

	res, err := g.ExecuteRefund(context.Background(), refund.GatewayRequest{
		RefundID:               "rf-1",
		OrderRef:               "ord-1",
		Amount:                 2390,
		Reason:                 entity.RefundReasonDuplicateOrder,
		OriginalTransactionRef: "pi_abc",
		IdempotencyKey:         "rf-1-0",
	})
	require.NoError(t, err)
	assert.Equal(t, "re_123", res.TransactionRef)
	assert.Equal(t, "pi_abc", *got.PaymentIntent)
	assert.Equal(t, int64(2390), *got.Amount)
	assert.Equal(t, "duplicate", *got.Reason)
	assert.Equal(t, "rf-1-0", *got.IdempotencyKey)
	assert.False(t, res.Pending)
}

func TestUnsettledRefundIsPending(t *testing.T) {
	for _, status := range []stripego.RefundStatus{stripego.RefundStatusPending, stripego.RefundStatusRequiresAction} {
		t.Run(string(status), func(t *testing.T) {
			g := &Gateway{create: func(*stripego.RefundParams) (*stripego.Refund, error) {
				return &stripego.Refund{ID: "re_77", Status: status}, nil
			}}
			res, err := g.ExecuteRefund(context.Background(), refund.GatewayRequest{GatewayRef: "pi_1", Amount: 100, IdempotencyKey: "k"})
			require.NoError(t, err)
			assert.True(t, res.Pending)
			assert.Equal(t, "re_77", res.TransactionRef)
		})
	}
}

func TestExecuteRefundFailures(t *testing.T) {
	tests := []struct {
		name              string
		res               *stripego.Refund
		err               error
		wantRetryable     bool
		wantIndeterminate bool
	}{
		{name: "rate limited", err: &stripego.Error{HTTPStatusCode: http.StatusTooManyRequests, Msg: "slow down"}, wantRetryable: true},
		{name: "server error", err: &stripego.Error{HTTPStatusCode: http.StatusBadGateway, Msg: "upstream"}, wantRetryable: true, wantIndeterminate: true},
		{name: "card declined", err: &stripego.Error{HTTPStatusCode: http.StatusPaymentRequired, Code: "charge_already_refunded", Msg: "already refunded"}},
		{name: "transport", err: errors.New("connection reset"), wantRetryable: true, wantIndeterminate: true},
		{name: "refund failed", res: &stripego.Refund{ID: "re_9", Status: stripego.RefundStatusFailed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Gateway{create: func(*stripego.RefundParams) (*stripego.Refund, error) { return tt.res, tt.err }}
			_, err := g.ExecuteRefund(context.Background(), refund.GatewayRequest{GatewayRef: "pi_1", Amount: 100, IdempotencyKey: "k"})
			var gwErr *refund.GatewayError
			require.ErrorAs(t, err, &gwErr)
			assert.Equal(t, tt.wantRetryable, gwErr.Retryable)
			assert.Equal(t, tt.wantIndeterminate, gwErr.Indeterminate)
			assert.Equal(t, "stripe", gwErr.Provider)
		})
	}
}

func TestMissingPaymentIntent(t *testing.T) {
	g := &Gateway{create: func(*stripego.RefundParams) (*stripego.Refund, error) {
		t.Fatal("no call expected")
		return nil, nil
	}}
	_, err := g.ExecuteRefund(context.Background(), refund.GatewayRequest{OrderRef: "ord-1", Amount: 100})
	var gwErr *refund.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "missing_reference", gwErr.Code)
	assert.False(t, gwErr.Retryable)
}
