package sandbox

import (
	"context"
	"testing"

	"refund-lifecycle-be/pkg/refund"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteRefund(t *testing.T) {
	tests := []struct {
		name          string
		amount        int64
		wantErr       bool
		wantRetryable bool
	}{
		{name: "plain amount succeeds", amount: 2390},
		{name: "ending in 13 is transient", amount: 1013, wantErr: true, wantRetryable: true},
		{name: "ending in 66 is permanent", amount: 4566, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			res, err := g.ExecuteRefund(context.Background(), refund.GatewayRequest{Amount: tt.amount, Currency: "USD", IdempotencyKey: "k-" + tt.name})
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "sbx_k-"+tt.name, res.TransactionRef)
				return
			}
			var gwErr *refund.GatewayError
			require.ErrorAs(t, err, &gwErr)
			assert.Equal(t, tt.wantRetryable, gwErr.Retryable)
			assert.Equal(t, "sandbox", gwErr.Provider)
		})
	}
}

func TestReplayReturnsOriginalResult(t *testing.T) {
	g := New()
	ctx := context.Background()
	req := refund.GatewayRequest{Amount: 500, Currency: "USD", IdempotencyKey: "rf-1-0"}

	first, err := g.ExecuteRefund(ctx, req)
	require.NoError(t, err)
	second, err := g.ExecuteRefund(ctx, req)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "sandbox", g.Name())
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().ExecuteRefund(ctx, refund.GatewayRequest{Amount: 100, IdempotencyKey: "k"})
	var gwErr *refund.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.True(t, gwErr.Retryable)
	assert.ErrorIs(t, err, context.Canceled)
}
