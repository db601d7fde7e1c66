package midtrans

import (
	"context"
	"net/http"
	"testing"

	"refund-lifecycle-be/pkg/refund"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	param string
	req   *coreapi.RefundReq
	resp  *coreapi.RefundResponse
	err   *midtrans.Error
}

func (f *fakeAPI) RefundTransaction(param string, req *coreapi.RefundReq) (*coreapi.RefundResponse, *midtrans.Error) {
	f.param = param
	f.req = req
	return f.resp, f.err
}

func TestExecuteRefund(t *testing.T) {
	api := &fakeAPI{resp: &coreapi.RefundResponse{StatusCode: "200", TransactionID: "mt-889"}}
	g := &Gateway{api: api}

	res, err := g.ExecuteRefund(context.Background(), refund.GatewayRequest{OrderRef: "ord-1", Amount: 150000, IdempotencyKey: "rf-1-2"})
	require.NoError(t, err)
	assert.Equal(t, "mt-889", res.TransactionRef)
	assert.Equal(t, "ord-1", api.param)
	assert.Equal(t, "rf-1-2", api.req.RefundKey)
	assert.Equal(t, int64(150000), api.req.Amount)
}

func TestExecuteRefundFailures(t *testing.T) {
	tests := []struct {
		name              string
		api               *fakeAPI
		wantRetryable     bool
		wantIndeterminate bool
	}{
		{name: "server error", api: &fakeAPI{err: &midtrans.Error{StatusCode: http.StatusInternalServerError, Message: "down"}}, wantRetryable: true, wantIndeterminate: true},
		{name: "transport", api: &fakeAPI{err: &midtrans.Error{Message: "dial tcp: timeout"}}, wantRetryable: true, wantIndeterminate: true},
		{name: "throttled", api: &fakeAPI{err: &midtrans.Error{StatusCode: http.StatusTooManyRequests, Message: "slow down"}}, wantRetryable: true},
		{name: "not refundable", api: &fakeAPI{resp: &coreapi.RefundResponse{StatusCode: "412", StatusMessage: "Transaction status cannot be updated"}}},
		{name: "empty body", api: &fakeAPI{}, wantRetryable: true, wantIndeterminate: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Gateway{api: tt.api}
			_, err := g.ExecuteRefund(context.Background(), refund.GatewayRequest{GatewayRef: "txn-1", Amount: 100, IdempotencyKey: "k"})
			var gwErr *refund.GatewayError
			require.ErrorAs(t, err, &gwErr)
			assert.Equal(t, tt.wantRetryable, gwErr.Retryable)
			assert.Equal(t, tt.wantIndeterminate, gwErr.Indeterminate)
			assert.Equal(t, "midtrans", gwErr.Provider)
		})
	}
}
