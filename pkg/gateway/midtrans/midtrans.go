package midtrans

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"refund-lifecycle-be/pkg/refund"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

const providerName = "midtrans"

type refundAPI interface {
	RefundTransaction(param string, req *coreapi.RefundReq) (*coreapi.RefundResponse, *midtrans.Error)
}

// Gateway refunds Midtrans Core API transactions.
type Gateway struct {
	api refundAPI
}

// New builds a gateway for serverKey. env is "production" or anything else for sandbox.
func New(serverKey, env string) *Gateway {
	midEnv := midtrans.Sandbox
	if env == "production" {
		midEnv = midtrans.Production
	}
	var c coreapi.Client
	c.New(serverKey, midEnv)
	return &Gateway{api: &c}
}

func (g *Gateway) Name() string {
	return providerName
}

func (g *Gateway) ExecuteRefund(_ context.Context, req refund.GatewayRequest) (*refund.GatewayResult, error) {
	param := req.GatewayRef
	if param == "" {
		param = req.OrderRef
	}
	if param == "" {
		return nil, &refund.GatewayError{Provider: providerName, Code: "missing_reference", Message: "no order or transaction reference"}
	}

	resp, midErr := g.api.RefundTransaction(param, &coreapi.RefundReq{
		RefundKey: req.IdempotencyKey,
		Amount:    req.Amount,
		Reason:    string(req.Reason),
	})
	if midErr != nil {
		return nil, classify(midErr.GetStatusCode(), midErr.GetMessage(), midErr)
	}
	if resp == nil {
		return nil, &refund.GatewayError{Provider: providerName, Code: "empty_response", Message: "no response body", Retryable: true, Indeterminate: true}
	}
	if !strings.HasPrefix(resp.StatusCode, "2") {
		code, _ := strconv.Atoi(resp.StatusCode)
		return nil, classify(code, resp.StatusMessage, nil)
	}

	ref := resp.TransactionID
	if ref == "" {
		ref = req.IdempotencyKey
	}
	return &refund.GatewayResult{TransactionRef: ref}, nil
}

// classify marks transport failures, throttling and server errors as retryable.
// Transport and server errors leave the outcome unknown.
func classify(status int, message string, err error) *refund.GatewayError {
	retryable := status == 0 || status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
	gwErr := &refund.GatewayError{
		Provider:      providerName,
		Code:          strconv.Itoa(status),
		Message:       message,
		Retryable:     retryable,
		Indeterminate: status == 0 || status >= http.StatusInternalServerError,
	}
	if err != nil {
		gwErr.Err = err
	}
	return gwErr
}
