package stripe

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/pkg/refund"

	stripego "github.com/stripe/stripe-go/v83"
	stripeRefund "github.com/stripe/stripe-go/v83/refund"
)

const providerName = "stripe"

// Gateway refunds Stripe PaymentIntents.
type Gateway struct {
	create func(params *stripego.RefundParams) (*stripego.Refund, error)
}

func New(secretKey string) *Gateway {
	stripego.Key = secretKey
	return &Gateway{create: stripeRefund.New}
}

func (g *Gateway) Name() string {
	return providerName
}

func (g *Gateway) ExecuteRefund(_ context.Context, req refund.GatewayRequest) (*refund.GatewayResult, error) {
	intent := req.OriginalTransactionRef
	if intent == "" {
		intent = req.GatewayRef
	}
	if intent == "" {
		return nil, &refund.GatewayError{Provider: providerName, Code: "missing_reference", Message: "no payment intent for order " + req.OrderRef}
	}

	params := &stripego.RefundParams{
		PaymentIntent: stripego.String(intent),
		Amount:        stripego.Int64(req.Amount),
		Reason:        stripego.String(reasonFor(req.Reason)),
	}
	params.SetIdempotencyKey(req.IdempotencyKey)
	params.AddMetadata("refund_id", req.RefundID)
	params.AddMetadata("order_ref", req.OrderRef)

	res, err := g.create(params)
	if err != nil {
		return nil, classify(err)
	}
	if res.Status == stripego.RefundStatusFailed || res.Status == stripego.RefundStatusCanceled {
		return nil, &refund.GatewayError{
			Provider: providerName,
			Code:     string(res.Status),
			Message:  "refund " + res.ID + " was " + string(res.Status),
		}
	}
	pending := res.Status == stripego.RefundStatusPending || res.Status == stripego.RefundStatusRequiresAction
	return &refund.GatewayResult{TransactionRef: res.ID, Pending: pending}, nil
}

func reasonFor(r entity.RefundReason) string {
	switch r {
	case entity.RefundReasonDuplicateOrder:
		return "duplicate"
	case entity.RefundReasonFraud:
		return "fraudulent"
	default:
		return "requested_by_customer"
	}
}

func classify(err error) *refund.GatewayError {
	var stripeErr *stripego.Error
	if !errors.As(err, &stripeErr) {
		return &refund.GatewayError{Provider: providerName, Message: err.Error(), Retryable: true, Indeterminate: true, Err: err}
	}
	status := stripeErr.HTTPStatusCode
	return &refund.GatewayError{
		Provider:      providerName,
		Code:          strings.TrimSpace(string(stripeErr.Code)),
		Message:       stripeErr.Msg,
		Retryable:     status == 0 || status == http.StatusTooManyRequests || status >= http.StatusInternalServerError,
		Indeterminate: status == 0 || status >= http.StatusInternalServerError,
		Err:           err,
	}
}
