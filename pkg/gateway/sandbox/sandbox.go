package sandbox

import (
	"context"
	"sync"

	"refund-lifecycle-be/pkg/refund"
)

const providerName = "sandbox"

// Gateway is a deterministic stand-in processor for development. Amounts whose last
// two minor-unit digits are 13 fail retryably, 66 fail permanently, anything else
// succeeds. Replays of an idempotency key return the original result.
type Gateway struct {
	mu   sync.Mutex
	seen map[string]*refund.GatewayResult
}

func New() *Gateway {
	return &Gateway{seen: make(map[string]*refund.GatewayResult)}
}

func (g *Gateway) Name() string {
	return providerName
}

func (g *Gateway) ExecuteRefund(ctx context.Context, req refund.GatewayRequest) (*refund.GatewayResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &refund.GatewayError{Provider: providerName, Code: "cancelled", Message: "request cancelled", Retryable: true, Err: err}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if res, ok := g.seen[req.IdempotencyKey]; ok {
		return res, nil
	}

	switch req.Amount % 100 {
	case 13:
		return nil, &refund.GatewayError{Provider: providerName, Code: "processor_unavailable", Message: "processor temporarily unavailable", Retryable: true}
	case 66:
		return nil, &refund.GatewayError{Provider: providerName, Code: "account_closed", Message: "destination account closed"}
	}

	res := &refund.GatewayResult{TransactionRef: "sbx_" + req.IdempotencyKey}
	g.seen[req.IdempotencyKey] = res
	return res, nil
}
