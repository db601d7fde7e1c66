package refund_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/pkg/logger"
	"refund-lifecycle-be/internal/repository/contract"
	"refund-lifecycle-be/internal/repository/memory"
	"refund-lifecycle-be/pkg/refund"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// stepClock advances one second on every read so ledger entries are strictly ordered.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: epoch}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// scriptedGateway returns queued errors first and succeeds once the queue is empty.
type scriptedGateway struct {
	mu       sync.Mutex
	failures []error
	calls    []refund.GatewayRequest
}

func (g *scriptedGateway) Name() string {
	return "scripted"
}

func (g *scriptedGateway) ExecuteRefund(_ context.Context, req refund.GatewayRequest) (*refund.GatewayResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if len(g.failures) > 0 {
		err := g.failures[0]
		g.failures = g.failures[1:]
		return nil, err
	}
	return &refund.GatewayResult{TransactionRef: "txn-" + req.IdempotencyKey}, nil
}

func (g *scriptedGateway) failWith(errs ...error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures = append(g.failures, errs...)
}

func retryableFailure() error {
	return &refund.GatewayError{Provider: "scripted", Code: "unavailable", Message: "try later", Retryable: true}
}

type fixture struct {
	repo      *memory.RefundRepository
	directory *memory.Directory
	gateway   *scriptedGateway
	clock     *stepClock
	processor *refund.Processor
}

// newFixture seeds a directory and wires a processor over a memory store. wrap, when
// set, decorates the store the processor writes through.
func newFixture(t *testing.T, wrap func(*memory.RefundRepository) contract.RefundRepository, opts ...refund.Option) *fixture {
	t.Helper()
	f := &fixture{
		repo:      memory.NewRefundRepository(),
		directory: memory.NewDirectory(),
		gateway:   &scriptedGateway{},
		clock:     newStepClock(),
	}
	var repo contract.RefundRepository = f.repo
	if wrap != nil {
		repo = wrap(f.repo)
	}

	ctx := context.Background()
	require.NoError(t, f.directory.UpsertCustomer(ctx, refund.CustomerInfo{Ref: "cus-1", Name: "Dana Whitfield", Email: "dana@example.com"}))
	require.NoError(t, f.directory.UpsertCustomer(ctx, refund.CustomerInfo{Ref: "cus-2", Name: "Rui Okafor", Email: "rui@example.com"}))
	require.NoError(t, f.directory.UpsertOrder(ctx, refund.OrderInfo{
		Ref: "ord-1", Number: "ORD-1001", CustomerRef: "cus-1", Amount: 2390, Currency: "USD",
		PlacedAt: epoch.Add(-48 * time.Hour), DuplicateOf: "ord-0",
	}))
	require.NoError(t, f.directory.UpsertOrder(ctx, refund.OrderInfo{
		Ref: "ord-2", Number: "ORD-1002", CustomerRef: "cus-1", Amount: 5000, Currency: "USD",
		PlacedAt: epoch.Add(-72 * time.Hour),
	}))
	require.NoError(t, f.directory.UpsertOrder(ctx, refund.OrderInfo{
		Ref: "ord-3", Number: "ORD-1003", CustomerRef: "cus-2", Amount: 12000, Currency: "EUR",
		PlacedAt: epoch.Add(-400 * 24 * time.Hour),
	}))

	opts = append([]refund.Option{refund.WithClock(f.clock.Now)}, opts...)
	f.processor = refund.NewProcessor(repo, f.directory, f.directory, f.gateway, logger.NewNopLogger(), opts...)
	return f
}

func (f *fixture) intake(t *testing.T, req refund.IntakeRequest) *entity.Refund {
	t.Helper()
	if req.Method == "" {
		req.Method = string(entity.RefundMethodOriginalPayment)
	}
	r, err := f.processor.Intake(context.Background(), req)
	require.NoError(t, err)
	return r
}

func (f *fixture) stored(t *testing.T, r *entity.Refund) *entity.Refund {
	t.Helper()
	got, err := f.repo.FindByID(context.Background(), r.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	return got
}

// slowGateway ignores the call context like the synchronous SDKs do. Every key it
// finishes counts as money moved.
type slowGateway struct {
	mu    sync.Mutex
	delay time.Duration
	keys  []string
	moved map[string]int
}

func (g *slowGateway) Name() string {
	return "slow"
}

func (g *slowGateway) ExecuteRefund(_ context.Context, req refund.GatewayRequest) (*refund.GatewayResult, error) {
	g.mu.Lock()
	delay := g.delay
	g.keys = append(g.keys, req.IdempotencyKey)
	g.mu.Unlock()

	time.Sleep(delay)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.moved == nil {
		g.moved = map[string]int{}
	}
	g.moved[req.IdempotencyKey]++
	return &refund.GatewayResult{TransactionRef: "slow-" + req.IdempotencyKey}, nil
}

func (g *slowGateway) setDelay(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delay = d
}

func (g *slowGateway) finished() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.moved {
		n += c
	}
	return n
}
