package refund

import (
	"context"
	"errors"
	"fmt"
	"time"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/pkg/logger"
	"refund-lifecycle-be/internal/repository/contract"

	"github.com/google/uuid"
)

// OrderLookup resolves order references. It returns nil, nil for unknown orders.
type OrderLookup interface {
	FindOrder(ctx context.Context, ref string) (*OrderInfo, error)
}

// CustomerLookup resolves customer references. It returns nil, nil for unknown customers.
type CustomerLookup interface {
	FindCustomer(ctx context.Context, ref string) (*CustomerInfo, error)
}

// Notifier is told about every persisted change. Implementations must not block
// for long and must not fail the caller.
type Notifier interface {
	RefundCreated(ctx context.Context, r *entity.Refund)
	RefundTransitioned(ctx context.Context, r *entity.Refund, from entity.RefundStatus)
	RefundAnnotated(ctx context.Context, r *entity.Refund)
}

type NopNotifier struct{}

func (NopNotifier) RefundCreated(context.Context, *entity.Refund) {}

func (NopNotifier) RefundTransitioned(context.Context, *entity.Refund, entity.RefundStatus) {}

func (NopNotifier) RefundAnnotated(context.Context, *entity.Refund) {}

type Option func(p *Processor)

func WithEngine(e *Engine) Option {
	return func(p *Processor) { p.engine = e }
}

func WithRetryPolicy(policy RetryPolicy) Option {
	return func(p *Processor) { p.policy = policy }
}

func WithGatewayTimeout(d time.Duration) Option {
	return func(p *Processor) { p.gatewayTimeout = d }
}

func WithClock(c Clock) Option {
	return func(p *Processor) { p.now = c }
}

func WithNotifier(n Notifier) Option {
	return func(p *Processor) { p.notifier = n }
}

// Processor owns every write to refund records: intake, automation, manual
// decisions and money movement.
type Processor struct {
	repo           contract.RefundRepository
	orders         OrderLookup
	customers      CustomerLookup
	gateway        Gateway
	engine         *Engine
	policy         RetryPolicy
	gatewayTimeout time.Duration
	notifier       Notifier
	logger         logger.ILogger
	now            Clock
}

func NewProcessor(repo contract.RefundRepository, orders OrderLookup, customers CustomerLookup, gateway Gateway, log logger.ILogger, opts ...Option) *Processor {
	p := &Processor{
		repo:           repo,
		orders:         orders,
		customers:      customers,
		gateway:        gateway,
		engine:         NewEngine(DefaultRules(DefaultRuleLimits()), DefaultThresholds()),
		policy:         DefaultRetryPolicy(),
		gatewayTimeout: 15 * time.Second,
		notifier:       NopNotifier{},
		logger:         log,
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) Policy() RetryPolicy {
	return p.policy
}

// Intake validates and stores a new pending refund request.
func (p *Processor) Intake(ctx context.Context, req IntakeRequest) (*entity.Refund, error) {
	var (
		order    *OrderInfo
		customer *CustomerInfo
		err      error
	)
	if req.OrderRef != "" {
		if order, err = p.orders.FindOrder(ctx, req.OrderRef); err != nil {
			return nil, fmt.Errorf("order lookup failed: %w", err)
		}
	}
	if req.CustomerRef != "" {
		if customer, err = p.customers.FindCustomer(ctx, req.CustomerRef); err != nil {
			return nil, fmt.Errorf("customer lookup failed: %w", err)
		}
	}

	r, err := BuildRefund(req, order, customer, p.now())
	if err != nil {
		return nil, err
	}
	if err := p.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to store refund request: %w", err)
	}

	p.logger.Info("REFUND", "Refund request created", map[string]interface{}{
		"refund_id": r.ID.String(),
		"order_ref": r.OrderRef,
		"amount":    r.RefundAmount,
		"currency":  r.Currency,
		"reason":    r.Reason,
	})
	p.notifier.RefundCreated(ctx, r)
	return r, nil
}

func (p *Processor) Get(ctx context.Context, id uuid.UUID) (*entity.Refund, error) {
	r, err := p.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotFound
	}
	return r, nil
}

// Signals gathers the collaborator facts the rule table consumes.
func (p *Processor) Signals(ctx context.Context, r *entity.Refund) (Signals, error) {
	var s Signals

	order, err := p.orders.FindOrder(ctx, r.OrderRef)
	if err != nil {
		return s, fmt.Errorf("order lookup failed: %w", err)
	}
	if order != nil {
		s.DuplicateOrder = order.DuplicateOf != ""
		if !order.PlacedAt.IsZero() {
			s.PurchaseKnown = true
			s.TimeSincePurchase = p.now().Sub(order.PlacedAt)
		}
	}

	customer, err := p.customers.FindCustomer(ctx, r.CustomerRef)
	if err != nil {
		return s, fmt.Errorf("customer lookup failed: %w", err)
	}
	if customer != nil {
		s.CustomerFlagged = customer.Flagged
	}

	prior, err := p.repo.Count(ctx, contract.RefundFilter{CustomerRef: r.CustomerRef, ExcludeID: &r.ID})
	if err != nil {
		return s, fmt.Errorf("failed to count prior refunds: %w", err)
	}
	s.PriorRefundCount = int(prior)
	return s, nil
}

// Evaluate runs the rule table once for a pending record. Records that were already
// evaluated or have left pending are returned unchanged.
func (p *Processor) Evaluate(ctx context.Context, id uuid.UUID) (*entity.Refund, error) {
	current, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != entity.RefundStatusPending || current.Automation.EvaluatedAt != nil {
		return current, nil
	}

	signals, err := p.Signals(ctx, current)
	if err != nil {
		return nil, err
	}
	outcome := p.engine.Evaluate(RuleInput{Refund: current, Signals: signals})
	at := p.now()

	details := map[string]interface{}{
		"refund_id": id.String(),
		"action":    string(outcome.Action),
	}
	if outcome.Opinion != nil {
		details["rule_id"] = outcome.Opinion.RuleID
		details["decision"] = string(outcome.Opinion.Decision)
		details["confidence"] = outcome.Opinion.Confidence
	}
	p.logger.Info("AUTOMATION", "Refund evaluated", details)

	switch outcome.Action {
	case ActionAutomatic:
		op := outcome.Opinion
		to := entity.RefundStatusApproved
		verb := "approved"
		if op.Decision == entity.RefundDecisionReject {
			to = entity.RefundStatusRejected
			verb = "rejected"
		}
		return p.transition(ctx, current, Transition{
			To:          to,
			Actor:       entity.SystemActor,
			Description: fmt.Sprintf("Automatically %s by rule %s (confidence %d)", verb, op.RuleID, op.Confidence),
			Mutate: func(r *entity.Refund) {
				r.Automation = automationFor(op, true, at)
				if to == entity.RefundStatusApproved {
					system := entity.SystemActor
					r.ApprovedBy = &system
				}
			},
		})

	case ActionAnnotate:
		op := outcome.Opinion
		next, err := Note(current, entity.SystemActor,
			fmt.Sprintf("Rule %s suggests %s (confidence %d), manual review required", op.RuleID, op.Decision, op.Confidence), p.now)
		if err != nil {
			return nil, err
		}
		next.Automation = automationFor(op, false, at)
		if err := p.save(ctx, next, current.Version); err != nil {
			return nil, err
		}
		p.notifier.RefundAnnotated(ctx, next)
		return next, nil

	default:
		next := current.Clone()
		next.Automation.EvaluatedAt = &at
		next.UpdatedAt = at
		if err := p.save(ctx, next, current.Version); err != nil {
			return nil, err
		}
		return next, nil
	}
}

func automationFor(op *Opinion, automatic bool, at time.Time) entity.RefundAutomation {
	ruleID := op.RuleID
	decision := op.Decision
	return entity.RefundAutomation{
		IsAutomatic: automatic,
		RuleID:      &ruleID,
		Confidence:  op.Confidence,
		Suggestion:  &decision,
		EvaluatedAt: &at,
	}
}

// StartReview moves a pending request into manual review.
func (p *Processor) StartReview(ctx context.Context, id uuid.UUID, actor string) (*entity.Refund, error) {
	return p.transitionByID(ctx, id, Transition{
		To:          entity.RefundStatusProcessing,
		Actor:       actor,
		Description: "Review started by " + actor,
	})
}

// Approve accepts a pending or in-review request. Failed records are re-approved
// only through Retry, which counts against the retry limit.
func (p *Processor) Approve(ctx context.Context, id uuid.UUID, actor, note string) (*entity.Refund, error) {
	current, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == entity.RefundStatusFailed {
		return nil, retryOnly(current)
	}
	return p.transition(ctx, current, Transition{
		To:          entity.RefundStatusApproved,
		Actor:       actor,
		Description: withNote("Approved by "+actor, note),
		Mutate: func(r *entity.Refund) {
			a := actor
			r.ApprovedBy = &a
		},
	})
}

func (p *Processor) Reject(ctx context.Context, id uuid.UUID, actor, note string) (*entity.Refund, error) {
	return p.transitionByID(ctx, id, Transition{
		To:          entity.RefundStatusRejected,
		Actor:       actor,
		Description: withNote("Rejected by "+actor, note),
	})
}

// Cancel withdraws an open request or abandons a failed one.
func (p *Processor) Cancel(ctx context.Context, id uuid.UUID, actor, note string) (*entity.Refund, error) {
	current, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	desc := "Withdrawn by " + actor
	if current.Status == entity.RefundStatusFailed {
		desc = "Abandoned after failed execution by " + actor
	}
	return p.transition(ctx, current, Transition{
		To:          entity.RefundStatusCancelled,
		Actor:       actor,
		Description: withNote(desc, note),
		Mutate: func(r *entity.Refund) {
			r.NextRetryAt = nil
		},
	})
}

// Execute moves money for an approved record through the gateway. On failure the
// updated record is returned together with the *GatewayError.
func (p *Processor) Execute(ctx context.Context, id uuid.UUID, actor string) (*entity.Refund, error) {
	current, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != entity.RefundStatusApproved {
		return nil, invalidTransition(current, string(entity.RefundStatusCompleted))
	}

	req := NewGatewayRequest(current)
	p.logger.Info("GATEWAY", "Executing refund", map[string]interface{}{
		"refund_id":       id.String(),
		"provider":        p.gateway.Name(),
		"amount":          req.Amount,
		"currency":        req.Currency,
		"idempotency_key": req.IdempotencyKey,
	})

	res, callErr := CallWithTimeout(ctx, p.gateway.Name(), p.gatewayTimeout, func(ctx context.Context) (*GatewayResult, error) {
		return p.gateway.ExecuteRefund(ctx, req)
	})
	if callErr == nil && res.Pending {
		next, err := Note(current, actor,
			fmt.Sprintf("Refund submitted via %s (transaction %s), awaiting gateway confirmation", p.gateway.Name(), res.TransactionRef), p.now)
		if err != nil {
			return nil, err
		}
		ref := res.TransactionRef
		next.RefundTransactionRef = &ref
		if err := p.save(ctx, next, current.Version); err != nil {
			return nil, err
		}
		return next, nil
	}
	if callErr == nil {
		return p.transition(ctx, current, Transition{
			To:          entity.RefundStatusCompleted,
			Actor:       actor,
			Description: fmt.Sprintf("Refund executed via %s (transaction %s)", p.gateway.Name(), res.TransactionRef),
			Mutate: func(r *entity.Refund) {
				ref := res.TransactionRef
				r.RefundTransactionRef = &ref
				r.NextRetryAt = nil
			},
		})
	}

	gwErr := AsGatewayError(p.gateway.Name(), callErr)
	p.logger.Warn("GATEWAY", "Refund execution failed", map[string]interface{}{
		"refund_id":   id.String(),
		"provider":    gwErr.Provider,
		"code":        gwErr.Code,
		"retryable":   gwErr.Retryable,
		"ambiguous":   gwErr.Indeterminate,
		"retry_count": current.RetryCount,
		"error":       gwErr.Error(),
	})

	// Out of retries ends the record whatever the failure kind; a permanent decline
	// with retries left waits for an operator.
	exhausted := p.policy.Exhausted(current.RetryCount)
	failed, err := p.transition(ctx, current, Transition{
		To:          entity.RefundStatusFailed,
		Actor:       actor,
		Description: "Gateway failure: " + gwErr.Error(),
		Mutate: func(r *entity.Refund) {
			r.LastFailureRetryable = gwErr.Retryable
			if !gwErr.Indeterminate {
				r.AttemptSeq++
			}
			r.NextRetryAt = nil
			if gwErr.Retryable && !exhausted {
				next := p.now().Add(p.policy.Delay(r.RetryCount))
				r.NextRetryAt = &next
			}
		},
	})
	if err != nil {
		return nil, errors.Join(gwErr, err)
	}
	if !exhausted {
		return failed, gwErr
	}

	cancelled, err := p.transition(ctx, failed, Transition{
		To:          entity.RefundStatusCancelled,
		Actor:       entity.SystemActor,
		Description: fmt.Sprintf("Retry limit exhausted after %d retries", failed.RetryCount),
	})
	if err != nil {
		return failed, errors.Join(gwErr, err)
	}
	p.logger.Warn("RETRY", "Refund cancelled after exhausting retries", map[string]interface{}{
		"refund_id":   id.String(),
		"retry_count": failed.RetryCount,
	})
	return cancelled, gwErr
}

// Retry re-approves a failed record and executes it again.
func (p *Processor) Retry(ctx context.Context, id uuid.UUID, actor string) (*entity.Refund, error) {
	current, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != entity.RefundStatusFailed {
		return nil, invalidTransition(current, "approved (retry)")
	}
	if p.policy.Exhausted(current.RetryCount) {
		return nil, ErrRetryLimitReached
	}

	attempt := current.RetryCount + 1
	if _, err := p.transition(ctx, current, Transition{
		To:          entity.RefundStatusApproved,
		Actor:       actor,
		Description: fmt.Sprintf("Retry %d of %d", attempt, p.policy.MaxRetries),
		Mutate: func(r *entity.Refund) {
			r.RetryCount = attempt
			r.NextRetryAt = nil
		},
	}); err != nil {
		return nil, err
	}
	return p.Execute(ctx, id, actor)
}

// Complete applies an asynchronous gateway confirmation. Replays on a completed
// record are no-ops.
func (p *Processor) Complete(ctx context.Context, id uuid.UUID, transactionRef, actor string) (*entity.Refund, error) {
	current, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == entity.RefundStatusCompleted {
		return current, nil
	}
	return p.transition(ctx, current, Transition{
		To:          entity.RefundStatusCompleted,
		Actor:       actor,
		Description: "Gateway confirmed refund (transaction " + transactionRef + ")",
		Mutate: func(r *entity.Refund) {
			if transactionRef != "" {
				ref := transactionRef
				r.RefundTransactionRef = &ref
			}
			r.NextRetryAt = nil
		},
	})
}

// RetryDue lists failed records whose scheduled retry time has passed.
func (p *Processor) RetryDue(ctx context.Context) ([]*entity.Refund, error) {
	now := p.now()
	return p.repo.FindAll(ctx, contract.RefundFilter{
		Statuses:       []entity.RefundStatus{entity.RefundStatusFailed},
		RetryDueBefore: &now,
	})
}

func (p *Processor) transitionByID(ctx context.Context, id uuid.UUID, t Transition) (*entity.Refund, error) {
	current, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.transition(ctx, current, t)
}

// transition applies t to current and persists it with a version check. A losing
// writer gets ErrConcurrentModification and the conflict is noted on the winner.
func (p *Processor) transition(ctx context.Context, current *entity.Refund, t Transition) (*entity.Refund, error) {
	next, err := Apply(current, t, p.now)
	if err != nil {
		return nil, err
	}
	if err := p.save(ctx, next, current.Version); err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			p.noteConflict(ctx, current.ID, t)
		}
		return nil, err
	}

	p.logger.Info("REFUND", "Refund transitioned", map[string]interface{}{
		"refund_id": next.ID.String(),
		"from":      string(current.Status),
		"to":        string(next.Status),
		"actor":     t.Actor,
	})
	p.notifier.RefundTransitioned(ctx, next, current.Status)
	return next, nil
}

func (p *Processor) save(ctx context.Context, next *entity.Refund, expected int64) error {
	if err := p.repo.Save(ctx, next, expected); err != nil {
		if errors.Is(err, contract.ErrVersionConflict) {
			return err
		}
		return fmt.Errorf("failed to save refund %s: %w", next.ID, err)
	}
	return nil
}

func (p *Processor) noteConflict(ctx context.Context, id uuid.UUID, t Transition) {
	latest, err := p.repo.FindByID(ctx, id)
	if err != nil || latest == nil {
		return
	}
	noted, err := Note(latest, t.Actor,
		fmt.Sprintf("Concurrent modification rejected: transition to %s by %s", t.To, t.Actor), p.now)
	if err != nil {
		return
	}
	if err := p.repo.Save(ctx, noted, latest.Version); err != nil {
		p.logger.Warn("REFUND", "Failed to record concurrent modification", map[string]interface{}{
			"refund_id": id.String(),
			"error":     err.Error(),
		})
	}
}

func withNote(desc, note string) string {
	if note == "" {
		return desc
	}
	return desc + ": " + note
}
