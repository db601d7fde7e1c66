package refund

import (
	"time"

	"refund-lifecycle-be/internal/entity"
)

// Signals are the order/customer facts a rule may inspect besides the request itself.
type Signals struct {
	DuplicateOrder    bool
	PriorRefundCount  int
	CustomerFlagged   bool
	TimeSincePurchase time.Duration
	PurchaseKnown     bool
}

// RuleInput is everything a rule sees.
type RuleInput struct {
	Refund  *entity.Refund
	Signals Signals
}

// Opinion is a rule's verdict.
type Opinion struct {
	RuleID     string
	Decision   entity.RefundDecision
	Confidence int
}

// Rule is one row of the ordered rule table: a predicate plus the decision it implies.
type Rule struct {
	ID          string
	Description string
	Decision    entity.RefundDecision
	Confidence  int
	Match       func(in RuleInput) bool
}

// Evaluate returns the rule's opinion, or nil when the predicate does not hold.
func (r Rule) Evaluate(in RuleInput) *Opinion {
	if r.Match == nil || !r.Match(in) {
		return nil
	}
	return &Opinion{RuleID: r.ID, Decision: r.Decision, Confidence: clampConfidence(r.Confidence)}
}

// RuleLimits parameterises the default rule table.
type RuleLimits struct {
	SmallAmount    int64
	AbuseRefunds   int
	RecentPurchase time.Duration
	StalePurchase  time.Duration
}

func DefaultRuleLimits() RuleLimits {
	return RuleLimits{
		SmallAmount:    5000,
		AbuseRefunds:   5,
		RecentPurchase: 30 * 24 * time.Hour,
		StalePurchase:  365 * 24 * time.Hour,
	}
}

// DefaultRules returns the rule table in priority order. Fraud and duplicate rules
// outrank the generic amount and reason rules.
func DefaultRules(l RuleLimits) []Rule {
	recent := func(s Signals) bool {
		return s.PurchaseKnown && s.TimeSincePurchase <= l.RecentPurchase
	}
	return []Rule{
		{
			ID:          "fraud-risk",
			Description: "customer flagged or refund count at abuse limit",
			Decision:    entity.RefundDecisionReject,
			Confidence:  97,
			Match: func(in RuleInput) bool {
				return in.Signals.CustomerFlagged || (l.AbuseRefunds > 0 && in.Signals.PriorRefundCount >= l.AbuseRefunds)
			},
		},
		{
			ID:          "duplicate-order",
			Description: "duplicate order confirmed by order lookup",
			Decision:    entity.RefundDecisionApprove,
			Confidence:  99,
			Match: func(in RuleInput) bool {
				return in.Refund.Reason == entity.RefundReasonDuplicateOrder && in.Signals.DuplicateOrder
			},
		},
		{
			ID:          "fraud-report",
			Description: "customer reported an unauthorised charge",
			Decision:    entity.RefundDecisionApprove,
			Confidence:  97,
			Match: func(in RuleInput) bool {
				return in.Refund.Reason == entity.RefundReasonFraud
			},
		},
		{
			ID:          "small-customer-request",
			Description: "small customer request on a recent purchase",
			Decision:    entity.RefundDecisionApprove,
			Confidence:  95,
			Match: func(in RuleInput) bool {
				return in.Refund.Reason == entity.RefundReasonCustomerRequest &&
					in.Refund.RefundAmount <= l.SmallAmount &&
					recent(in.Signals)
			},
		},
		{
			ID:          "defective-recent",
			Description: "defective product on a recent purchase",
			Decision:    entity.RefundDecisionApprove,
			Confidence:  80,
			Match: func(in RuleInput) bool {
				return in.Refund.Reason == entity.RefundReasonDefectiveProduct && recent(in.Signals)
			},
		},
		{
			ID:          "shipping-partial",
			Description: "partial refund for a shipping issue",
			Decision:    entity.RefundDecisionApprove,
			Confidence:  70,
			Match: func(in RuleInput) bool {
				return in.Refund.Reason == entity.RefundReasonShippingIssue && in.Refund.Type == entity.RefundTypePartial
			},
		},
		{
			ID:          "duplicate-unconfirmed",
			Description: "duplicate order claimed but not confirmed",
			Decision:    entity.RefundDecisionApprove,
			Confidence:  60,
			Match: func(in RuleInput) bool {
				return in.Refund.Reason == entity.RefundReasonDuplicateOrder && !in.Signals.DuplicateOrder
			},
		},
		{
			ID:          "stale-purchase",
			Description: "purchase older than the refund window",
			Decision:    entity.RefundDecisionReject,
			Confidence:  60,
			Match: func(in RuleInput) bool {
				return in.Signals.PurchaseKnown && in.Signals.TimeSincePurchase > l.StalePurchase
			},
		},
	}
}

// Thresholds split confidence into automatic, annotated and manual bands.
type Thresholds struct {
	Auto     int
	Annotate int
}

func DefaultThresholds() Thresholds {
	return Thresholds{Auto: 90, Annotate: 50}
}

// normalized clamps both thresholds to 0-100 and keeps Annotate at or below Auto.
func (t Thresholds) normalized() Thresholds {
	t.Auto = clampConfidence(t.Auto)
	t.Annotate = min(clampConfidence(t.Annotate), t.Auto)
	return t
}

type Action string

const (
	ActionAutomatic Action = "automatic"
	ActionAnnotate  Action = "annotate"
	ActionManual    Action = "manual"
)

// Outcome is the engine's verdict for one request.
type Outcome struct {
	Action  Action
	Opinion *Opinion
}

// Engine evaluates the rule table first-match-wins.
type Engine struct {
	rules      []Rule
	thresholds Thresholds
}

func NewEngine(rules []Rule, thresholds Thresholds) *Engine {
	return &Engine{rules: append([]Rule(nil), rules...), thresholds: thresholds.normalized()}
}

func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate picks the first rule with an opinion and classifies its confidence.
func (e *Engine) Evaluate(in RuleInput) Outcome {
	for _, rule := range e.rules {
		op := rule.Evaluate(in)
		if op == nil {
			continue
		}
		return Outcome{Action: e.classify(op.Confidence), Opinion: op}
	}
	return Outcome{Action: ActionManual}
}

func (e *Engine) classify(confidence int) Action {
	switch {
	case confidence >= e.thresholds.Auto:
		return ActionAutomatic
	case confidence >= e.thresholds.Annotate:
		return ActionAnnotate
	default:
		return ActionManual
	}
}

func clampConfidence(c int) int {
	return min(max(c, 0), 100)
}
