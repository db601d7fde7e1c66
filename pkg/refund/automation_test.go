package refund_test

import (
	"testing"
	"time"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/pkg/refund"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEngine(t *testing.T) {
	engine := refund.NewEngine(refund.DefaultRules(refund.DefaultRuleLimits()), refund.DefaultThresholds())
	recent := refund.Signals{PurchaseKnown: true, TimeSincePurchase: 48 * time.Hour}

	tests := []struct {
		name       string
		refund     entity.Refund
		signals    refund.Signals
		wantAction refund.Action
		wantRule   string
		wantDec    entity.RefundDecision
		wantConf   int
	}{
		{
			name:       "confirmed duplicate order",
			refund:     entity.Refund{Reason: entity.RefundReasonDuplicateOrder, Type: entity.RefundTypeFull, RefundAmount: 2390, OriginalAmount: 2390},
			signals:    refund.Signals{DuplicateOrder: true},
			wantAction: refund.ActionAutomatic,
			wantRule:   "duplicate-order",
			wantDec:    entity.RefundDecisionApprove,
			wantConf:   99,
		},
		{
			name:       "small customer request on recent purchase",
			refund:     entity.Refund{Reason: entity.RefundReasonCustomerRequest, Type: entity.RefundTypeFull, RefundAmount: 1500, OriginalAmount: 1500},
			signals:    recent,
			wantAction: refund.ActionAutomatic,
			wantRule:   "small-customer-request",
			wantDec:    entity.RefundDecisionApprove,
			wantConf:   95,
		},
		{
			name:       "shipping issue partial is annotated only",
			refund:     entity.Refund{Reason: entity.RefundReasonShippingIssue, Type: entity.RefundTypePartial, RefundAmount: 2500, OriginalAmount: 5000},
			wantAction: refund.ActionAnnotate,
			wantRule:   "shipping-partial",
			wantDec:    entity.RefundDecisionApprove,
			wantConf:   70,
		},
		{
			name:       "flagged customer outranks duplicate",
			refund:     entity.Refund{Reason: entity.RefundReasonDuplicateOrder, Type: entity.RefundTypeFull, RefundAmount: 2390, OriginalAmount: 2390},
			signals:    refund.Signals{DuplicateOrder: true, CustomerFlagged: true},
			wantAction: refund.ActionAutomatic,
			wantRule:   "fraud-risk",
			wantDec:    entity.RefundDecisionReject,
			wantConf:   97,
		},
		{
			name:       "abuse limit reached",
			refund:     entity.Refund{Reason: entity.RefundReasonCustomerRequest, Type: entity.RefundTypeFull, RefundAmount: 100, OriginalAmount: 100},
			signals:    refund.Signals{PriorRefundCount: 5, PurchaseKnown: true, TimeSincePurchase: time.Hour},
			wantAction: refund.ActionAutomatic,
			wantRule:   "fraud-risk",
			wantDec:    entity.RefundDecisionReject,
			wantConf:   97,
		},
		{
			name:       "large customer request goes to manual review",
			refund:     entity.Refund{Reason: entity.RefundReasonCustomerRequest, Type: entity.RefundTypeFull, RefundAmount: 90000, OriginalAmount: 90000},
			signals:    recent,
			wantAction: refund.ActionManual,
		},
		{
			name:       "stale purchase annotated for rejection",
			refund:     entity.Refund{Reason: entity.RefundReasonOther, Type: entity.RefundTypeFull, RefundAmount: 100, OriginalAmount: 100},
			signals:    refund.Signals{PurchaseKnown: true, TimeSincePurchase: 400 * 24 * time.Hour},
			wantAction: refund.ActionAnnotate,
			wantRule:   "stale-purchase",
			wantDec:    entity.RefundDecisionReject,
			wantConf:   60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.refund
			out := engine.Evaluate(refund.RuleInput{Refund: &r, Signals: tt.signals})
			assert.Equal(t, tt.wantAction, out.Action)
			if tt.wantRule == "" {
				assert.Nil(t, out.Opinion)
				return
			}
			require.NotNil(t, out.Opinion)
			assert.Equal(t, tt.wantRule, out.Opinion.RuleID)
			assert.Equal(t, tt.wantDec, out.Opinion.Decision)
			assert.Equal(t, tt.wantConf, out.Opinion.Confidence)
		})
	}
}

func TestEngineThresholdsAndClamping(t *testing.T) {
	always := func(refund.RuleInput) bool { return true }
	in := refund.RuleInput{Refund: &entity.Refund{}}

	t.Run("confidence is clamped to 100", func(t *testing.T) {
		engine := refund.NewEngine([]refund.Rule{
			{ID: "loud", Decision: entity.RefundDecisionApprove, Confidence: 250, Match: always},
		}, refund.DefaultThresholds())
		out := engine.Evaluate(in)
		require.NotNil(t, out.Opinion)
		assert.Equal(t, 100, out.Opinion.Confidence)
		assert.Equal(t, refund.ActionAutomatic, out.Action)
	})

	t.Run("first match wins", func(t *testing.T) {
		engine := refund.NewEngine([]refund.Rule{
			{ID: "never", Decision: entity.RefundDecisionReject, Confidence: 99, Match: func(refund.RuleInput) bool { return false }},
			{ID: "first", Decision: entity.RefundDecisionApprove, Confidence: 40, Match: always},
			{ID: "second", Decision: entity.RefundDecisionApprove, Confidence: 99, Match: always},
		}, refund.DefaultThresholds())
		out := engine.Evaluate(in)
		require.NotNil(t, out.Opinion)
		assert.Equal(t, "first", out.Opinion.RuleID)
		assert.Equal(t, refund.ActionManual, out.Action)
	})

	t.Run("band edges are inclusive", func(t *testing.T) {
		th := refund.Thresholds{Auto: 80, Annotate: 60}
		for conf, want := range map[int]refund.Action{
			80: refund.ActionAutomatic,
			79: refund.ActionAnnotate,
			60: refund.ActionAnnotate,
			59: refund.ActionManual,
		} {
			engine := refund.NewEngine([]refund.Rule{{ID: "r", Decision: entity.RefundDecisionApprove, Confidence: conf, Match: always}}, th)
			assert.Equal(t, want, engine.Evaluate(in).Action, "confidence %d", conf)
		}
	})

	t.Run("thresholds are clamped and ordered", func(t *testing.T) {
		tests := []struct {
			in   refund.Thresholds
			want refund.Thresholds
		}{
			{in: refund.Thresholds{Auto: 90, Annotate: 50}, want: refund.Thresholds{Auto: 90, Annotate: 50}},
			{in: refund.Thresholds{Auto: 150, Annotate: -10}, want: refund.Thresholds{Auto: 100, Annotate: 0}},
			{in: refund.Thresholds{Auto: 40, Annotate: 70}, want: refund.Thresholds{Auto: 40, Annotate: 40}},
			{in: refund.Thresholds{Auto: -5, Annotate: 20}, want: refund.Thresholds{Auto: 0, Annotate: 0}},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.want, refund.NewEngine(nil, tt.in).Thresholds(), "%+v", tt.in)
		}

		engine := refund.NewEngine([]refund.Rule{
			{ID: "r", Decision: entity.RefundDecisionApprove, Confidence: 45, Match: always},
		}, refund.Thresholds{Auto: 40, Annotate: 70})
		assert.Equal(t, refund.ActionAutomatic, engine.Evaluate(in).Action)
	})

	t.Run("rule without predicate never matches", func(t *testing.T) {
		engine := refund.NewEngine([]refund.Rule{{ID: "empty", Confidence: 99}}, refund.DefaultThresholds())
		assert.Equal(t, refund.ActionManual, engine.Evaluate(in).Action)
	})
}
