package refund_test

import (
	"context"
	"testing"
	"time"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/repository/memory"
	"refund-lifecycle-be/pkg/refund"
	"refund-lifecycle-be/pkg/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "7d", want: 7},
		{in: "30", want: 30},
		{in: " 90D ", want: 90},
		{in: "365d", want: 365},
		{in: "14d", wantErr: true},
		{in: "week", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := refund.ParseTimeframe(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCutoffIsStartOfUTCDay(t *testing.T) {
	now := time.Date(2024, 5, 10, 17, 45, 0, 0, time.FixedZone("UTC+7", 7*3600))

	got := refund.Cutoff(now, 7)

	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), got)
}

func seedRefund(t *testing.T, repo *memory.RefundRepository, status entity.RefundStatus, reason entity.RefundReason, amount int64, requestedAt time.Time, name string) *entity.Refund {
	t.Helper()
	r := &entity.Refund{
		ID:             uuid.New(),
		OrderRef:       "ord-" + name,
		CustomerRef:    "cus-" + name,
		OrderNumber:    "ORD-" + name,
		CustomerName:   name,
		CustomerEmail:  name + "@example.com",
		OriginalAmount: amount,
		RefundAmount:   amount,
		Currency:       "USD",
		Reason:         reason,
		Type:           entity.RefundTypeFull,
		Method:         entity.RefundMethodOriginalPayment,
		Status:         status,
		RequestedAt:    requestedAt,
		Ledger:         workflow.Seed(entity.RefundStatusPending, requestedAt, "Refund requested", name),
		Automation:     entity.DefaultAutomation(),
		Version:        1,
		UpdatedAt:      requestedAt,
	}
	require.NoError(t, repo.Create(context.Background(), r))
	return r
}

func TestQueryList(t *testing.T) {
	repo := memory.NewRefundRepository()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	recentA := seedRefund(t, repo, entity.RefundStatusPending, entity.RefundReasonShippingIssue, 1000, now.Add(-1*time.Hour), "alice")
	recentB := seedRefund(t, repo, entity.RefundStatusApproved, entity.RefundReasonFraud, 2000, now.Add(-2*24*time.Hour), "bob")
	seedRefund(t, repo, entity.RefundStatusCompleted, entity.RefundReasonOther, 3000, now.Add(-20*24*time.Hour), "carol")
	seedRefund(t, repo, entity.RefundStatusRejected, entity.RefundReasonOther, 4000, now.Add(-200*24*time.Hour), "dave")

	q := refund.NewQueryService(repo, func() time.Time { return now })

	t.Run("timeframe window", func(t *testing.T) {
		page, err := q.List(ctx, refund.Query{Timeframe: "7d"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		require.Len(t, page.Items, 2)
		assert.Equal(t, recentA.ID, page.Items[0].ID)
		assert.Equal(t, recentB.ID, page.Items[1].ID)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, refund.DefaultPageSize, page.Limit)
	})

	t.Run("status list and search", func(t *testing.T) {
		page, err := q.List(ctx, refund.Query{Status: "completed,rejected", Search: "CAR"})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "carol", page.Items[0].CustomerName)
	})

	t.Run("pagination keeps total", func(t *testing.T) {
		page, err := q.List(ctx, refund.Query{Page: 2, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(4), page.Total)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "dave", page.Items[0].CustomerName)
	})

	t.Run("limit is capped", func(t *testing.T) {
		page, err := q.List(ctx, refund.Query{Limit: 10_000})
		require.NoError(t, err)
		assert.Equal(t, refund.MaxPageSize, page.Limit)
	})

	t.Run("bad filter values", func(t *testing.T) {
		_, err := q.List(ctx, refund.Query{Timeframe: "3d", Status: "pending,lost", Reason: "bored"})
		var verr *refund.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "timeframe")
		assert.Contains(t, verr.Fields, "status")
		assert.Contains(t, verr.Fields, "reason")
	})
}

func TestQuerySummary(t *testing.T) {
	repo := memory.NewRefundRepository()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	seedRefund(t, repo, entity.RefundStatusPending, entity.RefundReasonOther, 1000, now.Add(-time.Hour), "a")
	seedRefund(t, repo, entity.RefundStatusPending, entity.RefundReasonOther, 1500, now.Add(-2*time.Hour), "b")
	seedRefund(t, repo, entity.RefundStatusCompleted, entity.RefundReasonFraud, 700, now.Add(-3*time.Hour), "c")
	seedRefund(t, repo, entity.RefundStatusCompleted, entity.RefundReasonFraud, 900, now.Add(-100*24*time.Hour), "d")

	q := refund.NewQueryService(repo, func() time.Time { return now })

	sum, err := q.Summary(context.Background(), refund.Query{Timeframe: "30d", Page: 5, Limit: 1})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.ByStatus[entity.RefundStatusPending])
	assert.Equal(t, 1, sum.ByStatus[entity.RefundStatusCompleted])
	assert.Equal(t, int64(2500), sum.Amount[entity.RefundStatusPending])
	assert.Equal(t, int64(700), sum.Amount[entity.RefundStatusCompleted])
	assert.Len(t, sum.ByStatus, len(entity.AllRefundStatuses))
	assert.Zero(t, sum.ByStatus[entity.RefundStatusFailed])
}
