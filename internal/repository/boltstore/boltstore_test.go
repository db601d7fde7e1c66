package boltstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/repository/boltstore"
	"refund-lifecycle-be/internal/repository/contract"
	"refund-lifecycle-be/pkg/refund"
	"refund-lifecycle-be/pkg/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *boltstore.DB {
	t.Helper()
	db, err := boltstore.Open(filepath.Join(t.TempDir(), "refunds.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newRefund(at time.Time) *entity.Refund {
	ref := "txn-original"
	return &entity.Refund{
		ID:                     uuid.New(),
		OrderRef:               "ord-1",
		CustomerRef:            "cus-1",
		OrderNumber:            "ORD-1",
		CustomerName:           "Jun Park",
		CustomerEmail:          "jun@example.com",
		OriginalAmount:         4200,
		RefundAmount:           2100,
		Currency:               "EUR",
		Reason:                 entity.RefundReasonDefectiveProduct,
		Type:                   entity.RefundTypePartial,
		Method:                 entity.RefundMethodOriginalPayment,
		Status:                 entity.RefundStatusPending,
		RequestedAt:            at,
		OriginalTransactionRef: &ref,
		Attachments:            []string{"photo-1.jpg"},
		Ledger:                 workflow.Seed(entity.RefundStatusPending, at, "Refund requested", "cus-1"),
		Automation:             entity.DefaultAutomation(),
		Version:                1,
		UpdatedAt:              at,
	}
}

func TestRefundRoundTrip(t *testing.T) {
	repo := boltstore.NewRefundRepository(newTestDB(t))
	ctx := context.Background()
	at := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	r := newRefund(at)

	require.NoError(t, repo.Create(ctx, r))
	assert.ErrorIs(t, repo.Create(ctx, r), contract.ErrDuplicateID)

	got, err := repo.FindByID(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, r.RefundAmount, got.RefundAmount)
	assert.Equal(t, r.Reason, got.Reason)
	assert.Equal(t, []string{"photo-1.jpg"}, got.Attachments)
	require.NotNil(t, got.OriginalTransactionRef)
	assert.Equal(t, "txn-original", *got.OriginalTransactionRef)
	require.Len(t, got.Ledger, 1)
	assert.True(t, at.Equal(got.Ledger[0].Timestamp))
	assert.Equal(t, workflow.KindTransition, got.Ledger[0].Kind)

	missing, err := repo.FindByID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRefundSaveConflictsAndLedgerGuard(t *testing.T) {
	repo := boltstore.NewRefundRepository(newTestDB(t))
	ctx := context.Background()
	at := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	r := newRefund(at)
	require.NoError(t, repo.Create(ctx, r))

	now := func() time.Time { return at.Add(time.Minute) }
	approved, err := refund.Apply(r, refund.Transition{To: entity.RefundStatusApproved, Actor: "staff-1"}, now)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, approved, 1))
	assert.Equal(t, int64(2), approved.Version)

	stale, err := refund.Apply(r, refund.Transition{To: entity.RefundStatusRejected, Actor: "staff-2"}, now)
	require.NoError(t, err)
	err = repo.Save(ctx, stale, 1)
	assert.ErrorIs(t, err, contract.ErrVersionConflict)
	assert.Equal(t, int64(1), stale.Version)

	truncated := approved.Clone()
	truncated.Ledger = truncated.Ledger[:1]
	err = repo.Save(ctx, truncated, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shrink")

	stored, err := repo.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RefundStatusApproved, stored.Status)
	assert.Equal(t, int64(2), stored.Version)
	assert.Len(t, stored.Ledger, 2)
}

func TestRefundFindAllAndCount(t *testing.T) {
	repo := boltstore.NewRefundRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		r := newRefund(base.Add(time.Duration(i) * time.Hour))
		require.NoError(t, repo.Create(ctx, r))
		ids = append(ids, r.ID)
	}

	items, err := repo.FindAll(ctx, contract.RefundFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, ids[2], items[0].ID)
	assert.Equal(t, ids[1], items[1].ID)

	count, err := repo.Count(ctx, contract.RefundFilter{Limit: 2, ExcludeID: &ids[0]})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestProductionRepository(t *testing.T) {
	repo := boltstore.NewProductionRepository(newTestDB(t))
	ctx := context.Background()
	at := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

	item := &entity.ProductionItem{
		ID:          uuid.New(),
		OrderRef:    "ord-1",
		ProductName: "Walnut desk",
		Quantity:    1,
		Priority:    entity.ProductionPriorityHigh,
		Status:      entity.ProductionStatusQueued,
		History:     workflow.Seed(entity.ProductionStatusQueued, at, "Queued for production", "staff-1"),
		Version:     1,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	require.NoError(t, repo.Create(ctx, item))

	next := item.Clone()
	next.Status = entity.ProductionStatusInProduction
	require.NoError(t, repo.Save(ctx, next, 1))
	assert.ErrorIs(t, repo.Save(ctx, item, 1), contract.ErrVersionConflict)

	items, err := repo.FindAll(ctx, contract.ProductionFilter{Statuses: []entity.ProductionStatus{entity.ProductionStatusInProduction}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Walnut desk", items[0].ProductName)
	assert.Equal(t, int64(2), items[0].Version)
}

func TestDirectoryPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.db")
	ctx := context.Background()

	db, err := boltstore.Open(path)
	require.NoError(t, err)
	dir := boltstore.NewDirectory(db)
	require.NoError(t, dir.UpsertOrder(ctx, refund.OrderInfo{Ref: "ord-9", Number: "ORD-9", Amount: 990, Currency: "USD"}))
	require.NoError(t, dir.UpsertCustomer(ctx, refund.CustomerInfo{Ref: "cus-9", Name: "Noor", Email: "noor@example.com"}))
	require.NoError(t, db.Close())

	db, err = boltstore.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	dir = boltstore.NewDirectory(db)

	o, err := dir.FindOrder(ctx, "ord-9")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, int64(990), o.Amount)

	c, err := dir.FindCustomer(ctx, "cus-9")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Noor", c.Name)

	missing, err := dir.FindCustomer(ctx, "cus-0")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
