package contract

import (
	"context"
	"errors"
	"time"

	"refund-lifecycle-be/internal/entity"

	"github.com/google/uuid"
)

// ErrVersionConflict is returned by Save when the stored version no longer matches.
var ErrVersionConflict = errors.New("version conflict: record was modified concurrently")

// ErrDuplicateID is returned by Create when the id is already taken.
var ErrDuplicateID = errors.New("record with this id already exists")

// RefundFilter narrows FindAll. Zero fields do not filter; all set fields are ANDed.
type RefundFilter struct {
	Statuses       []entity.RefundStatus
	Reasons        []entity.RefundReason
	RequestedSince *time.Time

	// Search matches order number, customer name or customer email, case-insensitive.
	Search         string
	CustomerRef    string
	ExcludeID      *uuid.UUID
	RetryDueBefore *time.Time
	Limit          int
	Offset         int
}

type RefundRepository interface {
	Create(ctx context.Context, refund *entity.Refund) error
	// FindByID returns nil, nil when the record does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Refund, error)
	// FindAll returns matches ordered by requested_at descending.
	FindAll(ctx context.Context, filter RefundFilter) ([]*entity.Refund, error)
	Count(ctx context.Context, filter RefundFilter) (int64, error)
	// Save persists refund and its ledger atomically if the stored version equals
	// expectedVersion, otherwise it returns ErrVersionConflict and writes nothing.
	// On success refund.Version is set to expectedVersion+1.
	Save(ctx context.Context, refund *entity.Refund, expectedVersion int64) error
}
