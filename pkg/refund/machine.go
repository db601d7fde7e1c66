package refund

import (
	"errors"
	"time"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/pkg/workflow"
)

// Clock supplies the current time; tests pin it.
type Clock func() time.Time

// Machine is the refund transition table. It is the only place legal edges are defined.
var Machine = workflow.NewMachine(entity.RefundStatusPending, map[entity.RefundStatus][]entity.RefundStatus{
	entity.RefundStatusPending: {
		entity.RefundStatusProcessing,
		entity.RefundStatusApproved,
		entity.RefundStatusRejected,
		entity.RefundStatusCancelled,
	},
	entity.RefundStatusProcessing: {
		entity.RefundStatusApproved,
		entity.RefundStatusRejected,
		entity.RefundStatusCancelled,
	},
	entity.RefundStatusApproved: {
		entity.RefundStatusCompleted,
		entity.RefundStatusFailed,
	},
	entity.RefundStatusFailed: {
		entity.RefundStatusApproved,
		entity.RefundStatusCancelled,
	},
	entity.RefundStatusRejected:  {},
	entity.RefundStatusCompleted: {},
	entity.RefundStatusCancelled: {},
})

// Transition describes one status change to apply to a record.
type Transition struct {
	To          entity.RefundStatus
	Actor       string
	Description string

	// Mutate applies field changes that accompany the status change.
	Mutate func(r *entity.Refund)
}

// Apply validates t against the current status and returns the successor record with
// exactly one ledger entry appended. r is never modified.
func Apply(r *entity.Refund, t Transition, now Clock) (*entity.Refund, error) {
	if !Machine.Can(r.Status, t.To) {
		return nil, invalidTransition(r, string(t.To))
	}

	at := now()
	if last, err := r.Ledger.Last(); err == nil && at.Before(last.Timestamp) {
		at = last.Timestamp
	}

	next := r.Clone()
	from := next.Status
	next.Status = t.To
	if t.Mutate != nil {
		t.Mutate(next)
	}

	if from == entity.RefundStatusPending && next.ProcessedAt == nil {
		next.ProcessedAt = &at
		if t.Actor != "" {
			actor := t.Actor
			next.ProcessedBy = &actor
		}
	}
	if t.To == entity.RefundStatusCompleted {
		next.CompletedAt = &at
	} else {
		next.CompletedAt = nil
	}

	ledger, err := next.Ledger.Append(entity.RefundLedgerEntry{
		Status:      t.To,
		Timestamp:   at,
		Description: t.Description,
		Actor:       t.Actor,
		Kind:        workflow.KindTransition,
	})
	if err != nil {
		return nil, err
	}
	next.Ledger = ledger
	next.UpdatedAt = at
	return next, nil
}

// Note appends a non-transition audit entry carrying the current status.
func Note(r *entity.Refund, actor, description string, now Clock) (*entity.Refund, error) {
	at := now()
	if last, err := r.Ledger.Last(); err == nil && at.Before(last.Timestamp) {
		at = last.Timestamp
	}
	next := r.Clone()
	ledger, err := next.Ledger.Append(entity.RefundLedgerEntry{
		Status:      r.Status,
		Timestamp:   at,
		Description: description,
		Actor:       actor,
		Kind:        workflow.KindNote,
	})
	if err != nil {
		return nil, err
	}
	next.Ledger = ledger
	next.UpdatedAt = at
	return next, nil
}

// CheckInvariants reports the first broken at-rest invariant of r, or nil.
func CheckInvariants(r *entity.Refund) error {
	switch {
	case r.RefundAmount <= 0 || r.OriginalAmount <= 0:
		return errors.New("amounts must be positive")
	case r.RefundAmount > r.OriginalAmount:
		return errors.New("refund amount exceeds original amount")
	case (r.Type == entity.RefundTypeFull) != (r.RefundAmount == r.OriginalAmount):
		return errors.New("full refunds must equal the original amount")
	case len(r.Ledger) == 0:
		return workflow.ErrEmptyLedger
	case r.Ledger[0].Status != entity.RefundStatusPending:
		return errors.New("ledger must start at pending")
	case r.Ledger[len(r.Ledger)-1].Status != r.Status:
		return errors.New("ledger tail does not match status")
	case !Machine.ValidWalk(r.Ledger.Walk()):
		return errors.New("ledger is not a valid walk of the transition graph")
	case !r.Ledger.Monotonic():
		return workflow.ErrTimestampRegressed
	case (r.CompletedAt != nil) != (r.Status == entity.RefundStatusCompleted):
		return errors.New("completedAt must be set exactly when completed")
	case r.Status != entity.RefundStatusPending && r.ProcessedAt == nil:
		return errors.New("processedAt must be set once the record leaves pending")
	case reapprovals(r.Ledger.Walk()) != r.RetryCount:
		return errors.New("every re-approval of a failed record must count as a retry")
	}
	return nil
}

func reapprovals(walk []entity.RefundStatus) int {
	n := 0
	for i := 1; i < len(walk); i++ {
		if walk[i-1] == entity.RefundStatusFailed && walk[i] == entity.RefundStatusApproved {
			n++
		}
	}
	return n
}
