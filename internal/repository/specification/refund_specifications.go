package specification

import (
	"strings"
	"time"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByRefundStatuses struct {
	Statuses []entity.RefundStatus
}

func (s ByRefundStatuses) Apply(db *gorm.DB) *gorm.DB {
	values := make([]string, len(s.Statuses))
	for i, st := range s.Statuses {
		values[i] = string(st)
	}
	return db.Where("status IN ?", values)
}

type ByRefundReasons struct {
	Reasons []entity.RefundReason
}

func (s ByRefundReasons) Apply(db *gorm.DB) *gorm.DB {
	values := make([]string, len(s.Reasons))
	for i, r := range s.Reasons {
		values[i] = string(r)
	}
	return db.Where("reason IN ?", values)
}

type RequestedSince struct {
	Since time.Time
}

func (s RequestedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("requested_at >= ?", s.Since)
}

// RefundSearchQuery matches order number, customer name or customer email.
type RefundSearchQuery struct {
	Query string
}

func (s RefundSearchQuery) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + strings.ToLower(s.Query) + "%"
	return db.Where("LOWER(order_number) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(customer_email) LIKE ?",
		pattern, pattern, pattern)
}

type ExcludeID struct {
	ID uuid.UUID
}

func (s ExcludeID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id <> ?", s.ID)
}

// RetryDueBefore selects records with a scheduled retry at or before At.
type RetryDueBefore struct {
	At time.Time
}

func (s RetryDueBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("next_retry_at IS NOT NULL AND next_retry_at <= ?", s.At)
}

// RefundFilterSpecs translates a repository filter into specifications, without
// ordering or pagination.
func RefundFilterSpecs(f contract.RefundFilter) []Specification {
	var specs []Specification
	if len(f.Statuses) > 0 {
		specs = append(specs, ByRefundStatuses{Statuses: f.Statuses})
	}
	if len(f.Reasons) > 0 {
		specs = append(specs, ByRefundReasons{Reasons: f.Reasons})
	}
	if f.RequestedSince != nil {
		specs = append(specs, RequestedSince{Since: *f.RequestedSince})
	}
	if f.Search != "" {
		specs = append(specs, RefundSearchQuery{Query: f.Search})
	}
	if f.CustomerRef != "" {
		specs = append(specs, Filter("customer_ref", f.CustomerRef))
	}
	if f.ExcludeID != nil {
		specs = append(specs, ExcludeID{ID: *f.ExcludeID})
	}
	if f.RetryDueBefore != nil {
		specs = append(specs, RetryDueBefore{At: *f.RetryDueBefore})
	}
	return specs
}

// ByProductionStatuses filters production items by status.
type ByProductionStatuses struct {
	Statuses []entity.ProductionStatus
}

func (s ByProductionStatuses) Apply(db *gorm.DB) *gorm.DB {
	values := make([]string, len(s.Statuses))
	for i, st := range s.Statuses {
		values[i] = string(st)
	}
	return db.Where("status IN ?", values)
}
