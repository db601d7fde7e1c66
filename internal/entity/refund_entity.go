package entity

import (
	"time"

	"refund-lifecycle-be/pkg/workflow"

	"github.com/google/uuid"
)

// SystemActor is the actor recorded for automated decisions.
const SystemActor = "system"

// RefundStatus represents the lifecycle state of a refund request
type RefundStatus string

const (
	RefundStatusPending    RefundStatus = "pending"
	RefundStatusProcessing RefundStatus = "processing"
	RefundStatusApproved   RefundStatus = "approved"
	RefundStatusRejected   RefundStatus = "rejected"
	RefundStatusCompleted  RefundStatus = "completed"
	RefundStatusFailed     RefundStatus = "failed"
	RefundStatusCancelled  RefundStatus = "cancelled"
)

var AllRefundStatuses = []RefundStatus{
	RefundStatusPending,
	RefundStatusProcessing,
	RefundStatusApproved,
	RefundStatusRejected,
	RefundStatusCompleted,
	RefundStatusFailed,
	RefundStatusCancelled,
}

func ParseRefundStatus(s string) (RefundStatus, bool) {
	for _, st := range AllRefundStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

type RefundReason string

const (
	RefundReasonCustomerRequest  RefundReason = "customer_request"
	RefundReasonDefectiveProduct RefundReason = "defective_product"
	RefundReasonShippingIssue    RefundReason = "shipping_issue"
	RefundReasonDuplicateOrder   RefundReason = "duplicate_order"
	RefundReasonFraud            RefundReason = "fraud"
	RefundReasonOther            RefundReason = "other"
)

var AllRefundReasons = []RefundReason{
	RefundReasonCustomerRequest,
	RefundReasonDefectiveProduct,
	RefundReasonShippingIssue,
	RefundReasonDuplicateOrder,
	RefundReasonFraud,
	RefundReasonOther,
}

func ParseRefundReason(s string) (RefundReason, bool) {
	for _, r := range AllRefundReasons {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

type RefundType string

const (
	RefundTypeFull    RefundType = "full"
	RefundTypePartial RefundType = "partial"
)

func ParseRefundType(s string) (RefundType, bool) {
	switch RefundType(s) {
	case RefundTypeFull, RefundTypePartial:
		return RefundType(s), true
	}
	return "", false
}

type RefundMethod string

const (
	RefundMethodOriginalPayment RefundMethod = "original_payment"
	RefundMethodStoreCredit     RefundMethod = "store_credit"
	RefundMethodBankTransfer    RefundMethod = "bank_transfer"
	RefundMethodCash            RefundMethod = "cash"
)

func ParseRefundMethod(s string) (RefundMethod, bool) {
	switch RefundMethod(s) {
	case RefundMethodOriginalPayment, RefundMethodStoreCredit, RefundMethodBankTransfer, RefundMethodCash:
		return RefundMethod(s), true
	}
	return "", false
}

// RefundDecision is the opinion an automation rule forms about a request
type RefundDecision string

const (
	RefundDecisionApprove RefundDecision = "approve"
	RefundDecisionReject  RefundDecision = "reject"
)

type RefundLedgerEntry = workflow.Entry[RefundStatus]

type RefundLedger = workflow.Ledger[RefundStatus]

// RefundAutomation holds the automation engine's verdict. Confidence is only
// meaningful when IsAutomatic is set; Suggestion and RuleID may be set without it
// when a rule's opinion was attached for reviewer guidance.
type RefundAutomation struct {
	IsAutomatic bool            `json:"is_automatic"`
	RuleID      *string         `json:"rule_id"`
	Confidence  int             `json:"confidence"`
	Suggestion  *RefundDecision `json:"suggestion,omitempty"`
	EvaluatedAt *time.Time      `json:"evaluated_at,omitempty"`
}

// DefaultAutomation is the placeholder attached at intake, before rule evaluation.
func DefaultAutomation() RefundAutomation {
	return RefundAutomation{IsAutomatic: false, Confidence: 50}
}

type Refund struct {
	ID                     uuid.UUID
	OrderRef               string
	CustomerRef            string
	OrderNumber            string
	CustomerName           string
	CustomerEmail          string
	OriginalAmount         int64
	RefundAmount           int64
	Currency               string
	Reason                 RefundReason
	Type                   RefundType
	Method                 RefundMethod
	Status                 RefundStatus
	RequestedAt            time.Time
	ProcessedAt            *time.Time
	CompletedAt            *time.Time
	ProcessedBy            *string
	ApprovedBy             *string
	GatewayRef             *string
	OriginalTransactionRef *string
	RefundTransactionRef   *string
	Notes                  string
	CustomerNotes          string
	Attachments            []string
	Ledger                 RefundLedger
	Automation             RefundAutomation
	RetryCount             int
	NextRetryAt            *time.Time
	LastFailureRetryable   bool
	// AttemptSeq numbers gateway submissions whose outcome is known. It is not
	// advanced after a timeout, so the next call reuses the idempotency key.
	AttemptSeq             int
	Version                int64
	UpdatedAt              time.Time
}

// Clone returns a deep copy so a candidate state can be built without touching the original.
func (r *Refund) Clone() *Refund {
	c := *r
	c.ProcessedAt = cloneTime(r.ProcessedAt)
	c.CompletedAt = cloneTime(r.CompletedAt)
	c.NextRetryAt = cloneTime(r.NextRetryAt)
	c.ProcessedBy = cloneString(r.ProcessedBy)
	c.ApprovedBy = cloneString(r.ApprovedBy)
	c.GatewayRef = cloneString(r.GatewayRef)
	c.OriginalTransactionRef = cloneString(r.OriginalTransactionRef)
	c.RefundTransactionRef = cloneString(r.RefundTransactionRef)
	c.Attachments = append([]string(nil), r.Attachments...)
	c.Ledger = r.Ledger.Clone()
	c.Automation.RuleID = cloneString(r.Automation.RuleID)
	c.Automation.EvaluatedAt = cloneTime(r.Automation.EvaluatedAt)
	if r.Automation.Suggestion != nil {
		s := *r.Automation.Suggestion
		c.Automation.Suggestion = &s
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// RefundSummary counts refunds per status
type RefundSummary struct {
	Total    int
	ByStatus map[RefundStatus]int
	Amount   map[RefundStatus]int64
}
