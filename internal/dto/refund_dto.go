package dto

import (
	"time"

	"github.com/google/uuid"
)

// --- Intake ---

type CreateRefundRequest struct {
	OrderRef               string   `json:"orderRef" validate:"required"`
	CustomerRef            string   `json:"customerRef"`
	OriginalAmount         int64    `json:"originalAmount" validate:"gte=0"`
	RefundAmount           int64    `json:"refundAmount" validate:"gte=0"`
	Currency               string   `json:"currency" validate:"omitempty,len=3"`
	Reason                 string   `json:"reason"`
	Type                   string   `json:"type"`
	Method                 string   `json:"method"`
	Notes                  string   `json:"notes"`
	CustomerNotes          string   `json:"customerNotes"`
	Attachments            []string `json:"attachments" validate:"max=20,dive,required"`
	GatewayRef             string   `json:"gatewayRef"`
	OriginalTransactionRef string   `json:"originalTransactionRef"`
}

// --- Actions ---

type RefundActionRequest struct {
	Note string `json:"note"`
}

type CompleteRefundRequest struct {
	TransactionRef string `json:"transactionRef" validate:"required"`
}

// --- Responses ---

type LedgerEntryResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	Actor       string    `json:"actor"`
	Kind        string    `json:"kind"`
}

type AutomationResponse struct {
	IsAutomatic bool       `json:"isAutomatic"`
	RuleId      *string    `json:"ruleId"`
	Confidence  int        `json:"confidence"`
	Suggestion  *string    `json:"suggestion,omitempty"`
	EvaluatedAt *time.Time `json:"evaluatedAt,omitempty"`
}

type RefundResponse struct {
	Id                     uuid.UUID             `json:"id"`
	OrderRef               string                `json:"orderRef"`
	CustomerRef            string                `json:"customerRef"`
	OrderNumber            string                `json:"orderNumber"`
	CustomerName           string                `json:"customerName"`
	CustomerEmail          string                `json:"customerEmail,omitempty"`
	OriginalAmount         int64                 `json:"originalAmount"`
	RefundAmount           int64                 `json:"refundAmount"`
	Currency               string                `json:"currency"`
	Reason                 string                `json:"reason"`
	Type                   string                `json:"type"`
	Method                 string                `json:"method"`
	Status                 string                `json:"status"`
	RequestedAt            time.Time             `json:"requestedAt"`
	ProcessedAt            *time.Time            `json:"processedAt"`
	CompletedAt            *time.Time            `json:"completedAt"`
	ProcessedBy            *string               `json:"processedBy"`
	ApprovedBy             *string               `json:"approvedBy"`
	GatewayRef             *string               `json:"gatewayRef"`
	OriginalTransactionRef *string               `json:"originalTransactionRef"`
	RefundTransactionRef   *string               `json:"refundTransactionRef"`
	Notes                  string                `json:"notes"`
	CustomerNotes          string                `json:"customerNotes"`
	Attachments            []string              `json:"attachments"`
	Ledger                 []LedgerEntryResponse `json:"ledger"`
	Automation             AutomationResponse    `json:"automation"`
	RetryCount             int                   `json:"retryCount"`
	NextRetryAt            *time.Time            `json:"nextRetryAt,omitempty"`
	Version                int64                 `json:"version"`
}

// RefundListItem is the list projection; the ledger is served separately.
type RefundListItem struct {
	Id           uuid.UUID          `json:"id"`
	OrderNumber  string             `json:"orderNumber"`
	CustomerName string             `json:"customerName"`
	RefundAmount int64              `json:"refundAmount"`
	Currency     string             `json:"currency"`
	Reason       string             `json:"reason"`
	Type         string             `json:"type"`
	Status       string             `json:"status"`
	RequestedAt  time.Time          `json:"requestedAt"`
	Automation   AutomationResponse `json:"automation"`
}

type RefundListResponse struct {
	Items []RefundListItem `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type RefundSummaryResponse struct {
	Total    int              `json:"total"`
	ByStatus map[string]int   `json:"byStatus"`
	Amount   map[string]int64 `json:"amount"`
}
