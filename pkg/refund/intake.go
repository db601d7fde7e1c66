package refund

import (
	"strings"
	"time"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/pkg/workflow"

	"github.com/google/uuid"
)

// IntakeRequest carries the fields a customer or staff member submits.
type IntakeRequest struct {
	OrderRef               string
	CustomerRef            string
	OriginalAmount         int64
	RefundAmount           int64
	Currency               string
	Reason                 string
	Type                   string
	Method                 string
	Notes                  string
	CustomerNotes          string
	Attachments            []string
	GatewayRef             string
	OriginalTransactionRef string
	Actor                  string
}

// OrderInfo is what the order collaborator knows about an order.
type OrderInfo struct {
	Ref                    string
	Number                 string
	CustomerRef            string
	Amount                 int64
	Currency               string
	PlacedAt               time.Time
	GatewayRef             string
	OriginalTransactionRef string

	// DuplicateOf is set when another order looks like a double submission of this one.
	DuplicateOf string
}

// CustomerInfo is what the customer collaborator knows about a customer.
type CustomerInfo struct {
	Ref     string
	Name    string
	Email   string
	Flagged bool
}

// BuildRefund validates req against the collaborator data and returns a new pending
// record with its seed ledger entry. Nothing is persisted here.
func BuildRefund(req IntakeRequest, order *OrderInfo, customer *CustomerInfo, at time.Time) (*entity.Refund, error) {
	verr := &ValidationError{}

	if strings.TrimSpace(req.OrderRef) == "" {
		verr.add("order_ref", "is required")
	}
	if strings.TrimSpace(req.CustomerRef) == "" {
		verr.add("customer_ref", "is required")
	}
	reason, ok := entity.ParseRefundReason(req.Reason)
	if !ok {
		verr.add("reason", "unknown reason "+quote(req.Reason))
	}
	refundType, ok := entity.ParseRefundType(req.Type)
	if !ok {
		verr.add("type", "unknown type "+quote(req.Type))
	}
	method, ok := entity.ParseRefundMethod(req.Method)
	if !ok {
		verr.add("method", "unknown method "+quote(req.Method))
	}

	if req.OrderRef != "" && order == nil {
		verr.add("order_ref", "order not found")
	}
	if req.CustomerRef != "" && customer == nil {
		verr.add("customer_ref", "customer not found")
	}
	if order != nil && customer != nil && order.CustomerRef != "" && order.CustomerRef != customer.Ref {
		verr.add("customer_ref", "order does not belong to customer")
	}

	original := req.OriginalAmount
	if original == 0 && order != nil {
		original = order.Amount
	}
	refundAmount := req.RefundAmount
	if refundAmount == 0 && refundType == entity.RefundTypeFull {
		refundAmount = original
	}

	switch {
	case original <= 0:
		verr.add("original_amount", "must be positive")
	case order != nil && order.Amount > 0 && original > order.Amount:
		verr.add("original_amount", "exceeds order total")
	}
	switch {
	case refundAmount <= 0:
		verr.add("refund_amount", "must be positive")
	case refundAmount > original:
		verr.add("refund_amount", "exceeds original amount")
	case refundType == entity.RefundTypeFull && refundAmount != original:
		verr.add("type", "full refund must equal the original amount")
	case refundType == entity.RefundTypePartial && refundAmount == original:
		verr.add("type", "partial refund must be less than the original amount")
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" && order != nil {
		currency = strings.ToUpper(order.Currency)
	}
	if len(currency) != 3 {
		verr.add("currency", "must be a 3-letter ISO code")
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}

	actor := req.Actor
	if actor == "" {
		actor = req.CustomerRef
	}

	r := &entity.Refund{
		ID:             uuid.New(),
		OrderRef:       req.OrderRef,
		CustomerRef:    req.CustomerRef,
		OrderNumber:    order.Number,
		CustomerName:   customer.Name,
		CustomerEmail:  customer.Email,
		OriginalAmount: original,
		RefundAmount:   refundAmount,
		Currency:       currency,
		Reason:         reason,
		Type:           refundType,
		Method:         method,
		Status:         entity.RefundStatusPending,
		RequestedAt:    at,
		Notes:          req.Notes,
		CustomerNotes:  req.CustomerNotes,
		Attachments:    append([]string(nil), req.Attachments...),
		Automation:     entity.DefaultAutomation(),
		Ledger:         workflow.Seed(entity.RefundStatusPending, at, "Refund requested", actor),
		Version:        1,
		UpdatedAt:      at,
	}
	r.GatewayRef = firstNonEmpty(req.GatewayRef, order.GatewayRef)
	r.OriginalTransactionRef = firstNonEmpty(req.OriginalTransactionRef, order.OriginalTransactionRef)
	return r, nil
}

func firstNonEmpty(values ...string) *string {
	for _, v := range values {
		if v != "" {
			s := v
			return &s
		}
	}
	return nil
}

func quote(s string) string {
	return "\"" + s + "\""
}
