package mapper

import (
	"refund-lifecycle-be/internal/dto"
	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/pkg/refund"
	"refund-lifecycle-be/pkg/workflow"
)

type RefundMapper struct{}

func NewRefundMapper() *RefundMapper {
	return &RefundMapper{}
}

func (m *RefundMapper) ToIntake(req *dto.CreateRefundRequest, actor string) refund.IntakeRequest {
	return refund.IntakeRequest{
		OrderRef:               req.OrderRef,
		CustomerRef:            req.CustomerRef,
		OriginalAmount:         req.OriginalAmount,
		RefundAmount:           req.RefundAmount,
		Currency:               req.Currency,
		Reason:                 req.Reason,
		Type:                   req.Type,
		Method:                 req.Method,
		Notes:                  req.Notes,
		CustomerNotes:          req.CustomerNotes,
		Attachments:            req.Attachments,
		GatewayRef:             req.GatewayRef,
		OriginalTransactionRef: req.OriginalTransactionRef,
		Actor:                  actor,
	}
}

func (m *RefundMapper) ToResponse(r *entity.Refund) *dto.RefundResponse {
	if r == nil {
		return nil
	}

	attachments := r.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	return &dto.RefundResponse{
		Id:                     r.ID,
		OrderRef:               r.OrderRef,
		CustomerRef:            r.CustomerRef,
		OrderNumber:            r.OrderNumber,
		CustomerName:           r.CustomerName,
		CustomerEmail:          r.CustomerEmail,
		OriginalAmount:         r.OriginalAmount,
		RefundAmount:           r.RefundAmount,
		Currency:               r.Currency,
		Reason:                 string(r.Reason),
		Type:                   string(r.Type),
		Method:                 string(r.Method),
		Status:                 string(r.Status),
		RequestedAt:            r.RequestedAt,
		ProcessedAt:            r.ProcessedAt,
		CompletedAt:            r.CompletedAt,
		ProcessedBy:            r.ProcessedBy,
		ApprovedBy:             r.ApprovedBy,
		GatewayRef:             r.GatewayRef,
		OriginalTransactionRef: r.OriginalTransactionRef,
		RefundTransactionRef:   r.RefundTransactionRef,
		Notes:                  r.Notes,
		CustomerNotes:          r.CustomerNotes,
		Attachments:            attachments,
		Ledger:                 LedgerToResponse(r.Ledger),
		Automation:             m.automation(r.Automation),
		RetryCount:             r.RetryCount,
		NextRetryAt:            r.NextRetryAt,
		Version:                r.Version,
	}
}

func (m *RefundMapper) ToListItem(r *entity.Refund) dto.RefundListItem {
	return dto.RefundListItem{
		Id:           r.ID,
		OrderNumber:  r.OrderNumber,
		CustomerName: r.CustomerName,
		RefundAmount: r.RefundAmount,
		Currency:     r.Currency,
		Reason:       string(r.Reason),
		Type:         string(r.Type),
		Status:       string(r.Status),
		RequestedAt:  r.RequestedAt,
		Automation:   m.automation(r.Automation),
	}
}

func (m *RefundMapper) ToListResponse(p *refund.Page) *dto.RefundListResponse {
	items := make([]dto.RefundListItem, 0, len(p.Items))
	for _, r := range p.Items {
		items = append(items, m.ToListItem(r))
	}
	return &dto.RefundListResponse{Items: items, Total: p.Total, Page: p.Page, Limit: p.Limit}
}

func (m *RefundMapper) ToSummaryResponse(s *entity.RefundSummary) *dto.RefundSummaryResponse {
	res := &dto.RefundSummaryResponse{
		Total:    s.Total,
		ByStatus: make(map[string]int, len(s.ByStatus)),
		Amount:   make(map[string]int64, len(s.Amount)),
	}
	for st, n := range s.ByStatus {
		res.ByStatus[string(st)] = n
	}
	for st, amount := range s.Amount {
		res.Amount[string(st)] = amount
	}
	return res
}

func (m *RefundMapper) automation(a entity.RefundAutomation) dto.AutomationResponse {
	res := dto.AutomationResponse{
		IsAutomatic: a.IsAutomatic,
		RuleId:      a.RuleID,
		Confidence:  a.Confidence,
		EvaluatedAt: a.EvaluatedAt,
	}
	if a.Suggestion != nil {
		s := string(*a.Suggestion)
		res.Suggestion = &s
	}
	return res
}

// LedgerToResponse maps any status ledger to its wire form.
func LedgerToResponse[S ~string](l workflow.Ledger[S]) []dto.LedgerEntryResponse {
	out := make([]dto.LedgerEntryResponse, 0, len(l))
	for _, e := range l {
		kind := e.Kind
		if kind == "" {
			kind = workflow.KindTransition
		}
		out = append(out, dto.LedgerEntryResponse{
			Status:      string(e.Status),
			Timestamp:   e.Timestamp,
			Description: e.Description,
			Actor:       e.Actor,
			Kind:        string(kind),
		})
	}
	return out
}
