package memory

import (
	"slices"
	"sort"
	"strings"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/repository/contract"
)

// MatchRefund reports whether r satisfies every set field of f.
func MatchRefund(r *entity.Refund, f contract.RefundFilter) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status) {
		return false
	}
	if len(f.Reasons) > 0 && !slices.Contains(f.Reasons, r.Reason) {
		return false
	}
	if f.RequestedSince != nil && r.RequestedAt.Before(*f.RequestedSince) {
		return false
	}
	if f.CustomerRef != "" && r.CustomerRef != f.CustomerRef {
		return false
	}
	if f.ExcludeID != nil && r.ID == *f.ExcludeID {
		return false
	}
	if f.RetryDueBefore != nil && (r.NextRetryAt == nil || r.NextRetryAt.After(*f.RetryDueBefore)) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.OrderNumber), q) &&
			!strings.Contains(strings.ToLower(r.CustomerName), q) &&
			!strings.Contains(strings.ToLower(r.CustomerEmail), q) {
			return false
		}
	}
	return true
}

// SelectRefunds filters, orders newest first and paginates.
func SelectRefunds(all []*entity.Refund, f contract.RefundFilter) []*entity.Refund {
	out := make([]*entity.Refund, 0, len(all))
	for _, r := range all {
		if MatchRefund(r, f) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.After(out[j].RequestedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []*entity.Refund{}
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out
}

// SelectProductionItems filters and orders by priority, then oldest first.
func SelectProductionItems(all []*entity.ProductionItem, f contract.ProductionFilter) []*entity.ProductionItem {
	out := make([]*entity.ProductionItem, 0, len(all))
	for _, item := range all {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, item.Status) {
			continue
		}
		if f.OrderRef != "" && item.OrderRef != f.OrderRef {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank(); ri != rj {
			return ri > rj
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
