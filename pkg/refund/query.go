package refund

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/repository/contract"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Query is the caller-facing filter. Statuses and reasons arrive as raw strings.
type Query struct {
	Timeframe string
	Status    string
	Reason    string
	Search    string
	Page      int
	Limit     int
}

type Page struct {
	Items []*entity.Refund
	Total int64
	Page  int
	Limit int
}

// QueryService is the read side. It never writes.
type QueryService struct {
	repo contract.RefundRepository
	now  Clock
}

func NewQueryService(repo contract.RefundRepository, now Clock) *QueryService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &QueryService{repo: repo, now: now}
}

// ParseTimeframe accepts "7d" or "7" style windows of 7, 30, 90 or 365 days.
func ParseTimeframe(s string) (int, error) {
	raw := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "d")
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid timeframe %q", s)
	}
	switch days {
	case 7, 30, 90, 365:
		return days, nil
	}
	return 0, fmt.Errorf("unsupported timeframe %q (use 7d, 30d, 90d or 365d)", s)
}

// Cutoff is the start of the UTC day that lies days before now. Records requested at
// or after it fall inside the window.
func Cutoff(now time.Time, days int) time.Time {
	y, m, d := now.UTC().AddDate(0, 0, -days).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Filter converts q into a repository filter, reporting bad values as a ValidationError.
func (s *QueryService) Filter(q Query) (contract.RefundFilter, error) {
	var f contract.RefundFilter
	verr := &ValidationError{}

	if q.Timeframe != "" {
		days, err := ParseTimeframe(q.Timeframe)
		if err != nil {
			verr.add("timeframe", err.Error())
		} else {
			since := Cutoff(s.now(), days)
			f.RequestedSince = &since
		}
	}
	if q.Status != "" {
		for _, raw := range strings.Split(q.Status, ",") {
			st, ok := entity.ParseRefundStatus(strings.TrimSpace(raw))
			if !ok {
				verr.add("status", "unknown status "+quote(raw))
				continue
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	if q.Reason != "" {
		for _, raw := range strings.Split(q.Reason, ",") {
			r, ok := entity.ParseRefundReason(strings.TrimSpace(raw))
			if !ok {
				verr.add("reason", "unknown reason "+quote(raw))
				continue
			}
			f.Reasons = append(f.Reasons, r)
		}
	}
	f.Search = strings.TrimSpace(q.Search)
	return f, verr.orNil()
}

// List returns one page of matches, newest first.
func (s *QueryService) List(ctx context.Context, q Query) (*Page, error) {
	f, err := s.Filter(q)
	if err != nil {
		return nil, err
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)

	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count refunds: %w", err)
	}
	f.Limit = limit
	f.Offset = (page - 1) * limit
	items, err := s.repo.FindAll(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	return &Page{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Summary counts matches and sums refund amounts per status. Pagination fields of q
// are ignored.
func (s *QueryService) Summary(ctx context.Context, q Query) (*entity.RefundSummary, error) {
	f, err := s.Filter(q)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.FindAll(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}

	sum := &entity.RefundSummary{
		ByStatus: make(map[entity.RefundStatus]int, len(entity.AllRefundStatuses)),
		Amount:   make(map[entity.RefundStatus]int64, len(entity.AllRefundStatuses)),
	}
	for _, st := range entity.AllRefundStatuses {
		sum.ByStatus[st] = 0
		sum.Amount[st] = 0
	}
	for _, r := range items {
		sum.Total++
		sum.ByStatus[r.Status]++
		sum.Amount[r.Status] += r.RefundAmount
	}
	return sum, nil
}
