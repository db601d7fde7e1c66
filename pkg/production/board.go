package production

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/pkg/logger"
	"refund-lifecycle-be/internal/repository/contract"
	"refund-lifecycle-be/pkg/workflow"

	"github.com/google/uuid"
)

var (
	ErrNotFound               = errors.New("production item not found")
	ErrConcurrentModification = contract.ErrVersionConflict
)

// Machine is the production-status transition table.
var Machine = workflow.NewMachine(entity.ProductionStatusQueued, map[entity.ProductionStatus][]entity.ProductionStatus{
	entity.ProductionStatusQueued: {
		entity.ProductionStatusInProduction,
		entity.ProductionStatusOnHold,
		entity.ProductionStatusCancelled,
	},
	entity.ProductionStatusInProduction: {
		entity.ProductionStatusQualityCheck,
		entity.ProductionStatusOnHold,
		entity.ProductionStatusCancelled,
	},
	entity.ProductionStatusQualityCheck: {
		entity.ProductionStatusReadyToShip,
		entity.ProductionStatusInProduction,
	},
	entity.ProductionStatusOnHold: {
		entity.ProductionStatusInProduction,
		entity.ProductionStatusCancelled,
	},
	entity.ProductionStatusReadyToShip: {
		entity.ProductionStatusShipped,
	},
	entity.ProductionStatusShipped:   {},
	entity.ProductionStatusCancelled: {},
})

// ValidationError lists the fields of a create request that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type Notifier interface {
	ProductionScheduled(ctx context.Context, item *entity.ProductionItem)
	ProductionAdvanced(ctx context.Context, item *entity.ProductionItem, from entity.ProductionStatus)
}

type NopNotifier struct{}

func (NopNotifier) ProductionScheduled(context.Context, *entity.ProductionItem) {}

func (NopNotifier) ProductionAdvanced(context.Context, *entity.ProductionItem, entity.ProductionStatus) {}

type CreateItemRequest struct {
	OrderRef    string
	ItemRef     string
	ProductName string
	Quantity    int
	Priority    string
	AssignedTo  string
	Actor       string
}

// Column is one board lane.
type Column struct {
	Status entity.ProductionStatus
	Items  []*entity.ProductionItem
}

type Board struct {
	repo     contract.ProductionRepository
	notifier Notifier
	logger   logger.ILogger
	now      func() time.Time
}

func NewBoard(repo contract.ProductionRepository, notifier Notifier, log logger.ILogger, now func() time.Time) *Board {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Board{repo: repo, notifier: notifier, logger: log, now: now}
}

func (b *Board) Create(ctx context.Context, req CreateItemRequest) (*entity.ProductionItem, error) {
	fields := map[string]string{}
	if strings.TrimSpace(req.OrderRef) == "" {
		fields["order_ref"] = "is required"
	}
	if strings.TrimSpace(req.ProductName) == "" {
		fields["product_name"] = "is required"
	}
	if req.Quantity <= 0 {
		fields["quantity"] = "must be positive"
	}
	priority := entity.ProductionPriorityNormal
	if req.Priority != "" {
		p, ok := entity.ParseProductionPriority(req.Priority)
		if !ok {
			fields["priority"] = fmt.Sprintf("unknown priority %q", req.Priority)
		}
		priority = p
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	actor := req.Actor
	if actor == "" {
		actor = entity.SystemActor
	}
	at := b.now()
	item := &entity.ProductionItem{
		ID:          uuid.New(),
		OrderRef:    req.OrderRef,
		ItemRef:     req.ItemRef,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		Priority:    priority,
		Status:      entity.ProductionStatusQueued,
		History:     workflow.Seed(entity.ProductionStatusQueued, at, "Queued for production", actor),
		Version:     1,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	if req.AssignedTo != "" {
		a := req.AssignedTo
		item.AssignedTo = &a
	}

	if err := b.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to store production item: %w", err)
	}
	b.logger.Info("PRODUCTION", "Item queued", map[string]interface{}{
		"item_id":   item.ID.String(),
		"order_ref": item.OrderRef,
		"priority":  string(item.Priority),
	})
	b.notifier.ProductionScheduled(ctx, item)
	return item, nil
}

func (b *Board) Get(ctx context.Context, id uuid.UUID) (*entity.ProductionItem, error) {
	item, err := b.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return item, nil
}

// Advance moves an item to status to, appending one history entry.
func (b *Board) Advance(ctx context.Context, id uuid.UUID, to entity.ProductionStatus, actor, note string) (*entity.ProductionItem, error) {
	current, err := b.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Machine.Validate(current.Status, to); err != nil {
		return nil, err
	}

	at := b.now()
	if last, err := current.History.Last(); err == nil && at.Before(last.Timestamp) {
		at = last.Timestamp
	}
	desc := fmt.Sprintf("Moved to %s by %s", to, actor)
	if note != "" {
		desc += ": " + note
	}

	next := current.Clone()
	next.Status = to
	history, err := next.History.Append(workflow.Entry[entity.ProductionStatus]{
		Status:      to,
		Timestamp:   at,
		Description: desc,
		Actor:       actor,
	})
	if err != nil {
		return nil, err
	}
	next.History = history
	next.UpdatedAt = at

	if err := b.repo.Save(ctx, next, current.Version); err != nil {
		if errors.Is(err, contract.ErrVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save production item %s: %w", id, err)
	}

	b.logger.Info("PRODUCTION", "Item advanced", map[string]interface{}{
		"item_id": id.String(),
		"from":    string(current.Status),
		"to":      string(to),
		"actor":   actor,
	})
	b.notifier.ProductionAdvanced(ctx, next, current.Status)
	return next, nil
}

// Columns returns one column per status, in workflow order. Items within a column are
// ordered by priority, then age.
func (b *Board) Columns(ctx context.Context, orderRef string) ([]Column, error) {
	items, err := b.repo.FindAll(ctx, contract.ProductionFilter{OrderRef: orderRef})
	if err != nil {
		return nil, fmt.Errorf("failed to list production items: %w", err)
	}

	index := make(map[entity.ProductionStatus]int, len(entity.AllProductionStatuses))
	columns := make([]Column, len(entity.AllProductionStatuses))
	for i, st := range entity.AllProductionStatuses {
		index[st] = i
		columns[i] = Column{Status: st, Items: []*entity.ProductionItem{}}
	}
	for _, item := range items {
		if i, ok := index[item.Status]; ok {
			columns[i].Items = append(columns[i].Items, item)
		}
	}
	return columns, nil
}
