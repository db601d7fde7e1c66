package contract

import (
	"context"

	"refund-lifecycle-be/internal/entity"

	"github.com/google/uuid"
)

type ProductionFilter struct {
	Statuses []entity.ProductionStatus
	OrderRef string
}

type ProductionRepository interface {
	Create(ctx context.Context, item *entity.ProductionItem) error
	// FindByID returns nil, nil when the item does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ProductionItem, error)
	// FindAll returns matches ordered by priority (most pressing first), then oldest first.
	FindAll(ctx context.Context, filter ProductionFilter) ([]*entity.ProductionItem, error)
	// Save is a version compare-and-swap with the same contract as RefundRepository.Save.
	Save(ctx context.Context, item *entity.ProductionItem, expectedVersion int64) error
}
