package memory

import (
	"context"
	"sync"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type ProductionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewProductionRepository() *ProductionRepository {
	return &ProductionRepository{cache: cache.New(cache.NoExpiration, 0)}
}

func (r *ProductionRepository) Create(_ context.Context, item *entity.ProductionItem) error {
	if err := r.cache.Add(item.ID.String(), item.Clone(), cache.NoExpiration); err != nil {
		return contract.ErrDuplicateID
	}
	return nil
}

func (r *ProductionRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.ProductionItem, error) {
	if x, found := r.cache.Get(id.String()); found {
		return x.(*entity.ProductionItem).Clone(), nil
	}
	return nil, nil
}

func (r *ProductionRepository) FindAll(_ context.Context, f contract.ProductionFilter) ([]*entity.ProductionItem, error) {
	items := r.cache.Items()
	all := make([]*entity.ProductionItem, 0, len(items))
	for _, item := range items {
		all = append(all, item.Object.(*entity.ProductionItem))
	}
	selected := SelectProductionItems(all, f)
	out := make([]*entity.ProductionItem, len(selected))
	for i, s := range selected {
		out[i] = s.Clone()
	}
	return out, nil
}

func (r *ProductionRepository) Save(_ context.Context, item *entity.ProductionItem, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(item.ID.String())
	if !found || x.(*entity.ProductionItem).Version != expectedVersion {
		return contract.ErrVersionConflict
	}
	item.Version = expectedVersion + 1
	r.cache.Set(item.ID.String(), item.Clone(), cache.NoExpiration)
	return nil
}
