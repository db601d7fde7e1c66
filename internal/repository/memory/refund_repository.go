package memory

import (
	"context"
	"sync"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// RefundRepository keeps records in process memory. Records are cloned on the way
// in and out so callers never share state with the store.
type RefundRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewRefundRepository() *RefundRepository {
	// Refund records never expire and are never purged.
	return &RefundRepository{cache: cache.New(cache.NoExpiration, 0)}
}

func (r *RefundRepository) Create(_ context.Context, refund *entity.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.cache.Add(refund.ID.String(), refund.Clone(), cache.NoExpiration); err != nil {
		return contract.ErrDuplicateID
	}
	return nil
}

func (r *RefundRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Refund, error) {
	if x, found := r.cache.Get(id.String()); found {
		return x.(*entity.Refund).Clone(), nil
	}
	return nil, nil
}

func (r *RefundRepository) all() []*entity.Refund {
	items := r.cache.Items()
	out := make([]*entity.Refund, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*entity.Refund))
	}
	return out
}

func (r *RefundRepository) FindAll(_ context.Context, f contract.RefundFilter) ([]*entity.Refund, error) {
	selected := SelectRefunds(r.all(), f)
	out := make([]*entity.Refund, len(selected))
	for i, s := range selected {
		out[i] = s.Clone()
	}
	return out, nil
}

func (r *RefundRepository) Count(_ context.Context, f contract.RefundFilter) (int64, error) {
	f.Limit, f.Offset = 0, 0
	return int64(len(SelectRefunds(r.all(), f))), nil
}

func (r *RefundRepository) Save(_ context.Context, refund *entity.Refund, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(refund.ID.String())
	if !found || x.(*entity.Refund).Version != expectedVersion {
		return contract.ErrVersionConflict
	}
	refund.Version = expectedVersion + 1
	r.cache.Set(refund.ID.String(), refund.Clone(), cache.NoExpiration)
	return nil
}
