package boltstore

import (
	"context"
	"encoding/json"
	"fmt"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/repository/contract"
	"refund-lifecycle-be/internal/repository/memory"

	bolt "github.com/boltdb/bolt"
	"github.com/google/uuid"
)

type RefundRepository struct {
	db *DB
}

func NewRefundRepository(db *DB) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) Create(_ context.Context, refund *entity.Refund) error {
	data, err := json.Marshal(refund)
	if err != nil {
		return fmt.Errorf("failed to encode refund: %w", err)
	}
	return r.db.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(refundBucket)
		key := []byte(refund.ID.String())
		if b.Get(key) != nil {
			return contract.ErrDuplicateID
		}
		return b.Put(key, data)
	})
}

func (r *RefundRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Refund, error) {
	var out *entity.Refund
	err := r.db.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(refundBucket).Get([]byte(id.String()))
		if v == nil {
			return nil
		}
		out = &entity.Refund{}
		return json.Unmarshal(v, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RefundRepository) all() ([]*entity.Refund, error) {
	var items []*entity.Refund
	err := r.db.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(refundBucket).ForEach(func(_, v []byte) error {
			var refund entity.Refund
			if err := json.Unmarshal(v, &refund); err != nil {
				return err
			}
			items = append(items, &refund)
			return nil
		})
	})
	return items, err
}

func (r *RefundRepository) FindAll(_ context.Context, f contract.RefundFilter) ([]*entity.Refund, error) {
	items, err := r.all()
	if err != nil {
		return nil, err
	}
	return memory.SelectRefunds(items, f), nil
}

func (r *RefundRepository) Count(_ context.Context, f contract.RefundFilter) (int64, error) {
	items, err := r.all()
	if err != nil {
		return 0, err
	}
	f.Limit, f.Offset = 0, 0
	return int64(len(memory.SelectRefunds(items, f))), nil
}

func (r *RefundRepository) Save(_ context.Context, refund *entity.Refund, expectedVersion int64) error {
	err := r.db.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(refundBucket)
		key := []byte(refund.ID.String())

		v := b.Get(key)
		if v == nil {
			return contract.ErrVersionConflict
		}
		var stored entity.Refund
		if err := json.Unmarshal(v, &stored); err != nil {
			return err
		}
		if stored.Version != expectedVersion {
			return contract.ErrVersionConflict
		}
		if len(refund.Ledger) < len(stored.Ledger) {
			return fmt.Errorf("refund %s: ledger would shrink from %d to %d entries", refund.ID, len(stored.Ledger), len(refund.Ledger))
		}

		next := refund.Clone()
		next.Version = expectedVersion + 1
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to encode refund: %w", err)
		}
		return b.Put(key, data)
	})
	if err != nil {
		return err
	}
	refund.Version = expectedVersion + 1
	return nil
}
