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

type ProductionRepository struct {
	db *DB
}

func NewProductionRepository(db *DB) *ProductionRepository {
	return &ProductionRepository{db: db}
}

func (r *ProductionRepository) Create(_ context.Context, item *entity.ProductionItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode production item: %w", err)
	}
	return r.db.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(productionBucket)
		key := []byte(item.ID.String())
		if b.Get(key) != nil {
			return contract.ErrDuplicateID
		}
		return b.Put(key, data)
	})
}

func (r *ProductionRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.ProductionItem, error) {
	var out *entity.ProductionItem
	err := r.db.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(productionBucket).Get([]byte(id.String()))
		if v == nil {
			return nil
		}
		out = &entity.ProductionItem{}
		return json.Unmarshal(v, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProductionRepository) FindAll(_ context.Context, f contract.ProductionFilter) ([]*entity.ProductionItem, error) {
	var items []*entity.ProductionItem
	err := r.db.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(productionBucket).ForEach(func(_, v []byte) error {
			var item entity.ProductionItem
			if err := json.Unmarshal(v, &item); err != nil {
				return err
			}
			items = append(items, &item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return memory.SelectProductionItems(items, f), nil
}

func (r *ProductionRepository) Save(_ context.Context, item *entity.ProductionItem, expectedVersion int64) error {
	err := r.db.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(productionBucket)
		key := []byte(item.ID.String())

		v := b.Get(key)
		if v == nil {
			return contract.ErrVersionConflict
		}
		var stored entity.ProductionItem
		if err := json.Unmarshal(v, &stored); err != nil {
			return err
		}
		if stored.Version != expectedVersion {
			return contract.ErrVersionConflict
		}

		next := item.Clone()
		next.Version = expectedVersion + 1
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to encode production item: %w", err)
		}
		return b.Put(key, data)
	})
	if err != nil {
		return err
	}
	item.Version = expectedVersion + 1
	return nil
}
