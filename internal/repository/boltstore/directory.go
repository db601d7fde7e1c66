package boltstore

import (
	"context"
	"encoding/json"

	"refund-lifecycle-be/pkg/refund"

	bolt "github.com/boltdb/bolt"
)

// Directory keeps order and customer read models next to the refunds.
type Directory struct {
	db *DB
}

func NewDirectory(db *DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) FindOrder(_ context.Context, ref string) (*refund.OrderInfo, error) {
	var out *refund.OrderInfo
	err := d.db.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(orderBucket).Get([]byte(ref))
		if v == nil {
			return nil
		}
		out = &refund.OrderInfo{}
		return json.Unmarshal(v, out)
	})
	return out, err
}

func (d *Directory) FindCustomer(_ context.Context, ref string) (*refund.CustomerInfo, error) {
	var out *refund.CustomerInfo
	err := d.db.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(customerBucket).Get([]byte(ref))
		if v == nil {
			return nil
		}
		out = &refund.CustomerInfo{}
		return json.Unmarshal(v, out)
	})
	return out, err
}

func (d *Directory) UpsertOrder(_ context.Context, o refund.OrderInfo) error {
	return d.put(orderBucket, o.Ref, o)
}

func (d *Directory) UpsertCustomer(_ context.Context, c refund.CustomerInfo) error {
	return d.put(customerBucket, c.Ref, c)
}

func (d *Directory) put(bucket []byte, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return d.db.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}
