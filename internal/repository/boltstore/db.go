// Package boltstore persists refunds and production items in a single BoltDB file.
// Records are stored as JSON under their id. Compare-and-swap writes happen inside
// one read-write transaction, which Bolt serializes.
package boltstore

import (
	"time"

	bolt "github.com/boltdb/bolt"
)

var (
	refundBucket     = []byte("refunds")
	productionBucket = []byte("production_items")
	orderBucket      = []byte("orders")
	customerBucket   = []byte("customers")
)

type DB struct {
	db *bolt.DB
}

// Open opens (or creates) the database file and ensures every bucket exists.
func Open(path string) (*DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{refundBucket, productionBucket, orderBucket, customerBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
