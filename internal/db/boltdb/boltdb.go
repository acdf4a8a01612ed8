// Package boltdb stores the durable key/value blobs in a single bbolt file,
// the closest analogue of on-device async storage.
package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.etcd.io/bbolt"

	"github.com/patric-chuzhbe/cineshelf/internal/db/storage"
)

const boltBucketEntries = "entries" // key: storage key -> JSON blob

type BoltDB struct {
	storage *bbolt.DB
}

// New opens (or creates) the bbolt file at path.
func New(path string, openTimeout time.Duration) (*BoltDB, error) {
	instance, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, err
	}

	if err := instance.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketEntries))
		return err
	}); err != nil {
		_ = instance.Close()

		return nil, err
	}

	return &BoltDB{storage: instance}, nil
}

func (b *BoltDB) Close() error {
	return b.storage.Close()
}

func (b *BoltDB) Ping(ctx context.Context) error {
	return b.storage.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(boltBucketEntries)) == nil {
			return errors.New("entries bucket is missing")
		}
		return nil
	})
}

func (b *BoltDB) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var result json.RawMessage
	err := b.storage.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket([]byte(boltBucketEntries)).Get([]byte(key))
		if value == nil {
			return nil
		}
		// bbolt values are only valid inside the transaction.
		result = make(json.RawMessage, len(value))
		copy(result, value)
		return nil
	})
	if err != nil {
		return nil, false, storage.Wrap("get", key, err)
	}

	return result, result != nil, nil
}

func (b *BoltDB) Set(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return &storage.StorageError{Op: "set", Key: key, Err: errors.New("value is not valid JSON")}
	}

	err := b.storage.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketEntries)).Put([]byte(key), value)
	})

	return storage.Wrap("set", key, err)
}

func (b *BoltDB) Remove(ctx context.Context, key string) error {
	err := b.storage.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketEntries)).Delete([]byte(key))
	})

	return storage.Wrap("remove", key, err)
}
