// Package storage defines the durable key/value contract shared by the
// session and favorites stores, plus typed JSON helpers on top of it.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Storage is a durable key/value store of JSON blobs. Single-key operations
// are atomic from the caller's point of view. Failures are reported as
// *StorageError and never retried.
type Storage interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)

	Set(ctx context.Context, key string, value json.RawMessage) error

	// Remove deletes the key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	Ping(ctx context.Context) error

	Close() error
}

// StorageError describes a failed durable read or write.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage is closed")

// Wrap turns err into a *StorageError unless it already is one.
func Wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return err
	}

	return &StorageError{Op: op, Key: key, Err: err}
}

type getter interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
}

type setter interface {
	Set(ctx context.Context, key string, value json.RawMessage) error
}

// GetJSON loads key into dst. found is false when the key is absent, in
// which case dst is left untouched.
func GetJSON(ctx context.Context, db getter, key string, dst any) (found bool, err error) {
	raw, found, err := db.Get(ctx, key)
	if err != nil {
		return false, Wrap("get", key, err)
	}
	if !found {
		return false, nil
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, &StorageError{Op: "decode", Key: key, Err: err}
	}

	return true, nil
}

// SetJSON marshals value and stores it under key.
func SetJSON(ctx context.Context, db setter, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &StorageError{Op: "encode", Key: key, Err: err}
	}

	return Wrap("set", key, db.Set(ctx, key, raw))
}
