// Package mockstorage provides a testify-based mock implementation
// of the durable key/value storage used by the session and favorites stores.
// It is used to simulate storage failures that real backends cannot produce on demand.
package mockstorage

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
)

// StorageMock is a testify mock that implements storage.Storage.
//
// Expectations are registered per key, e.g.
//
//	m.On("Set", mock.Anything, "user", mock.Anything).Return(errors.New("disk full"))
type StorageMock struct {
	mock.Mock

	// OnGet is an optional function field that replaces the generic mock
	// handler for Get. It is handy when a test only cares about writes.
	OnGet func(ctx context.Context, key string) (json.RawMessage, bool, error)
}

// Get mocks reading a key.
func (m *StorageMock) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if m.OnGet != nil {
		return m.OnGet(ctx, key)
	}
	args := m.Called(ctx, key)
	value, _ := args.Get(0).(json.RawMessage)
	return value, args.Bool(1), args.Error(2)
}

// Set mocks writing a key.
func (m *StorageMock) Set(ctx context.Context, key string, value json.RawMessage) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// Remove mocks deleting a key.
func (m *StorageMock) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks releasing the storage.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
