package memorystorage

import (
	"context"
	"encoding/json"

	"github.com/patric-chuzhbe/cineshelf/internal/db/jsondb"
)

// MemoryStorage is a process-local durable store used when no file or
// database is configured, and in tests.
type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.CacheStruct{
				Entries: map[string]json.RawMessage{},
			},
		},
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
