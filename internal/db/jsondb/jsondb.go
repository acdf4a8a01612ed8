package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/patric-chuzhbe/cineshelf/internal/db/storage"
)

// JSONDB keeps every key in memory and rewrites the backing JSON file after
// each mutation. An empty file name disables the file entirely.
type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

type CacheStruct struct {
	Entries map[string]json.RawMessage
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Entries": {}
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

// writeToJSONFile replaces the file through a rename so a crash never leaves
// a half-written database behind.
func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fileName), filepath.Base(fileName)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(jsonData); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error writing to file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing file: %w", err)
	}

	return os.Rename(tmp.Name(), fileName)
}

func parseJSONFile(fileName string, cacheMap *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	err = decoder.Decode(cacheMap)
	if err != nil {
		return err
	}

	return nil
}

func New(fileName string) (*JSONDB, error) {
	db := JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		err := initDBFile(fileName)
		if err != nil {
			return nil, err
		}
		err = parseJSONFile(db.fileName, &db.Cache)
		if err != nil {
			return nil, err
		}
	}
	if db.Cache.Entries == nil {
		db.Cache.Entries = map[string]json.RawMessage{}
	}

	return &db, nil
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

func (db *JSONDB) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	value, found := db.Cache.Entries[key]
	if !found {
		return nil, false, nil
	}
	result := make(json.RawMessage, len(value))
	copy(result, value)

	return result, true, nil
}

func (db *JSONDB) Set(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return &storage.StorageError{Op: "set", Key: key, Err: fmt.Errorf("value is not valid JSON")}
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	previous, existed := db.Cache.Entries[key]
	stored := make(json.RawMessage, len(value))
	copy(stored, value)
	db.Cache.Entries[key] = stored

	if err := db.flush(); err != nil {
		if existed {
			db.Cache.Entries[key] = previous
		} else {
			delete(db.Cache.Entries, key)
		}
		return storage.Wrap("set", key, err)
	}

	return nil
}

func (db *JSONDB) Remove(ctx context.Context, key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	previous, existed := db.Cache.Entries[key]
	if !existed {
		return nil
	}
	delete(db.Cache.Entries, key)

	if err := db.flush(); err != nil {
		db.Cache.Entries[key] = previous
		return storage.Wrap("remove", key, err)
	}

	return nil
}

func (db *JSONDB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.flush()
}

func (db *JSONDB) flush() error {
	if db.fileName == "" {
		return nil
	}

	return writeToJSONFile(db.fileName, db.Cache)
}
