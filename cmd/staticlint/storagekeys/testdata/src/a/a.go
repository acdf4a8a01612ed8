package a

import (
	"context"

	"example.com/cineshelf/db/storage"
)

const keyUsers = "users"

func favoritesKey(id string) string {
	return "favorites_" + id
}

type localCache struct{}

func (localCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func literals(ctx context.Context, db storage.Storage) {
	_, _, _ = db.Get(ctx, "user")                         // want `storage key "user" is a string literal; use a named key`
	_ = db.Set(ctx, ("users"), nil)                       // want `storage key "users" is a string literal; use a named key`
	_ = db.Remove(ctx, `user`)                            // want "storage key `user` is a string literal; use a named key"
	_, _ = storage.GetJSON(ctx, db, "favorites_1", nil)   // want `storage key "favorites_1" is a string literal; use a named key`
	_ = storage.SetJSON(ctx, db, "users", []string{})     // want `storage key "users" is a string literal; use a named key`
	_ = storage.Wrap("set", "user", nil)                  // want `storage key "user" is a string literal; use a named key`
}

func named(ctx context.Context, db storage.Storage, id string) {
	_, _, _ = db.Get(ctx, keyUsers)
	_ = db.Set(ctx, favoritesKey(id), nil)
	_, _ = storage.GetJSON(ctx, db, favoritesKey(id), nil)
	_ = storage.Wrap("set", keyUsers, nil)

	// Other types with the same method names are not storage.
	_, _, _ = localCache{}.Get(ctx, "user")
}
