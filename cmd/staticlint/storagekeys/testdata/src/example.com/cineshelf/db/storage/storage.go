package storage

import "context"

type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

func GetJSON(ctx context.Context, db Storage, key string, dst any) (bool, error) {
	return false, nil
}

func SetJSON(ctx context.Context, db Storage, key string, value any) error {
	return nil
}

func Wrap(op, key string, err error) error {
	return err
}

// Literal keys inside the storage package itself are allowed.
func reset(ctx context.Context, db Storage) error {
	return db.Remove(ctx, "anything")
}
