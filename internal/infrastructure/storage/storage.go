// internal/infrastructure/storage/storage.go
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no value
var ErrNotFound = errors.New("storage: key not found")

// Storage is a durable string-keyed store.
//
// Writes replace the whole value of a key. A failed write leaves the previous
// value in place. Watch registers a listener that receives every value written
// to the key after registration; a deleted key is reported as the empty string.
// Listeners run on a dedicated goroutine per registration, in write order.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Watch(key string, fn func(value string)) (cancel func())
	Ping(ctx context.Context) error
}
