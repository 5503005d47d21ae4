// Package state persists the CLI's local key/value state (session token,
// cached task lists) in SQLite.
package state

import (
	"context"
)

// Repository is a small key/value store. Get returns common.ErrorNotFound
// for absent keys.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	DeletePrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
}
