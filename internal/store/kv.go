// Package store persists state machine snapshots in a per-user key/value slot.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("store: key not found")

// KV is the durable key/value contract every backend implements.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
