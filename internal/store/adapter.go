package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"seswa/internal/metrics"
)

// Adapter serializes a state blob of type T into the slot "<prefix>_<userID>".
// Writes carry a version; a write older than the last one stored for the same
// key is dropped so a late write can never clobber newer state.
type Adapter[T any] struct {
	kv     KV
	prefix string
	log    *zap.Logger

	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	mu      sync.Mutex
	written bool
	version uint64
}

// UserState is the per-user side of an Adapter, whatever its value type.
type UserState interface {
	Key(userID string) string
	Delete(ctx context.Context, userID string) error
}

var _ UserState = (*Adapter[struct{}])(nil)

func NewAdapter[T any](kv KV, prefix string, log *zap.Logger) *Adapter[T] {
	return &Adapter[T]{
		kv:     kv,
		prefix: prefix,
		log:    log.With(zap.String("prefix", prefix)),
		slots:  make(map[string]*slot),
	}
}

// Key returns the storage key for userID.
func (a *Adapter[T]) Key(userID string) string {
	return a.prefix + "_" + userID
}

// Delete removes whatever is stored for userID. Deleting a missing value is
// not an error.
func (a *Adapter[T]) Delete(ctx context.Context, userID string) error {
	key := a.Key(userID)
	if err := a.kv.Delete(ctx, key); err != nil {
		a.log.Error("failed to delete state", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (a *Adapter[T]) slotFor(key string) *slot {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.slots[key]
	if !ok {
		s = &slot{}
		a.slots[key] = s
	}
	return s
}

// Save writes value for userID at the given version.
func (a *Adapter[T]) Save(ctx context.Context, userID string, version uint64, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		metrics.StoreWrites.WithLabelValues("error").Inc()
		a.log.Error("failed to serialize state", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("serialize state: %w", err)
	}

	key := a.Key(userID)
	s := a.slotFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.written && version <= s.version {
		metrics.StoreWrites.WithLabelValues("stale").Inc()
		a.log.Debug("skipping stale write",
			zap.String("key", key),
			zap.Uint64("version", version),
			zap.Uint64("stored_version", s.version),
		)
		return nil
	}

	if err := a.kv.Set(ctx, key, data); err != nil {
		metrics.StoreWrites.WithLabelValues("error").Inc()
		a.log.Error("failed to write state", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("write %s: %w", key, err)
	}

	s.written = true
	s.version = version
	metrics.StoreWrites.WithLabelValues("ok").Inc()
	return nil
}

// Load returns the stored value for userID. ok is false when nothing usable is
// stored; unreadable or corrupt data is logged and reported the same way.
func (a *Adapter[T]) Load(ctx context.Context, userID string) (value T, ok bool) {
	key := a.Key(userID)
	data, err := a.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		metrics.StoreLoads.WithLabelValues("miss").Inc()
		return value, false
	}
	if err != nil {
		metrics.StoreLoads.WithLabelValues("error").Inc()
		a.log.Warn("failed to read state, starting empty", zap.String("key", key), zap.Error(err))
		return value, false
	}

	var decoded T
	if err := json.Unmarshal(data, &decoded); err != nil {
		metrics.StoreLoads.WithLabelValues("corrupt").Inc()
		a.log.Warn("corrupt persisted state, starting empty", zap.String("key", key), zap.Error(err))
		return value, false
	}

	metrics.StoreLoads.WithLabelValues("hit").Inc()
	return decoded, true
}
