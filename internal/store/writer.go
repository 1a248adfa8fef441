package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// Saver is the write half of an Adapter.
type Saver[T any] interface {
	Save(ctx context.Context, userID string, version uint64, value T) error
}

type snapshot[T any] struct {
	version uint64
	value   T
}

// Writer persists snapshots for one user in the background. Submitted
// snapshots are coalesced: only the newest pending one is written, and writes
// happen one at a time in version order.
type Writer[T any] struct {
	saver  Saver[T]
	userID string
	log    *zap.Logger

	mu      sync.Mutex
	pending *snapshot[T]
	closed  bool

	signal  chan struct{}
	flushCh chan chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewWriter[T any](saver Saver[T], userID string, log *zap.Logger) *Writer[T] {
	w := &Writer[T]{
		saver:   saver,
		userID:  userID,
		log:     log,
		signal:  make(chan struct{}, 1),
		flushCh: make(chan chan struct{}),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Submit queues value at version. It never blocks on I/O.
func (w *Writer[T]) Submit(version uint64, value T) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.log.Debug("dropping snapshot submitted after close", zap.String("user_id", w.userID), zap.Uint64("version", version))
		return
	}
	if w.pending == nil || version > w.pending.version {
		w.pending = &snapshot[T]{version: version, value: value}
	}
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
}

// Flush blocks until every snapshot submitted before the call is written.
func (w *Writer[T]) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case w.flushCh <- ack:
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes whatever is pending and stops the background goroutine.
func (w *Writer[T]) Close() {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.done)
	})
	<-w.stopped
}

func (w *Writer[T]) loop() {
	defer close(w.stopped)
	for {
		select {
		case <-w.signal:
			w.writePending()
		case ack := <-w.flushCh:
			w.writePending()
			close(ack)
		case <-w.done:
			w.writePending()
			return
		}
	}
}

func (w *Writer[T]) writePending() {
	w.mu.Lock()
	snap := w.pending
	w.pending = nil
	w.mu.Unlock()

	if snap == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := w.saver.Save(ctx, w.userID, snap.version, snap.value); err != nil {
		w.log.Error("persist snapshot failed",
			zap.String("user_id", w.userID),
			zap.Uint64("version", snap.version),
			zap.Error(err),
		)
	}
}
