package events

import (
	"sync"
	"time"
)

// MessageReceived is published when a chat message from someone other than
// the session owner is appended to a thread.
type MessageReceived struct {
	ChatID     string
	ChatName   string
	MessageID  string
	SenderID   string
	SenderName string
	Content    string
	At         time.Time
}

// Bus is a synchronous in-process observer list. Handlers run on the
// publisher's goroutine, in subscription order.
type Bus[E any] struct {
	mu       sync.RWMutex
	nextID   int
	order    []int
	handlers map[int]func(E)
}

func NewBus[E any]() *Bus[E] {
	return &Bus[E]{handlers: make(map[int]func(E))}
}

// Subscribe registers h and returns a function that removes it. The returned
// function is safe to call more than once.
func (b *Bus[E]) Subscribe(h func(E)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers ev to every current subscriber.
func (b *Bus[E]) Publish(ev E) {
	b.mu.RLock()
	hs := make([]func(E), 0, len(b.order))
	for _, id := range b.order {
		hs = append(hs, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(ev)
	}
}

// Len reports the number of subscribers.
func (b *Bus[E]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
