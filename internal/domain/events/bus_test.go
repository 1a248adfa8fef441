package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	b := NewBus[int]()
	var got []string

	b.Subscribe(func(v int) { got = append(got, "a") })
	b.Subscribe(func(v int) { got = append(got, "b") })
	b.Publish(1)

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus[MessageReceived]()
	calls := 0
	unsub := b.Subscribe(func(MessageReceived) { calls++ })

	b.Publish(MessageReceived{ChatID: "c1"})
	unsub()
	unsub()
	b.Publish(MessageReceived{ChatID: "c1"})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.Len())
}

func TestBusHandlerMayUnsubscribeDuringPublish(t *testing.T) {
	b := NewBus[int]()
	calls := 0
	var unsub func()
	unsub = b.Subscribe(func(int) {
		calls++
		unsub()
	})

	b.Publish(1)
	b.Publish(2)
	assert.Equal(t, 1, calls)
}
