package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewIsMonotonicWithinSameMillisecond(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	prev := NewAt(at)
	for i := 0; i < 100; i++ {
		next := NewAt(at)
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestNewHasULIDLength(t *testing.T) {
	assert.Len(t, New(), 26)
}
