package library

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func (l *keyedLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func TestKeyedLimiter_DisabledWhenZero(t *testing.T) {
	l := newKeyedLimiter(0)
	assert.Nil(t, l)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("a"))
	}
}

func TestKeyedLimiter_PerKeyBurst(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	l := newKeyedLimiter(2)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	clock = clock.Add(30 * time.Second)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestKeyedLimiter_PrunesIdleKeys(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	l := newKeyedLimiter(5)
	l.now = func() time.Time { return clock }

	for i := 0; i < 50; i++ {
		l.Allow(fmt.Sprintf("user-%d", i))
	}
	assert.Equal(t, 50, l.size())

	clock = clock.Add(30 * time.Second)
	l.Allow("active")
	l.Allow("user-0")

	clock = clock.Add(45 * time.Second)
	l.Allow("active")
	assert.Equal(t, 2, l.size())

	// a pruned key starts again with a full bucket
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("user-1"))
	}
	assert.False(t, l.Allow("user-1"))
}
