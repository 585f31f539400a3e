package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := range 3 {
		assert.True(t, rl.Allow(42), "запрос %d", i+1)
	}
	assert.False(t, rl.Allow(42))

	// Другой пользователь считается отдельно
	assert.True(t, rl.Allow(43))

	// Через window/limit освобождается один запрос
	now = now.Add(20 * time.Second)
	assert.True(t, rl.Allow(42))
	assert.False(t, rl.Allow(42))
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	defer rl.Close()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow(1)
	rl.Allow(2)
	rl.evict(now.Add(5 * time.Second))
	assert.Len(t, rl.visitors, 2)

	rl.evict(now.Add(time.Minute))
	assert.Empty(t, rl.visitors)
}

func TestRateLimiter_CloseTwice(t *testing.T) {
	rl := NewRateLimiter(10, time.Minute)
	rl.Close()
	assert.NotPanics(t, rl.Close)
}
