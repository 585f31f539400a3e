package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter ограничивает количество запросов на пользователя:
// не больше limit сообщений за window, с допуском пачки до limit подряд.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[int64]*visitor
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	rl := &RateLimiter{
		visitors: make(map[int64]*visitor),
		rate:     rate.Every(window / time.Duration(limit)),
		burst:    limit,
		ttl:      window * 10,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Close останавливает фоновую горутину очистки.
// Его надо вызывать на shutdown (иначе cleanup будет жить вечно).
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) Allow(userID int64) bool {
	now := rl.now()
	return rl.getVisitor(userID, now).AllowN(now, 1)
}

func (rl *RateLimiter) getVisitor(userID int64, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[userID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[userID] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.evict(rl.now())
		}
	}
}

// evict удаляет пользователей, которые давно не писали.
func (rl *RateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for userID, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, userID)
		}
	}
}
