package library

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// A bucket refills completely within a minute, so a limiter idle that long
// is indistinguishable from a new one and can be dropped.
const limiterIdleTTL = time.Minute

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// keyedLimiter keeps one token bucket per identity and prunes idle ones.
type keyedLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// newKeyedLimiter returns nil (no limiting) when perMinute <= 0.
func newKeyedLimiter(perMinute int) *keyedLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &keyedLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		now:      time.Now,
	}
}

func (l *keyedLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= limiterIdleTTL {
		l.sweep(now)
	}
	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}

// sweep drops limiters idle for at least limiterIdleTTL. Callers hold mu.
func (l *keyedLimiter) sweep(now time.Time) {
	for key, e := range l.limiters {
		if now.Sub(e.lastSeen) >= limiterIdleTTL {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}
