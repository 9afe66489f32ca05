package api

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// rateLimiter counts requests per key in fixed windows that start with the
// key's first request.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows *gocache.Cache
}

type windowCount struct {
	n int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		windows: gocache.New(window, 2*window),
	}
}

// Allow records one request for key and reports whether it is within the limit.
func (l *rateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.windows.Get(key); ok {
		w := v.(*windowCount)
		w.n++
		return w.n <= l.limit
	}
	l.windows.Set(key, &windowCount{n: 1}, l.window)
	return true
}
