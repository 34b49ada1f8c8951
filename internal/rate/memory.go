package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter: fixed window sobre go-cache, para entornos de desarrollo
// sin Redis ni Postgres. Mismo algoritmo que RedisLimiter: la clave lleva
// el inicio de ventana truncado, así el rollover es automático.
type MemoryLimiter struct {
	cache  *gocache.Cache
	mu     sync.Mutex
	Max    int64
	Window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		cache:  gocache.New(window, 2*window),
		Max:    int64(max),
		Window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.Window)
	cacheKey := fmt.Sprintf("%s:%d", key, winStart.Unix())

	// go-cache Increment falla si la clave no existe; crear-o-incrementar
	// necesita el lock para no perder hits concurrentes.
	l.mu.Lock()
	hits, err := l.cache.IncrementInt64(cacheKey, 1)
	if err != nil {
		hits = 1
		l.cache.Set(cacheKey, int64(1), l.Window)
	}
	l.mu.Unlock()

	allowed := hits <= l.Max
	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}

	ttl := l.Window - now.Sub(winStart)
	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   ttl,
	}
	if !allowed {
		res.RetryAfter = ttl
	}
	return res, nil
}
