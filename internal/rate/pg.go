package rate

import (
	"context"
	"time"

	"github.com/Mojtabakargaran/identity-service/internal/store"
)

// PGLimiter: fixed window respaldado en Postgres. Sobrevive reinicios, a
// diferencia de los contadores en memoria; se usa para forgot-password,
// donde la ventana debe persistir aunque el proceso se caiga.
type PGLimiter struct {
	Store       *store.RateLimitStore
	SubjectKind string
	Max         int64
	Window      time.Duration
}

func NewPGLimiter(s *store.RateLimitStore, subjectKind string, max int, window time.Duration) *PGLimiter {
	return &PGLimiter{Store: s, SubjectKind: subjectKind, Max: int64(max), Window: window}
}

func (l *PGLimiter) Allow(ctx context.Context, key string) (Result, error) {
	w, err := l.Store.Hit(ctx, l.SubjectKind, key, l.Window)
	if err != nil {
		return Result{}, err
	}

	hits := int64(w.Count)
	allowed := hits <= l.Max
	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}

	ttl := l.Window - time.Since(w.WindowStart)
	if ttl < 0 {
		ttl = 0
	}
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
