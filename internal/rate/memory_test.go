package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	l := NewMemoryLimiter(3, time.Hour)
	base := time.Date(2026, 3, 10, 12, 5, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "email:a@b.test")
		require.NoError(t, err)
		require.True(t, res.Allowed, "hit %d should pass", i)
		require.Equal(t, int64(3-i), res.Remaining)
	}

	res, err := l.Allow(ctx, "email:a@b.test")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, int64(0), res.Remaining)
	require.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestMemoryLimiterWindowRollover(t *testing.T) {
	l := NewMemoryLimiter(3, time.Hour)
	base := time.Date(2026, 3, 10, 12, 5, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := l.Allow(ctx, "email:a@b.test")
		require.NoError(t, err)
	}

	// siguiente ventana: el contador arranca de nuevo
	l.now = func() time.Time { return base.Add(time.Hour) }
	res, err := l.Allow(ctx, "email:a@b.test")
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, int64(1), res.CurrentHits)
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Hour)
	base := time.Date(2026, 3, 10, 12, 5, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	ctx := context.Background()
	res, err := l.Allow(ctx, "email:a@b.test")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = l.Allow(ctx, "email:a@b.test")
	require.NoError(t, err)
	require.False(t, res.Allowed)

	res, err = l.Allow(ctx, "email:otro@b.test")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

type stubLimiter struct{ res Result }

func (s stubLimiter) Allow(ctx context.Context, key string) (Result, error) { return s.res, nil }

func TestPairAndSemantics(t *testing.T) {
	allowed := Result{Allowed: true, Remaining: 2}
	blocked := Result{Allowed: false, RetryAfter: 10 * time.Minute}

	ctx := context.Background()

	res, err := Pair{ByEmail: stubLimiter{allowed}, ByIP: stubLimiter{allowed}}.Allow(ctx, "a@b.test", "10.0.0.1")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	// basta que uno rechace para que la request se rechace
	res, err = Pair{ByEmail: stubLimiter{blocked}, ByIP: stubLimiter{allowed}}.Allow(ctx, "a@b.test", "10.0.0.1")
	require.NoError(t, err)
	require.False(t, res.Allowed)

	res, err = Pair{ByEmail: stubLimiter{allowed}, ByIP: stubLimiter{blocked}}.Allow(ctx, "a@b.test", "10.0.0.1")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, 10*time.Minute, res.RetryAfter)
}
