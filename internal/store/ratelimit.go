package store

import (
	"context"
	"time"
)

// RateWindow es el estado de una ventana fija persistida.
type RateWindow struct {
	Count       int
	WindowStart time.Time
}

// RateLimitStore persiste contadores de ventana fija por sujeto (email o IP).
// Sobrevive reinicios del proceso, a diferencia de un contador en memoria.
type RateLimitStore struct{ DB DBOps }

func NewRateLimitStore(db DBOps) *RateLimitStore { return &RateLimitStore{DB: db} }

// Hit incrementa el contador del sujeto de forma atómica. Si la ventana
// vigente ya venció, arranca una nueva con count=1. Incremento y rollover
// viven en un único statement: no hay ventana para perder hits concurrentes.
func (s *RateLimitStore) Hit(ctx context.Context, subjectKind, subject string, window time.Duration) (RateWindow, error) {
	var w RateWindow
	err := s.DB.QueryRow(ctx, `
		INSERT INTO password_reset_rate_limit (subject_kind, subject, request_count, window_start)
		VALUES ($1, $2, 1, now())
		ON CONFLICT (subject_kind, subject) DO UPDATE
		   SET request_count = CASE
		           WHEN now() - password_reset_rate_limit.window_start >= ($3 * interval '1 second')
		           THEN 1
		           ELSE password_reset_rate_limit.request_count + 1
		       END,
		       window_start = CASE
		           WHEN now() - password_reset_rate_limit.window_start >= ($3 * interval '1 second')
		           THEN now()
		           ELSE password_reset_rate_limit.window_start
		       END
		RETURNING request_count, window_start`,
		subjectKind, subject, int64(window.Seconds()),
	).Scan(&w.Count, &w.WindowStart)
	return w, err
}

// DeleteStale purga ventanas sin actividad, para mantenimiento offline.
func (s *RateLimitStore) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
		DELETE FROM password_reset_rate_limit
		 WHERE window_start < now() - ($1 * interval '1 second')`,
		int64(olderThan.Seconds()))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
