package middlewares

import (
	"context"

	"github.com/Mojtabakargaran/identity-service/internal/session"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeySession
)

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, rid)
}

// GetRequestID devuelve el request id inyectado por WithRequestID, o "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

func setSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, s)
}

// GetSession devuelve la sesión inyectada por RequireSession, o nil.
func GetSession(ctx context.Context) *session.Session {
	v, _ := ctx.Value(ctxKeySession).(*session.Session)
	return v
}
