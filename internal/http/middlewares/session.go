package middlewares

import (
	"errors"
	"net/http"

	"github.com/Mojtabakargaran/identity-service/internal/http/helpers"
	"github.com/Mojtabakargaran/identity-service/internal/session"
	"github.com/Mojtabakargaran/identity-service/internal/store"
)

// RequireSession resuelve el Bearer session_id contra el store e inyecta la
// sesión en el contexto. Falla cerrado: cualquier error de resolución,
// incluso de infraestructura, responde 401 y nunca deja pasar.
func RequireSession(sessions session.Store) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := helpers.BearerToken(r)
			if id == "" {
				helpers.WriteError(w, helpers.ErrUnauthorized)
				return
			}

			sess, err := sessions.Get(r.Context(), id)
			if err != nil {
				if errors.Is(err, session.ErrNotFound) {
					helpers.WriteError(w, helpers.ErrInvalidSession)
					return
				}
				// backend caído: 401 igual, nunca pass-through
				helpers.WriteError(w, helpers.ErrInvalidSession)
				return
			}

			next.ServeHTTP(w, r.WithContext(setSession(r.Context(), sess)))
		})
	}
}

// RequireRole exige uno de los roles dados. Va después de RequireSession.
func RequireRole(roles ...store.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r.Context())
			if sess == nil {
				helpers.WriteError(w, helpers.ErrUnauthorized)
				return
			}
			for _, role := range roles {
				if sess.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			helpers.WriteError(w, helpers.ErrForbidden)
		})
	}
}
