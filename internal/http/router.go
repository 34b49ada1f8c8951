package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mojtabakargaran/identity-service/internal/http/handlers"
	"github.com/Mojtabakargaran/identity-service/internal/http/middlewares"
	"github.com/Mojtabakargaran/identity-service/internal/session"
	"github.com/Mojtabakargaran/identity-service/internal/store"
)

// RouterDeps agrupa los handlers y dependencias que el router necesita.
type RouterDeps struct {
	Tenant      *handlers.Tenant
	Auth        *handlers.Auth
	Profile     *handlers.Profile
	Institution *handlers.Institution
	Health      *handlers.Health
	Sessions    session.Store
	Metrics     stdhttp.Handler // /metrics; nil usa promhttp.Handler()
}

// NewRouter arma el árbol de rutas completo con su cadena de middlewares.
func NewRouter(deps RouterDeps) stdhttp.Handler {
	r := chi.NewRouter()

	// Sondas y métricas quedan fuera del logging de requests.
	r.Get("/healthz", deps.Health.Live)
	r.Get("/readyz", deps.Health.Ready)
	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(stdhttp.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewares.WithRecover())
		r.Use(middlewares.WithRequestID())
		r.Use(middlewares.WithLogging())

		// Público: registro y flujos de credenciales.
		r.Post("/tenants/register", deps.Tenant.Register)
		r.Post("/auth/login", deps.Auth.Login)
		r.Get("/auth/verify-email", deps.Auth.VerifyEmail)
		r.Post("/auth/resend-verification", deps.Auth.ResendVerification)
		r.Post("/auth/forgot-password", deps.Auth.ForgotPassword)
		r.Get("/auth/reset-password", deps.Auth.ValidateResetToken)
		r.Post("/auth/reset-password", deps.Auth.ResetPassword)

		// Requiere sesión activa.
		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireSession(deps.Sessions))

			r.Post("/auth/logout", deps.Auth.Logout)
			r.Get("/auth/me", deps.Auth.Me)

			r.Post("/profile/complete", deps.Profile.Complete)
			r.Post("/profile/photo", deps.Profile.AttachPhoto)
			r.Get("/dashboard", deps.Profile.Dashboard)

			r.Get("/institutional-profile", deps.Institution.GetProfile)
			r.Get("/institutional-profile/departments", deps.Institution.Departments)
			r.Get("/operational-parameters", deps.Institution.GetParameters)

			// Escrituras institucionales solo para owner/admin.
			r.Group(func(r chi.Router) {
				r.Use(middlewares.RequireRole(store.RoleOwner, store.RoleAdmin))

				r.Put("/institutional-profile", deps.Institution.PutProfile)
				r.Put("/operational-parameters", deps.Institution.PutParameters)
			})
		})
	})

	return r
}
