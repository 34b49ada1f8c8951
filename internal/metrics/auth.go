package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth-related Prometheus metrics. Standalone package to avoid import cycles
// between the auth flows and the HTTP layer.

var (
	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Intentos de login por resultado (success|invalid|locked|unverified)",
	}, []string{"outcome"})

	AccountLockouts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_account_lockouts_total",
		Help: "Cuentas bloqueadas por exceso de intentos fallidos",
	})

	RateLimitRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_rate_limit_rejections_total",
		Help: "Requests rechazadas por rate limit, por flujo (forgot|resend)",
	}, []string{"flow"})

	TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_tokens_issued_total",
		Help: "Tokens emitidos por tipo (email_verify|password_reset)",
	}, []string{"kind"})

	TokensConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_tokens_consumed_total",
		Help: "Tokens consumidos por tipo y resultado (ok|not_found|used|expired)",
	}, []string{"kind", "outcome"})

	EmailSendFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_email_send_failures_total",
		Help: "Fallos de envío SMTP por diagnóstico",
	}, []string{"diag"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_ms",
		Help:    "Latencia de requests HTTP en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"route", "method", "status"})
)

// RegisterAuth registers the auth metrics on the given registry (or default if nil).
func RegisterAuth(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		LoginAttempts, AccountLockouts, RateLimitRejections,
		TokensIssued, TokensConsumed, EmailSendFailures, HTTPDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
