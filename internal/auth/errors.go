package auth

import (
	"errors"
	"fmt"
	"time"
)

// Errores de dominio de los flujos de autenticación. El handler HTTP los
// traduce a códigos de error y status; acá no hay nada de HTTP.
var (
	// ErrInvalidCredentials cubre email desconocido Y contraseña incorrecta:
	// ambos casos son indistinguibles hacia afuera.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	ErrEmailNotVerified   = errors.New("auth: email not verified")
	ErrAccountSuspended   = errors.New("auth: account suspended")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrAlreadyVerified    = errors.New("auth: email already verified")
	ErrVerificationFailed = errors.New("auth: email verification failed")

	ErrTokenNotFound = errors.New("auth: token not found")
	ErrTokenUsed     = errors.New("auth: token already used")
	ErrTokenExpired  = errors.New("auth: token expired")

	ErrPasswordMismatch = errors.New("auth: password confirmation mismatch")
	ErrSameAsCurrent    = errors.New("auth: new password equals current")
	ErrUpdateFailed     = errors.New("auth: password update failed")

	ErrEmailDelivery = errors.New("auth: email delivery failed")

	ErrSessionInvalid = errors.New("auth: invalid session")
)

// LockedError: la cuenta está bloqueada hasta Until.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("auth: account locked until %s", e.Until.Format(time.RFC3339))
}

// RateLimitedError: la request excedió la ventana de rate limit.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("auth: rate limit exceeded, retry in %s", e.RetryAfter)
}

// PolicyError: la contraseña nueva no cumple la política.
type PolicyError struct {
	Reasons []string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("auth: password policy violated: %v", e.Reasons)
}
