// Package auth orquesta los flujos de autenticación: login, verificación de
// email, forgot/reset de contraseña y logout. Todo el estado vive en los
// stores inyectados; el orquestador solo encadena las reglas.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Mojtabakargaran/identity-service/internal/audit"
	"github.com/Mojtabakargaran/identity-service/internal/events"
	"github.com/Mojtabakargaran/identity-service/internal/lockout"
	"github.com/Mojtabakargaran/identity-service/internal/metrics"
	"github.com/Mojtabakargaran/identity-service/internal/observability/logger"
	"github.com/Mojtabakargaran/identity-service/internal/rate"
	"github.com/Mojtabakargaran/identity-service/internal/security/password"
	"github.com/Mojtabakargaran/identity-service/internal/session"
	"github.com/Mojtabakargaran/identity-service/internal/store"
)

// Users es la porción del store de usuarios que los flujos necesitan.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*store.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*store.User, error)
	SetEmailVerified(ctx context.Context, id uuid.UUID) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, phc string) error
}

type Roles interface {
	RolesOf(ctx context.Context, userID uuid.UUID) ([]store.Role, error)
}

type Tenants interface {
	FindByID(ctx context.Context, id uuid.UUID) (*store.Tenant, error)
}

type Tokens interface {
	Issue(ctx context.Context, req store.IssueRequest) (string, error)
	Peek(ctx context.Context, kind store.TokenKind, plaintext string) (*store.TokenInfo, error)
	Consume(ctx context.Context, kind store.TokenKind, plaintext string) (*store.TokenInfo, error)
}

// TxFunc ejecuta fn con vistas de Users y Tokens ligadas a una misma
// transacción. Si fn devuelve error no queda nada aplicado.
type TxFunc func(ctx context.Context, fn func(users Users, tokens Tokens) error) error

// NewPgTx arma el TxFunc de producción sobre el pool.
func NewPgTx(db store.DBOps) TxFunc {
	return func(ctx context.Context, fn func(users Users, tokens Tokens) error) error {
		tx, err := db.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)
		if err := fn(store.NewUserStore(tx), store.NewTokenStore(tx)); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}
}

// Mailer es la porción del paquete email que los flujos usan.
type Mailer interface {
	SendVerification(to, fullName, hospitalName, token string) error
	SendPasswordReset(to, fullName, token string) error
}

type Service struct {
	Users    Users
	Roles    Roles
	Tenants  Tenants
	Tokens   Tokens
	Lockout  *lockout.Machine
	Sessions session.Store
	Mailer   Mailer
	Events   events.Publisher
	Tx       TxFunc

	// Limiters por flujo; ambos con semántica AND email+IP.
	ForgotLimit rate.Pair
	ResendLimit rate.Pair

	Params password.Params
	Policy password.Policy

	SessionTTL time.Duration
	VerifyTTL  time.Duration
	ResetTTL   time.Duration

	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// dummyPHC se verifica cuando el email no existe, para que el costo del
// request no delate si la cuenta existe.
const dummyPHC = "$argon2id$v=19$m=65536,t=3,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

type LoginRequest struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// Login ejecuta el flujo completo: lockout y estado de cuenta antes que la
// contraseña, y sesión server-side al final.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*session.Session, error) {
	log := logger.From(ctx).With(logger.Flow("login"), logger.Email(req.Email))

	u, err := s.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// misma respuesta y costo que contraseña incorrecta
			password.Verify(req.Password, dummyPHC)
			metrics.LoginAttempts.WithLabelValues("invalid").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// el bloqueo se chequea ANTES de verificar la contraseña
	if s.Lockout.Locked(u) {
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		return nil, &LockedError{Until: *u.LockedUntil}
	}

	// el estado se chequea antes que la contraseña: un login contra una
	// cuenta sin verificar no gasta intentos de lockout
	switch u.Status {
	case store.StatusPendingVerification:
		metrics.LoginAttempts.WithLabelValues("unverified").Inc()
		return nil, ErrEmailNotVerified
	case store.StatusSuspended:
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return nil, ErrAccountSuspended
	}

	if !password.Verify(req.Password, u.PasswordHash) {
		locked, until, ferr := s.Lockout.RecordFailure(ctx, u.ID)
		if ferr != nil {
			return nil, ferr
		}
		if locked {
			metrics.AccountLockouts.Inc()
			metrics.LoginAttempts.WithLabelValues("locked").Inc()
			audit.Log(ctx, events.AccountLocked, map[string]any{
				"user_id": u.ID.String(), "ip": req.IP,
			})
			events.Emit(ctx, s.Events, events.TopicUser, events.New(events.AccountLocked, map[string]any{
				"userId":      u.ID.String(),
				"lockedUntil": until,
			}))
			return nil, &LockedError{Until: *until}
		}
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}

	wasLocked, err := s.Lockout.RecordSuccess(ctx, u)
	if err != nil {
		return nil, err
	}
	if wasLocked {
		events.Emit(ctx, s.Events, events.TopicUser, events.New(events.AccountUnlocked, map[string]any{
			"userId": u.ID.String(),
		}))
	}

	roles, err := s.Roles.RolesOf(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	sess, err := session.New(u.ID, u.TenantID, u.Email, u.FullName, roles, s.SessionTTL, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.Create(ctx, sess, s.SessionTTL); err != nil {
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	log.Info("login ok", logger.UserID(u.ID.String()), logger.TenantID(u.TenantID.String()))
	events.Emit(ctx, s.Events, events.TopicUser, events.New(events.UserLoggedIn, map[string]any{
		"userId":   u.ID.String(),
		"tenantId": u.TenantID.String(),
	}))
	return sess, nil
}

// Logout invalida la sesión. Idempotente: un id desconocido no es error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	events.Emit(ctx, s.Events, events.TopicUser, events.New(events.UserLoggedOut, map[string]any{
		"userId": sess.AccountID.String(),
	}))
	return nil
}

// VerifyEmail consume el token de verificación y activa la cuenta. Los
// chequeos de estado van antes del consumo: un token contra una cuenta ya
// verificada o suspendida no se quema.
func (s *Service) VerifyEmail(ctx context.Context, plaintext string) error {
	peeked, err := s.Tokens.Peek(ctx, store.TokenEmailVerify, plaintext)
	if err != nil {
		return s.mapTokenErr(store.TokenEmailVerify, err)
	}

	u, err := s.Users.FindByID(ctx, peeked.UserID)
	if err != nil {
		return err
	}
	// ya-verificada gana sobre suspendida: una cuenta suspendida que ya
	// verificó su email responde EMAIL_ALREADY_VERIFIED
	if u.EmailVerifiedAt != nil || u.Status == store.StatusActive {
		return ErrAlreadyVerified
	}
	if u.Status == store.StatusSuspended {
		return ErrAccountSuspended
	}

	// consumo del token y activación en una sola transacción: si la
	// activación falla, el token queda vivo para reintentar
	err = s.Tx(ctx, func(users Users, tokens Tokens) error {
		if _, err := tokens.Consume(ctx, store.TokenEmailVerify, plaintext); err != nil {
			return err
		}
		return users.SetEmailVerified(ctx, peeked.UserID)
	})
	if err != nil {
		switch {
		case isTokenErr(err):
			return s.mapTokenErr(store.TokenEmailVerify, err)
		case errors.Is(err, store.ErrConflict):
			return ErrAlreadyVerified
		}
		events.Emit(ctx, s.Events, events.TopicUser, events.New(events.EmailVerificationFailed, map[string]any{
			"userId": peeked.UserID.String(),
		}))
		return ErrVerificationFailed
	}
	metrics.TokensConsumed.WithLabelValues(string(store.TokenEmailVerify), "ok").Inc()

	audit.Log(ctx, events.EmailVerified, map[string]any{"user_id": peeked.UserID.String()})
	events.Emit(ctx, s.Events, events.TopicUser, events.New(events.EmailVerified, map[string]any{
		"userId": peeked.UserID.String(),
	}))
	return nil
}

// ResendVerification reemite el correo de verificación bajo rate limit.
func (s *Service) ResendVerification(ctx context.Context, email, ip string) error {
	if s.ResendLimit.ByEmail != nil {
		res, err := s.ResendLimit.Allow(ctx, email, ip)
		if err != nil {
			return err
		}
		if !res.Allowed {
			metrics.RateLimitRejections.WithLabelValues("resend").Inc()
			audit.Log(ctx, events.VerificationRateLimited, map[string]any{
				"email": email, "ip": ip,
			})
			events.Emit(ctx, s.Events, events.TopicNotification, events.New(events.VerificationRateLimited, map[string]any{
				"email": email,
				"ip":    ip,
			}))
			return &RateLimitedError{RetryAfter: res.RetryAfter}
		}
	}

	u, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// A diferencia de forgot-password, acá el caller ya conoce el
			// email (lo registró), así que el 404 no filtra nada nuevo.
			return ErrUserNotFound
		}
		return err
	}
	if u.Status != store.StatusPendingVerification {
		return ErrAlreadyVerified
	}

	plaintext, err := s.Tokens.Issue(ctx, store.IssueRequest{
		Kind:   store.TokenEmailVerify,
		UserID: u.ID,
		SentTo: u.Email,
		IP:     ip,
		TTL:    s.VerifyTTL,
	})
	if err != nil {
		return err
	}
	metrics.TokensIssued.WithLabelValues(string(store.TokenEmailVerify)).Inc()

	hospital := ""
	if t, terr := s.Tenants.FindByID(ctx, u.TenantID); terr == nil {
		hospital = t.HospitalName
	}
	if err := s.Mailer.SendVerification(u.Email, u.FullName, hospital, plaintext); err != nil {
		return ErrEmailDelivery
	}
	return nil
}

type ForgotRequest struct {
	Email     string
	IP        string
	UserAgent string
}

// RequestPasswordReset emite un token de reset bajo rate limit AND
// (email e IP por separado). La emisión invalida los tokens previos.
func (s *Service) RequestPasswordReset(ctx context.Context, req ForgotRequest) error {
	events.Emit(ctx, s.Events, events.TopicNotification, events.New(events.PasswordResetRequested, map[string]any{
		"email": req.Email,
		"ip":    req.IP,
	}))

	if s.ForgotLimit.ByEmail != nil {
		res, err := s.ForgotLimit.Allow(ctx, req.Email, req.IP)
		if err != nil {
			return err
		}
		if !res.Allowed {
			metrics.RateLimitRejections.WithLabelValues("forgot").Inc()
			audit.Log(ctx, events.PasswordResetRateLimited, map[string]any{
				"email": req.Email, "ip": req.IP,
			})
			events.Emit(ctx, s.Events, events.TopicNotification, events.New(events.PasswordResetRateLimited, map[string]any{
				"email": req.Email,
				"ip":    req.IP,
			}))
			return &RateLimitedError{RetryAfter: res.RetryAfter}
		}
	}

	u, err := s.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Anti-enumeración: la respuesta para un email desconocido es
			// idéntica a la de uno existente. Solo queda rastro interno.
			events.Emit(ctx, s.Events, events.TopicNotification, events.New(events.PasswordResetUnknownEmail, map[string]any{
				"email": req.Email,
				"ip":    req.IP,
			}))
			return nil
		}
		return err
	}

	plaintext, err := s.Tokens.Issue(ctx, store.IssueRequest{
		Kind:      store.TokenPasswordReset,
		UserID:    u.ID,
		SentTo:    u.Email,
		IP:        req.IP,
		UserAgent: req.UserAgent,
		TTL:       s.ResetTTL,
	})
	if err != nil {
		return err
	}
	metrics.TokensIssued.WithLabelValues(string(store.TokenPasswordReset)).Inc()

	if err := s.Mailer.SendPasswordReset(u.Email, u.FullName, plaintext); err != nil {
		events.Emit(ctx, s.Events, events.TopicNotification, events.New(events.PasswordResetFailed, map[string]any{
			"userId": u.ID.String(),
			"reason": "email_delivery",
		}))
		return ErrEmailDelivery
	}

	events.Emit(ctx, s.Events, events.TopicNotification, events.New(events.PasswordResetEmailSent, map[string]any{
		"userId": u.ID.String(),
	}))
	return nil
}

// ValidateResetToken chequea el token sin consumirlo (el GET del formulario).
func (s *Service) ValidateResetToken(ctx context.Context, plaintext string) error {
	info, err := s.Tokens.Peek(ctx, store.TokenPasswordReset, plaintext)
	if err != nil {
		return s.mapTokenErr(store.TokenPasswordReset, err)
	}
	u, err := s.Users.FindByID(ctx, info.UserID)
	if err != nil {
		return err
	}
	if u.Locked(s.now()) {
		return &LockedError{Until: *u.LockedUntil}
	}
	return nil
}

type ResetRequest struct {
	Token       string
	NewPassword string
	Confirm     string
}

// ResetPassword consume el token y cambia la contraseña. El cambio también
// limpia el estado de lockout de la cuenta.
func (s *Service) ResetPassword(ctx context.Context, req ResetRequest) error {
	if req.NewPassword != req.Confirm {
		return ErrPasswordMismatch
	}
	if ok, reasons := s.Policy.Validate(req.NewPassword); !ok {
		return &PolicyError{Reasons: reasons}
	}

	// Peek antes de consumir: si la contraseña nueva es inválida contra la
	// actual, el token debe seguir vivo para reintentar.
	info, err := s.Tokens.Peek(ctx, store.TokenPasswordReset, req.Token)
	if err != nil {
		return s.mapTokenErr(store.TokenPasswordReset, err)
	}

	u, err := s.Users.FindByID(ctx, info.UserID)
	if err != nil {
		return err
	}
	if u.Locked(s.now()) {
		return &LockedError{Until: *u.LockedUntil}
	}
	if password.Verify(req.NewPassword, u.PasswordHash) {
		return ErrSameAsCurrent
	}

	phc, err := password.Hash(s.Params, req.NewPassword)
	if err != nil {
		return err
	}

	// consumo del token, hash nuevo y limpieza de lockout en una sola
	// transacción: o se aplica todo o el token sigue vivo
	err = s.Tx(ctx, func(users Users, tokens Tokens) error {
		if _, err := tokens.Consume(ctx, store.TokenPasswordReset, req.Token); err != nil {
			return err
		}
		return users.UpdatePasswordHash(ctx, u.ID, phc)
	})
	if err != nil {
		if isTokenErr(err) {
			return s.mapTokenErr(store.TokenPasswordReset, err)
		}
		events.Emit(ctx, s.Events, events.TopicNotification, events.New(events.PasswordResetFailed, map[string]any{
			"userId": u.ID.String(),
			"reason": "update_failed",
		}))
		return ErrUpdateFailed
	}
	metrics.TokensConsumed.WithLabelValues(string(store.TokenPasswordReset), "ok").Inc()

	audit.Log(ctx, events.PasswordResetCompleted, map[string]any{"user_id": u.ID.String()})
	events.Emit(ctx, s.Events, events.TopicNotification, events.New(events.PasswordResetCompleted, map[string]any{
		"userId": u.ID.String(),
	}))
	return nil
}

func isTokenErr(err error) bool {
	return errors.Is(err, store.ErrTokenNotFound) ||
		errors.Is(err, store.ErrTokenUsed) ||
		errors.Is(err, store.ErrTokenExpired)
}

func (s *Service) mapTokenErr(kind store.TokenKind, err error) error {
	switch {
	case errors.Is(err, store.ErrTokenNotFound):
		metrics.TokensConsumed.WithLabelValues(string(kind), "not_found").Inc()
		return ErrTokenNotFound
	case errors.Is(err, store.ErrTokenUsed):
		metrics.TokensConsumed.WithLabelValues(string(kind), "used").Inc()
		return ErrTokenUsed
	case errors.Is(err, store.ErrTokenExpired):
		metrics.TokensConsumed.WithLabelValues(string(kind), "expired").Inc()
		return ErrTokenExpired
	}
	return err
}
