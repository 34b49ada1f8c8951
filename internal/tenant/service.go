// Package tenant implementa el registro de hospitales: tenant, cuenta owner
// y rol se crean en una sola transacción; el correo de verificación y los
// eventos salen después del commit.
package tenant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mojtabakargaran/identity-service/internal/audit"
	"github.com/Mojtabakargaran/identity-service/internal/events"
	"github.com/Mojtabakargaran/identity-service/internal/metrics"
	"github.com/Mojtabakargaran/identity-service/internal/observability/logger"
	"github.com/Mojtabakargaran/identity-service/internal/security/password"
	"github.com/Mojtabakargaran/identity-service/internal/store"
)

var (
	ErrEmailExists        = errors.New("tenant: email already registered")
	ErrHospitalNameExists = errors.New("tenant: hospital name already registered")
	ErrPasswordMismatch   = errors.New("tenant: password confirmation mismatch")
)

// PolicyError: la contraseña del owner no cumple la política.
type PolicyError struct {
	Reasons []string
}

func (e *PolicyError) Error() string {
	return "tenant: password policy violated"
}

// Mailer es lo que el registro necesita del paquete email.
type Mailer interface {
	SendVerification(to, fullName, hospitalName, token string) error
}

type Tokens interface {
	Issue(ctx context.Context, req store.IssueRequest) (string, error)
}

type Service struct {
	DB     store.DBOps
	Tokens Tokens
	Mailer Mailer
	Events events.Publisher

	Params    password.Params
	Policy    password.Policy
	VerifyTTL time.Duration
}

type RegisterRequest struct {
	HospitalName      string
	LicenseNumber     string
	AddressStreet     string
	AddressCity       string
	AddressState      string
	AddressPostalCode string
	ContactPhone      string
	ContactEmail      string
	PreferredLanguage string

	AdminFullName   string
	AdminEmail      string
	AdminPhone      string
	Password        string
	ConfirmPassword string

	IP        string
	UserAgent string
}

type RegisterResult struct {
	TenantID  uuid.UUID
	UserID    uuid.UUID
	Subdomain string
}

// Register crea el hospital y su cuenta owner. La cuenta queda en
// pending_verification hasta que el correo se confirme.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if ok, reasons := s.Policy.Validate(req.Password); !ok {
		return nil, &PolicyError{Reasons: reasons}
	}

	phc, err := password.Hash(s.Params, req.Password)
	if err != nil {
		return nil, err
	}

	lang := req.PreferredLanguage
	if lang == "" {
		lang = "en"
	}
	ten := &store.Tenant{
		ID:                uuid.New(),
		HospitalName:      req.HospitalName,
		Subdomain:         Slugify(req.HospitalName),
		LicenseNumber:     req.LicenseNumber,
		AddressStreet:     req.AddressStreet,
		AddressCity:       req.AddressCity,
		AddressState:      req.AddressState,
		AddressPostalCode: req.AddressPostalCode,
		ContactPhone:      req.ContactPhone,
		ContactEmail:      req.ContactEmail,
		PreferredLanguage: lang,
	}
	owner := &store.User{
		ID:           uuid.New(),
		TenantID:     ten.ID,
		FullName:     req.AdminFullName,
		Email:        req.AdminEmail,
		PhoneNumber:  req.AdminPhone,
		PasswordHash: phc,
		Status:       store.StatusPendingVerification,
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := store.NewTenantStore(tx).Create(ctx, ten); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			return nil, ErrHospitalNameExists
		}
		return nil, err
	}
	if err := store.NewUserStore(tx).Create(ctx, owner); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	if err := store.NewRoleStore(tx).Assign(ctx, owner.ID, store.RoleOwner); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	audit.Log(ctx, events.TenantRegistered, map[string]any{
		"tenant_id": ten.ID.String(),
		"user_id":   owner.ID.String(),
	})
	events.Emit(ctx, s.Events, events.TopicTenant, events.New(events.TenantRegistered, map[string]any{
		"tenantId":     ten.ID.String(),
		"hospitalName": ten.HospitalName,
		"subdomain":    ten.Subdomain,
	}))
	events.Emit(ctx, s.Events, events.TopicUser, events.New(events.UserCreated, map[string]any{
		"userId":   owner.ID.String(),
		"tenantId": ten.ID.String(),
		"role":     string(store.RoleOwner),
	}))

	// el correo de verificación sale fuera de la transacción; si falla, la
	// cuenta existe igual y el resend lo cubre
	plaintext, err := s.Tokens.Issue(ctx, store.IssueRequest{
		Kind:      store.TokenEmailVerify,
		UserID:    owner.ID,
		SentTo:    owner.Email,
		IP:        req.IP,
		UserAgent: req.UserAgent,
		TTL:       s.VerifyTTL,
	})
	if err == nil {
		metrics.TokensIssued.WithLabelValues(string(store.TokenEmailVerify)).Inc()
		if serr := s.Mailer.SendVerification(owner.Email, owner.FullName, ten.HospitalName, plaintext); serr != nil {
			logger.From(ctx).Warn("verification email failed",
				logger.UserID(owner.ID.String()), logger.Err(serr))
		}
	}

	return &RegisterResult{TenantID: ten.ID, UserID: owner.ID, Subdomain: ten.Subdomain}, nil
}

// Slugify deriva el subdominio a partir del nombre del hospital:
// minúsculas, alfanumérico y guiones.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
