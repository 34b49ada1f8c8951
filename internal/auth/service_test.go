package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Mojtabakargaran/identity-service/internal/events"
	"github.com/Mojtabakargaran/identity-service/internal/lockout"
	"github.com/Mojtabakargaran/identity-service/internal/rate"
	"github.com/Mojtabakargaran/identity-service/internal/security/password"
	"github.com/Mojtabakargaran/identity-service/internal/security/token"
	"github.com/Mojtabakargaran/identity-service/internal/session"
	"github.com/Mojtabakargaran/identity-service/internal/store"
)

// ---- fakes ----

type fakeUsers struct {
	byID       map[uuid.UUID]*store.User
	now        func() time.Time
	failUpdate error
}

func newFakeUsers(now func() time.Time) *fakeUsers {
	return &fakeUsers{byID: map[uuid.UUID]*store.User{}, now: now}
}

func (f *fakeUsers) add(u *store.User) { f.byID[u.ID] = u }

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*store.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	u, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	if u.Status != store.StatusPendingVerification {
		return store.ErrConflict
	}
	now := f.now()
	u.EmailVerifiedAt = &now
	u.Status = store.StatusActive
	return nil
}

func (f *fakeUsers) UpdatePasswordHash(ctx context.Context, id uuid.UUID, phc string) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	u, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = phc
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastFailedLoginAt = nil
	return nil
}

// lockout.Accounts sobre el mismo estado
func (f *fakeUsers) RecordLoginFailure(ctx context.Context, id uuid.UUID, threshold int, lockFor time.Duration) (int, *time.Time, error) {
	u, ok := f.byID[id]
	if !ok {
		return 0, nil, store.ErrNotFound
	}
	u.FailedLoginAttempts++
	now := f.now()
	u.LastFailedLoginAt = &now
	if u.FailedLoginAttempts >= threshold {
		until := now.Add(lockFor)
		u.LockedUntil = &until
	}
	return u.FailedLoginAttempts, u.LockedUntil, nil
}

func (f *fakeUsers) ResetLockout(ctx context.Context, id uuid.UUID) error {
	u, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastFailedLoginAt = nil
	return nil
}

type fakeRoles struct{ roles map[uuid.UUID][]store.Role }

func (f *fakeRoles) RolesOf(ctx context.Context, id uuid.UUID) ([]store.Role, error) {
	return f.roles[id], nil
}

type fakeTenants struct{ byID map[uuid.UUID]*store.Tenant }

func (f *fakeTenants) FindByID(ctx context.Context, id uuid.UUID) (*store.Tenant, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

type issued struct {
	id        uuid.UUID
	kind      store.TokenKind
	userID    uuid.UUID
	expiresAt time.Time
	usedAt    *time.Time
}

type fakeTokens struct {
	now    func() time.Time
	tokens map[string]*issued
}

func newFakeTokens(now func() time.Time) *fakeTokens {
	return &fakeTokens{now: now, tokens: map[string]*issued{}}
}

func (f *fakeTokens) Issue(ctx context.Context, req store.IssueRequest) (string, error) {
	if req.Kind == store.TokenPasswordReset {
		for _, t := range f.tokens {
			if t.kind == req.Kind && t.userID == req.UserID && t.usedAt == nil {
				now := f.now()
				t.usedAt = &now
			}
		}
	}
	plaintext, err := token.NewOpaque(32)
	if err != nil {
		return "", err
	}
	f.tokens[plaintext] = &issued{
		id:        uuid.New(),
		kind:      req.Kind,
		userID:    req.UserID,
		expiresAt: f.now().Add(req.TTL),
	}
	return plaintext, nil
}

func (f *fakeTokens) classify(kind store.TokenKind, plaintext string) (*issued, error) {
	t, ok := f.tokens[plaintext]
	if !ok || t.kind != kind {
		return nil, store.ErrTokenNotFound
	}
	if t.usedAt != nil {
		return nil, store.ErrTokenUsed
	}
	if !t.expiresAt.After(f.now()) {
		return nil, store.ErrTokenExpired
	}
	return t, nil
}

func (f *fakeTokens) Peek(ctx context.Context, kind store.TokenKind, plaintext string) (*store.TokenInfo, error) {
	t, err := f.classify(kind, plaintext)
	if err != nil {
		return nil, err
	}
	return &store.TokenInfo{ID: t.id, UserID: t.userID, ExpiresAt: t.expiresAt}, nil
}

func (f *fakeTokens) Consume(ctx context.Context, kind store.TokenKind, plaintext string) (*store.TokenInfo, error) {
	t, err := f.classify(kind, plaintext)
	if err != nil {
		return nil, err
	}
	now := f.now()
	t.usedAt = &now
	return &store.TokenInfo{ID: t.id, UserID: t.userID, ExpiresAt: t.expiresAt, UsedAt: t.usedAt}, nil
}

func (f *fakeTokens) snapshotUsed() map[string]*time.Time {
	m := make(map[string]*time.Time, len(f.tokens))
	for k, t := range f.tokens {
		m[k] = t.usedAt
	}
	return m
}

func (f *fakeTokens) restoreUsed(m map[string]*time.Time) {
	for k, t := range f.tokens {
		if v, ok := m[k]; ok {
			t.usedAt = v
		}
	}
}

type fakeMailer struct {
	verifications []string
	resets        []string
	lastToken     string
	fail          bool
}

func (f *fakeMailer) SendVerification(to, fullName, hospitalName, token string) error {
	if f.fail {
		return errTestSMTP
	}
	f.verifications = append(f.verifications, to)
	f.lastToken = token
	return nil
}

func (f *fakeMailer) SendPasswordReset(to, fullName, token string) error {
	if f.fail {
		return errTestSMTP
	}
	f.resets = append(f.resets, to)
	f.lastToken = token
	return nil
}

var errTestSMTP = &testSMTPError{}

var errTestDB = errors.New("db write failed")

type testSMTPError struct{}

func (*testSMTPError) Error() string { return "451 try again later" }

type recordedEvents struct{ types []string }

func (r *recordedEvents) Publish(ctx context.Context, topic string, ev events.Event) error {
	r.types = append(r.types, ev.EventType)
	return nil
}

func (r *recordedEvents) has(eventType string) bool {
	for _, t := range r.types {
		if t == eventType {
			return true
		}
	}
	return false
}

// ---- harness ----

type harness struct {
	svc    *Service
	users  *fakeUsers
	tokens *fakeTokens
	mailer *fakeMailer
	events *recordedEvents
	clock  *time.Time
	owner  *store.User
}

const ownerPassword = "Sup3r$ecret"

func newHarness(t *testing.T) *harness {
	t.Helper()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := &now
	nowFn := func() time.Time { return *clock }

	users := newFakeUsers(nowFn)
	phc, err := password.Hash(password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}, ownerPassword)
	require.NoError(t, err)

	tenantID := uuid.New()
	owner := &store.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		FullName:     "Dana Owner",
		Email:        "owner@clinic.test",
		PasswordHash: phc,
		Status:       store.StatusActive,
	}
	users.add(owner)

	machine := lockout.New(users, 5, 30*time.Minute)
	machine.Now = nowFn

	tokens := newFakeTokens(nowFn)
	mailer := &fakeMailer{}
	rec := &recordedEvents{}

	svc := &Service{
		Users:      users,
		Roles:      &fakeRoles{roles: map[uuid.UUID][]store.Role{owner.ID: {store.RoleOwner}}},
		Tenants:    &fakeTenants{byID: map[uuid.UUID]*store.Tenant{tenantID: {ID: tenantID, HospitalName: "Clinic"}}},
		Tokens:     tokens,
		Lockout:    machine,
		Sessions:   session.NewMemoryStore(time.Hour),
		Mailer:     mailer,
		Events:     rec,
		Params:     password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32},
		Policy:     password.DefaultPolicy,
		SessionTTL: time.Hour,
		VerifyTTL:  24 * time.Hour,
		ResetTTL:   24 * time.Hour,
		Now:        nowFn,
	}
	// Tx en memoria: si fn falla, los tokens vuelven atrás igual que con
	// el rollback real.
	svc.Tx = func(ctx context.Context, fn func(Users, Tokens) error) error {
		snap := tokens.snapshotUsed()
		if err := fn(users, tokens); err != nil {
			tokens.restoreUsed(snap)
			return err
		}
		return nil
	}
	return &harness{svc: svc, users: users, tokens: tokens, mailer: mailer, events: rec, clock: clock, owner: owner}
}

func (h *harness) advance(d time.Duration) { *h.clock = h.clock.Add(d) }

// ---- login ----

func TestLoginSuccess(t *testing.T) {
	h := newHarness(t)
	sess, err := h.svc.Login(context.Background(), LoginRequest{Email: h.owner.Email, Password: ownerPassword})
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	require.Equal(t, h.owner.ID, sess.AccountID)
	require.True(t, sess.HasRole(store.RoleOwner))
	require.True(t, h.events.has(events.UserLoggedIn))
}

func TestLoginUnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, errUnknown := h.svc.Login(ctx, LoginRequest{Email: "nobody@clinic.test", Password: "whatever"})
	_, errWrong := h.svc.Login(ctx, LoginRequest{Email: h.owner.Email, Password: "wrong"})

	require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	require.ErrorIs(t, errWrong, ErrInvalidCredentials)
	require.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLoginUnverifiedAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.users.byID[h.owner.ID].Status = store.StatusPendingVerification

	_, err := h.svc.Login(ctx, LoginRequest{Email: h.owner.Email, Password: ownerPassword})
	require.ErrorIs(t, err, ErrEmailNotVerified)

	// con contraseña incorrecta la respuesta es la misma y no se gastan
	// intentos de lockout: una cuenta sin verificar no puede bloquearse
	for i := 0; i < 6; i++ {
		_, err = h.svc.Login(ctx, LoginRequest{Email: h.owner.Email, Password: "wrong"})
		require.ErrorIs(t, err, ErrEmailNotVerified)
	}
	require.Zero(t, h.users.byID[h.owner.ID].FailedLoginAttempts)
	require.Nil(t, h.users.byID[h.owner.ID].LockedUntil)
}

func TestLockoutAfterFiveFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		_, err := h.svc.Login(ctx, LoginRequest{Email: h.owner.Email, Password: "wrong"})
		require.ErrorIs(t, err, ErrInvalidCredentials, "failure %d", i)
	}

	// el quinto intento bloquea
	_, err := h.svc.Login(ctx, LoginRequest{Email: h.owner.Email, Password: "wrong"})
	var locked *LockedError
	require.ErrorAs(t, err, &locked)
	require.Equal(t, h.clock.Add(30*time.Minute), locked.Until)
	require.True(t, h.events.has(events.AccountLocked))

	// bloqueada: la contraseña correcta también rebota
	_, err = h.svc.Login(ctx, LoginRequest{Email: h.owner.Email, Password: ownerPassword})
	require.ErrorAs(t, err, &locked)

	// pasado el bloqueo el login vuelve a funcionar y limpia el contador
	h.advance(30*time.Minute + time.Second)
	sess, err := h.svc.Login(ctx, LoginRequest{Email: h.owner.Email, Password: ownerPassword})
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Zero(t, h.users.byID[h.owner.ID].FailedLoginAttempts)
	require.True(t, h.events.has(events.AccountUnlocked))
}

func TestLogoutIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sess, err := h.svc.Login(ctx, LoginRequest{Email: h.owner.Email, Password: ownerPassword})
	require.NoError(t, err)

	require.NoError(t, h.svc.Logout(ctx, sess.ID))
	require.NoError(t, h.svc.Logout(ctx, sess.ID))
	require.NoError(t, h.svc.Logout(ctx, "never-existed"))

	_, err = h.svc.Sessions.Get(ctx, sess.ID)
	require.ErrorIs(t, err, session.ErrNotFound)
}

// ---- email verification ----

func TestVerifyEmailActivatesAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.users.byID[h.owner.ID].Status = store.StatusPendingVerification

	plaintext, err := h.tokens.Issue(ctx, store.IssueRequest{
		Kind: store.TokenEmailVerify, UserID: h.owner.ID, SentTo: h.owner.Email, TTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	require.NoError(t, h.svc.VerifyEmail(ctx, plaintext))
	require.Equal(t, store.StatusActive, h.users.byID[h.owner.ID].Status)

	// register → verify → login
	sess, err := h.svc.Login(ctx, LoginRequest{Email: h.owner.Email, Password: ownerPassword})
	require.NoError(t, err)
	require.NotNil(t, sess)

	// segundo consumo del mismo token
	require.ErrorIs(t, h.svc.VerifyEmail(ctx, plaintext), ErrTokenUsed)
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.users.byID[h.owner.ID].Status = store.StatusPendingVerification

	plaintext, err := h.tokens.Issue(ctx, store.IssueRequest{
		Kind: store.TokenEmailVerify, UserID: h.owner.ID, SentTo: h.owner.Email, TTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	h.advance(24 * time.Hour)
	require.ErrorIs(t, h.svc.VerifyEmail(ctx, plaintext), ErrTokenExpired)
}

func TestVerifyEmailUnknownToken(t *testing.T) {
	h := newHarness(t)
	require.ErrorIs(t, h.svc.VerifyEmail(context.Background(), "bogus"), ErrTokenNotFound)
}

func TestVerifyEmailSuspendedAccountKeepsTokenAlive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.users.byID[h.owner.ID].Status = store.StatusSuspended

	plaintext, err := h.tokens.Issue(ctx, store.IssueRequest{
		Kind: store.TokenEmailVerify, UserID: h.owner.ID, SentTo: h.owner.Email, TTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	require.ErrorIs(t, h.svc.VerifyEmail(ctx, plaintext), ErrAccountSuspended)

	// el token no se quemó: reactivada la cuenta, el mismo link sirve
	h.users.byID[h.owner.ID].Status = store.StatusPendingVerification
	require.NoError(t, h.svc.VerifyEmail(ctx, plaintext))
}

func TestVerifyEmailSuspendedButVerifiedWinsAlreadyVerified(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	verifiedAt := h.svc.now().Add(-time.Hour)
	h.users.byID[h.owner.ID].Status = store.StatusSuspended
	h.users.byID[h.owner.ID].EmailVerifiedAt = &verifiedAt

	plaintext, err := h.tokens.Issue(ctx, store.IssueRequest{
		Kind: store.TokenEmailVerify, UserID: h.owner.ID, SentTo: h.owner.Email, TTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	require.ErrorIs(t, h.svc.VerifyEmail(ctx, plaintext), ErrAlreadyVerified)
}

func TestResendVerification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.ErrorIs(t, h.svc.ResendVerification(ctx, "nobody@clinic.test", "10.0.0.1"), ErrUserNotFound)
	require.ErrorIs(t, h.svc.ResendVerification(ctx, h.owner.Email, "10.0.0.1"), ErrAlreadyVerified)
	require.Empty(t, h.mailer.verifications)

	h.users.byID[h.owner.ID].Status = store.StatusPendingVerification
	require.NoError(t, h.svc.ResendVerification(ctx, h.owner.Email, "10.0.0.1"))
	require.Equal(t, []string{h.owner.Email}, h.mailer.verifications)
}

// ---- password reset ----

func TestResendVerificationRateLimitEmitsEvent(t *testing.T) {
	h := newHarness(t)
	h.svc.ResendLimit = rate.Pair{
		ByEmail: rate.NewMemoryLimiter(3, time.Hour),
		ByIP:    rate.NewMemoryLimiter(3, time.Hour),
	}
	ctx := context.Background()
	h.users.byID[h.owner.ID].Status = store.StatusPendingVerification

	for i := 1; i <= 3; i++ {
		require.NoError(t, h.svc.ResendVerification(ctx, h.owner.Email, "10.0.0.1"), "request %d", i)
	}

	err := h.svc.ResendVerification(ctx, h.owner.Email, "10.0.0.1")
	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	require.True(t, h.events.has(events.VerificationRateLimited))
}

func TestForgotPasswordRateLimit(t *testing.T) {
	h := newHarness(t)
	h.svc.ForgotLimit = rate.Pair{
		ByEmail: rate.NewMemoryLimiter(3, time.Hour),
		ByIP:    rate.NewMemoryLimiter(3, time.Hour),
	}
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, h.svc.RequestPasswordReset(ctx, ForgotRequest{Email: h.owner.Email, IP: "10.0.0.1"}), "request %d", i)
	}

	err := h.svc.RequestPasswordReset(ctx, ForgotRequest{Email: h.owner.Email, IP: "10.0.0.1"})
	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	require.Greater(t, rl.RetryAfter, time.Duration(0))
	require.True(t, h.events.has(events.PasswordResetRateLimited))
}

func TestForgotPasswordUnknownEmailSucceedsQuietly(t *testing.T) {
	h := newHarness(t)
	err := h.svc.RequestPasswordReset(context.Background(), ForgotRequest{Email: "nobody@clinic.test", IP: "10.0.0.1"})
	require.NoError(t, err)
	require.True(t, h.events.has(events.PasswordResetUnknownEmail))
	require.Empty(t, h.mailer.resets, "no email should go out for an unknown address")
}

func TestForgotPasswordEmailDeliveryFailure(t *testing.T) {
	h := newHarness(t)
	h.mailer.fail = true
	err := h.svc.RequestPasswordReset(context.Background(), ForgotRequest{Email: h.owner.Email, IP: "10.0.0.1"})
	require.ErrorIs(t, err, ErrEmailDelivery)
	require.True(t, h.events.has(events.PasswordResetFailed))
}

func TestReissueInvalidatesPriorResetToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.svc.RequestPasswordReset(ctx, ForgotRequest{Email: h.owner.Email, IP: "10.0.0.1"}))
	first := h.mailer.lastToken

	require.NoError(t, h.svc.RequestPasswordReset(ctx, ForgotRequest{Email: h.owner.Email, IP: "10.0.0.1"}))
	second := h.mailer.lastToken
	require.NotEqual(t, first, second)

	// el link viejo responde "ya usado", el nuevo sigue vivo
	require.ErrorIs(t, h.svc.ValidateResetToken(ctx, first), ErrTokenUsed)
	require.NoError(t, h.svc.ValidateResetToken(ctx, second))
}

func TestResetPasswordHappyPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.svc.RequestPasswordReset(ctx, ForgotRequest{Email: h.owner.Email, IP: "10.0.0.1"}))
	tok := h.mailer.lastToken

	const newPassword = "N3w$ecret!pw"
	require.NoError(t, h.svc.ResetPassword(ctx, ResetRequest{Token: tok, NewPassword: newPassword, Confirm: newPassword}))
	require.True(t, h.events.has(events.PasswordResetCompleted))

	// la vieja ya no sirve, la nueva sí
	_, err := h.svc.Login(ctx, LoginRequest{Email: h.owner.Email, Password: ownerPassword})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = h.svc.Login(ctx, LoginRequest{Email: h.owner.Email, Password: newPassword})
	require.NoError(t, err)

	// token consumido: single-use
	err = h.svc.ResetPassword(ctx, ResetRequest{Token: tok, NewPassword: "Oth3r$ecret", Confirm: "Oth3r$ecret"})
	require.ErrorIs(t, err, ErrTokenUsed)
}

func TestResetPasswordValidations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.svc.RequestPasswordReset(ctx, ForgotRequest{Email: h.owner.Email, IP: "10.0.0.1"}))
	tok := h.mailer.lastToken

	err := h.svc.ResetPassword(ctx, ResetRequest{Token: tok, NewPassword: "N3w$ecret!pw", Confirm: "distinta"})
	require.ErrorIs(t, err, ErrPasswordMismatch)

	var policy *PolicyError
	err = h.svc.ResetPassword(ctx, ResetRequest{Token: tok, NewPassword: "corta", Confirm: "corta"})
	require.ErrorAs(t, err, &policy)
	require.NotEmpty(t, policy.Reasons)

	err = h.svc.ResetPassword(ctx, ResetRequest{Token: tok, NewPassword: ownerPassword, Confirm: ownerPassword})
	require.ErrorIs(t, err, ErrSameAsCurrent)

	// las validaciones fallidas no queman el token
	require.NoError(t, h.svc.ValidateResetToken(ctx, tok))
}

func TestResetPasswordClearsLockout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		h.svc.Login(ctx, LoginRequest{Email: h.owner.Email, Password: "wrong"})
	}
	require.NotNil(t, h.users.byID[h.owner.ID].LockedUntil)

	require.NoError(t, h.svc.RequestPasswordReset(ctx, ForgotRequest{Email: h.owner.Email, IP: "10.0.0.1"}))
	const newPassword = "N3w$ecret!pw"

	// mientras dura el bloqueo, el reset se rechaza
	var locked *LockedError
	err := h.svc.ResetPassword(ctx, ResetRequest{Token: h.mailer.lastToken, NewPassword: newPassword, Confirm: newPassword})
	require.ErrorAs(t, err, &locked)
	require.ErrorAs(t, h.svc.ValidateResetToken(ctx, h.mailer.lastToken), &locked)

	h.advance(31 * time.Minute)
	require.NoError(t, h.svc.ResetPassword(ctx, ResetRequest{Token: h.mailer.lastToken, NewPassword: newPassword, Confirm: newPassword}))

	require.Nil(t, h.users.byID[h.owner.ID].LockedUntil)
	_, err = h.svc.Login(ctx, LoginRequest{Email: h.owner.Email, Password: newPassword})
	require.NoError(t, err)
}

func TestResetPasswordUpdateFailureKeepsTokenAlive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.svc.RequestPasswordReset(ctx, ForgotRequest{Email: h.owner.Email, IP: "10.0.0.1"}))
	const newPassword = "N3w$ecret!pw"

	h.users.failUpdate = errTestDB
	err := h.svc.ResetPassword(ctx, ResetRequest{Token: h.mailer.lastToken, NewPassword: newPassword, Confirm: newPassword})
	require.ErrorIs(t, err, ErrUpdateFailed)
	require.True(t, h.events.has(events.PasswordResetFailed))

	// el mismo link tiene que seguir vivo para el reintento
	h.users.failUpdate = nil
	require.NoError(t, h.svc.ResetPassword(ctx, ResetRequest{Token: h.mailer.lastToken, NewPassword: newPassword, Confirm: newPassword}))
}
