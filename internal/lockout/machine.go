// Package lockout implementa la máquina de estados de bloqueo de cuenta
// por fuerza bruta. El contador vive en la fila del usuario y se incrementa
// de forma atómica en el store; acá solo viven el umbral y las decisiones.
package lockout

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Mojtabakargaran/identity-service/internal/store"
)

const (
	DefaultThreshold = 5
	DefaultDuration  = 30 * time.Minute
)

// Accounts es la porción del store de usuarios que la máquina necesita.
type Accounts interface {
	RecordLoginFailure(ctx context.Context, id uuid.UUID, threshold int, lockFor time.Duration) (attempts int, lockedUntil *time.Time, err error)
	ResetLockout(ctx context.Context, id uuid.UUID) error
}

type Machine struct {
	Accounts  Accounts
	Threshold int
	Duration  time.Duration
	Now       func() time.Time
}

func New(accounts Accounts, threshold int, duration time.Duration) *Machine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Machine{Accounts: accounts, Threshold: threshold, Duration: duration, Now: time.Now}
}

// Locked reporta si la cuenta está bloqueada ahora. Se consulta ANTES de
// verificar la contraseña: una cuenta bloqueada rechaza el login aunque la
// contraseña sea correcta.
func (m *Machine) Locked(u *store.User) bool {
	return u.Locked(m.Now())
}

// RecordFailure registra un intento fallido. Devuelve si la cuenta quedó
// bloqueada con este intento y hasta cuándo.
func (m *Machine) RecordFailure(ctx context.Context, userID uuid.UUID) (locked bool, until *time.Time, err error) {
	attempts, lockedUntil, err := m.Accounts.RecordLoginFailure(ctx, userID, m.Threshold, m.Duration)
	if err != nil {
		return false, nil, err
	}
	if attempts >= m.Threshold && lockedUntil != nil {
		return true, lockedUntil, nil
	}
	return false, lockedUntil, nil
}

// RecordSuccess limpia contador y bloqueo tras un login exitoso. Devuelve
// si la cuenta venía de un bloqueo ya vencido, para que el caller emita el
// evento de desbloqueo.
func (m *Machine) RecordSuccess(ctx context.Context, u *store.User) (wasLocked bool, err error) {
	wasLocked = u.LockedUntil != nil
	if u.FailedLoginAttempts == 0 && u.LockedUntil == nil {
		return false, nil
	}
	return wasLocked, m.Accounts.ResetLockout(ctx, u.ID)
}
