// Package session implementa el almacén de sesiones server-side. El cliente
// recibe solo el session_id opaco; todo el estado vive en el backend (Redis
// en producción, memoria en desarrollo) y se valida en cada request.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Mojtabakargaran/identity-service/internal/security/token"
	"github.com/Mojtabakargaran/identity-service/internal/store"
)

var ErrNotFound = errors.New("session: not found or expired")

type Session struct {
	ID        string       `json:"id"`
	AccountID uuid.UUID    `json:"account_id"`
	TenantID  uuid.UUID    `json:"tenant_id"`
	Email     string       `json:"email"`
	FullName  string       `json:"full_name"`
	Roles     []store.Role `json:"roles"`
	CSRFToken string       `json:"csrf_token"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Store define las operaciones del almacén de sesiones.
type Store interface {
	// Create persiste la sesión con el TTL dado.
	Create(ctx context.Context, s *Session, ttl time.Duration) error

	// Get resuelve un session_id. Retorna ErrNotFound si no existe o venció.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete invalida la sesión (logout). Idempotente.
	Delete(ctx context.Context, id string) error

	// Ping verifica la conexión del backend.
	Ping(ctx context.Context) error
}

// New arma una sesión nueva con session_id y csrf_token opacos de 256 bits.
func New(accountID, tenantID uuid.UUID, email, fullName string, roles []store.Role, ttl time.Duration, now time.Time) (*Session, error) {
	id, err := token.NewOpaque(32)
	if err != nil {
		return nil, err
	}
	csrf, err := token.NewOpaque(32)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        id,
		AccountID: accountID,
		TenantID:  tenantID,
		Email:     email,
		FullName:  fullName,
		Roles:     roles,
		CSRFToken: csrf,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// HasRole reporta si la sesión carga el rol pedido.
func (s *Session) HasRole(role store.Role) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}
