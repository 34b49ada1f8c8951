package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Mojtabakargaran/identity-service/internal/session"
	"github.com/Mojtabakargaran/identity-service/internal/store"
)

type failingStore struct{}

func (failingStore) Create(ctx context.Context, s *session.Session, ttl time.Duration) error {
	return errors.New("backend down")
}
func (failingStore) Get(ctx context.Context, id string) (*session.Session, error) {
	return nil, errors.New("backend down")
}
func (failingStore) Delete(ctx context.Context, id string) error { return errors.New("backend down") }
func (failingStore) Ping(ctx context.Context) error              { return errors.New("backend down") }

func okHandler(t *testing.T, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		require.NotNil(t, GetSession(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func newSession(t *testing.T, ms session.Store, roles ...store.Role) *session.Session {
	t.Helper()
	s, err := session.New(uuid.New(), uuid.New(), "a@b.test", "A", roles, time.Hour, time.Now())
	require.NoError(t, err)
	require.NoError(t, ms.Create(context.Background(), s, time.Hour))
	return s
}

func TestRequireSession(t *testing.T) {
	ms := session.NewMemoryStore(time.Hour)
	s := newSession(t, ms)

	var called bool
	h := Chain(okHandler(t, &called), RequireSession(ms))

	// sin header
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, called)

	// session id desconocido
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, called)

	// sesión válida
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+s.ID)
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, called)
}

func TestRequireSessionFailsClosed(t *testing.T) {
	var called bool
	h := Chain(okHandler(t, &called), RequireSession(failingStore{}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer anything")
	h.ServeHTTP(rec, req)

	// error de infraestructura: 401, nunca pass-through
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, called)
}

func TestRequireRole(t *testing.T) {
	ms := session.NewMemoryStore(time.Hour)
	staff := newSession(t, ms, store.RoleStaff)
	admin := newSession(t, ms, store.RoleAdmin)

	var called bool
	h := Chain(okHandler(t, &called),
		RequireSession(ms),
		RequireRole(store.RoleOwner, store.RoleAdmin),
	)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+staff.ID)
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, called)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+admin.ID)
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, called)
}
