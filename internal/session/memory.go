package session

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore es el backend in-process para desarrollo y tests. go-cache
// expira por TTL y su janitor barre las entradas vencidas; igual que en
// Redis, una sesión vencida es indistinguible de una inexistente.
type MemoryStore struct {
	c   *gocache.Cache
	now func() time.Time
}

func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		c:   gocache.New(defaultTTL, time.Minute),
		now: time.Now,
	}
}

func (m *MemoryStore) Create(ctx context.Context, s *Session, ttl time.Duration) error {
	cp := *s
	m.c.Set(s.ID, &cp, ttl)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	v, ok := m.c.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s := v.(*Session)
	// go-cache solo barre lazily con el janitor; chequear ExpiresAt cubre
	// la ventana entre vencimiento y barrido.
	if !s.ExpiresAt.After(m.now()) {
		m.c.Delete(id)
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.c.Delete(id)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }
