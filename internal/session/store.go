// Package session implementa el store de la única sesión viva del proceso.
//
// El store guarda el valor actual con get/replace atómicos y persiste la
// última identidad conocida en el cache opaco, para que en un arranque frío
// el coordinator pueda mostrar la sesión autenticada de forma optimista antes
// de confirmar frescura contra el proveedor remoto.
package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dropDatabas3/sessionkit/internal/cache"
	"github.com/dropDatabas3/sessionkit/internal/domain"
	"github.com/dropDatabas3/sessionkit/internal/observability/logger"
)

const keyPrefix = "session:last:"

// Store guarda la sesión viva y su persistencia entre reinicios.
type Store struct {
	mu      sync.Mutex
	current domain.Session

	cache cache.Cache
	appID string
	ttl   time.Duration
}

// New crea el store. appID separa blobs de apps distintas en el mismo backend.
// ttl 0 significa sin expiración.
func New(c cache.Cache, appID string, ttl time.Duration) *Store {
	return &Store{
		current: domain.Unauthenticated(),
		cache:   c,
		appID:   appID,
		ttl:     ttl,
	}
}

// Get retorna la sesión actual.
func (s *Store) Get() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Replace reemplaza la sesión entera y sincroniza la persistencia: si la
// sesión queda autenticada se persiste su identidad, si queda sin identidad
// se borra el blob. Retorna la sesión anterior.
func (s *Store) Replace(next domain.Session) domain.Session {
	s.mu.Lock()
	prev := s.current
	s.current = next
	s.mu.Unlock()

	log := logger.Named("session.store")
	if next.IsAuthenticated() {
		b, err := json.Marshal(next.Identity)
		if err != nil {
			log.Warn("failed to marshal identity for persistence", logger.Err(err))
			return prev
		}
		if err := s.cache.Set(s.key(), b, s.ttl); err != nil {
			// La persistencia es best-effort: la sesión en memoria ya cambió.
			log.Warn("failed to persist identity", logger.Err(err), logger.Key(s.key()))
		}
	} else if next.Identity == nil && prev.Identity != nil {
		if err := s.cache.Delete(s.key()); err != nil {
			log.Warn("failed to delete persisted identity", logger.Err(err), logger.Key(s.key()))
		}
	}
	return prev
}

// Restore carga la última identidad persistida, si existe. Se usa una sola
// vez en el arranque; no toca la sesión en memoria.
func (s *Store) Restore() (*domain.Identity, bool) {
	b, ok := s.cache.Get(s.key())
	if !ok || len(b) == 0 {
		return nil, false
	}
	var id domain.Identity
	if err := json.Unmarshal(b, &id); err != nil {
		logger.Named("session.store").Warn("corrupt persisted identity, dropping",
			logger.Err(err), logger.Key(s.key()))
		_ = s.cache.Delete(s.key())
		return nil, false
	}
	if id.ID == "" {
		return nil, false
	}
	return &id, true
}

func (s *Store) key() string {
	return keyPrefix + s.appID
}
