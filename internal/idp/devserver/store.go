package devserver

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dropDatabas3/sessionkit/internal/security/password"
	"github.com/google/uuid"
)

// userRecord es el registro interno de un usuario del IdP de desarrollo.
type userRecord struct {
	ID           string
	Email        string
	DisplayName  string
	AvatarURL    string
	PasswordHash string
	// Providers en orden de vinculación; el primero declarado es el canónico.
	Providers []string
	Revoked   bool
}

// userStore es la tabla de usuarios en memoria.
type userStore struct {
	mu      sync.Mutex
	byID    map[string]*userRecord
	byEmail map[string]*userRecord
}

func newUserStore() *userStore {
	return &userStore{
		byID:    make(map[string]*userRecord),
		byEmail: make(map[string]*userRecord),
	}
}

var (
	errEmailTaken         = fmt.Errorf("email already registered")
	errInvalidCredentials = fmt.Errorf("wrong email or password")
	errUserNotFound       = fmt.Errorf("user not found")
)

// CreatePassword da de alta un usuario con credencial password.
func (s *userStore) CreatePassword(email, plainPassword string) (*userRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := s.byEmail[email]; ok {
		return nil, errEmailTaken
	}
	phc, err := password.Hash(password.Default, plainPassword)
	if err != nil {
		return nil, err
	}
	u := &userRecord{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: phc,
		Providers:    []string{"password"},
	}
	s.byID[u.ID] = u
	s.byEmail[email] = u
	return u, nil
}

// Authenticate verifica el par email+password.
func (s *userStore) Authenticate(email, plainPassword string) (*userRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	u, ok := s.byEmail[email]
	if !ok || u.PasswordHash == "" {
		return nil, errInvalidCredentials
	}
	if !password.Verify(plainPassword, u.PasswordHash) {
		return nil, errInvalidCredentials
	}
	u.Revoked = false
	return u, nil
}

// UpsertFederated crea o vincula un usuario federado por email.
func (s *userStore) UpsertFederated(provider, email, displayName, avatarURL string) *userRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	if u, ok := s.byEmail[email]; ok && email != "" {
		if !hasProvider(u.Providers, provider) {
			u.Providers = append(u.Providers, provider)
		}
		u.Revoked = false
		return u
	}
	u := &userRecord{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		Providers:   []string{provider},
	}
	s.byID[u.ID] = u
	if email != "" {
		s.byEmail[email] = u
	}
	return u
}

// Get retorna el usuario por ID.
func (s *userStore) Get(id string) (*userRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, errUserNotFound
	}
	return u, nil
}

// SetDisplayName actualiza el nombre para mostrar.
func (s *userStore) SetDisplayName(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return errUserNotFound
	}
	u.DisplayName = name
	return nil
}

// Revoke marca la sesión remota del usuario como revocada.
func (s *userStore) Revoke(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return errUserNotFound
	}
	u.Revoked = true
	return nil
}

func hasProvider(ps []string, p string) bool {
	for _, x := range ps {
		if x == p {
			return true
		}
	}
	return false
}
