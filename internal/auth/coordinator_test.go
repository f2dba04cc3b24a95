package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/sessionkit/internal/cache"
	"github.com/dropDatabas3/sessionkit/internal/domain"
	"github.com/dropDatabas3/sessionkit/internal/events"
	"github.com/dropDatabas3/sessionkit/internal/provider"
	"github.com/dropDatabas3/sessionkit/internal/session"
	"github.com/stretchr/testify/require"
)

// fakeAdapter es un adapter controlable para tests del coordinator.
type fakeAdapter struct {
	kind domain.Provider

	mu        sync.Mutex
	exchanges int
	signups   int
	fetches   int
	revoked   []string
	profiles  map[string]string

	record    *provider.RemoteUserRecord
	err       error
	revokeErr error
	// block, si no es nil, frena Exchange hasta que se cierre.
	block chan struct{}
}

func newFake(kind domain.Provider) *fakeAdapter {
	return &fakeAdapter{kind: kind, profiles: map[string]string{}}
}

func (f *fakeAdapter) Kind() domain.Provider { return f.kind }

func (f *fakeAdapter) Exchange(ctx context.Context, cred provider.Credential) (*provider.RemoteUserRecord, error) {
	f.mu.Lock()
	f.exchanges++
	block := f.block
	rec, err := f.record, f.err
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, domain.NewNetworkError(ctx.Err())
		}
		// releer: el test puede cambiar el resultado antes de liberar
		f.mu.Lock()
		rec, err = f.record, f.err
		f.mu.Unlock()
	}
	if err != nil {
		return nil, err
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeAdapter) SignUp(ctx context.Context, cred provider.PasswordCredential) (*provider.RemoteUserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signups++
	if f.err != nil {
		return nil, f.err
	}
	rec := &provider.RemoteUserRecord{ID: "new-user", Email: cred.Email, Providers: []string{"password"}}
	f.record = rec
	cp := *rec
	return &cp, nil
}

func (f *fakeAdapter) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[userID] = displayName
	return nil
}

func (f *fakeAdapter) Fetch(ctx context.Context, userID string) (*provider.RemoteUserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.record
	cp.DisplayName = f.profiles[userID]
	return &cp, nil
}

func (f *fakeAdapter) Revoke(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, userID)
	return f.revokeErr
}

func (f *fakeAdapter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchanges + f.signups + f.fetches
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeAdapter, *fakeAdapter) {
	t.Helper()
	pw := newFake(domain.ProviderPassword)
	gg := newFake(domain.ProviderGoogle)
	store := session.New(cache.NewMemory(time.Hour), "test", 0)
	c := New(Deps{
		Store: store,
		Bus:   events.New(),
		Adapters: map[domain.Provider]provider.Adapter{
			domain.ProviderPassword: pw,
			domain.ProviderGoogle:   gg,
		},
		ExchangeTimeout: 2 * time.Second,
	})
	return c, pw, gg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSignIn_MalformedEmailNoNetworkCall(t *testing.T) {
	c, pw, _ := newTestCoordinator(t)
	before := c.Session()

	for _, email := range []string{"", "bad-email", "a@b", "a b@c.com", "@x.com"} {
		_, err := c.SignInWithPassword(context.Background(), email, "x")
		require.ErrorIs(t, err, domain.ErrInvalidInput, "email %q", email)
	}
	require.Equal(t, 0, pw.calls(), "validation failures must not reach the network")
	require.True(t, before.Equal(c.Session()), "session must be unchanged")
}

func TestSignIn_Success(t *testing.T) {
	c, pw, _ := newTestCoordinator(t)
	pw.record = &provider.RemoteUserRecord{ID: "u1", Email: "a@b.com", Providers: []string{"password"}}

	id, err := c.SignInWithPassword(context.Background(), " A@B.com ", "pw")
	require.NoError(t, err)
	require.Equal(t, "u1", id.ID)
	require.Equal(t, domain.ProviderPassword, id.Provider)

	got := c.Session()
	require.True(t, got.IsAuthenticated())
	require.Equal(t, "u1", got.Identity.ID)
}

func TestSignIn_FreshFailureLeavesUnauthenticated(t *testing.T) {
	c, pw, _ := newTestCoordinator(t)
	pw.err = domain.NewProviderError("wrong email or password", nil)

	_, err := c.SignInWithPassword(context.Background(), "a@b.com", "bad")
	require.ErrorIs(t, err, domain.ErrProvider)

	got := c.Session()
	require.Equal(t, domain.StatusError, got.Status)
	require.Nil(t, got.Identity)
	require.Contains(t, got.ErrorMessage, "wrong email or password")
}

func TestSignIn_ReauthFailureRestoresPreviousIdentity(t *testing.T) {
	c, pw, _ := newTestCoordinator(t)
	pw.record = &provider.RemoteUserRecord{ID: "u1", Email: "a@b.com"}
	_, err := c.SignInWithPassword(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	pw.err = domain.NewNetworkError(errors.New("connection refused"))
	_, err = c.SignInWithPassword(context.Background(), "a@b.com", "pw")
	require.ErrorIs(t, err, domain.ErrNetwork)

	got := c.Session()
	require.Equal(t, domain.StatusAuthenticated, got.Status)
	require.Equal(t, "u1", got.Identity.ID)
	require.NotEmpty(t, got.ErrorMessage)
}

func TestSignUp_ShortPassword(t *testing.T) {
	c, pw, _ := newTestCoordinator(t)
	_, err := c.SignUpWithPassword(context.Background(), "a@b.com", "12345", "Ann")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	require.Equal(t, 0, pw.calls())
}

func TestSignUp_BlankDisplayName(t *testing.T) {
	c, pw, _ := newTestCoordinator(t)
	_, err := c.SignUpWithPassword(context.Background(), "a@b.com", "secret", "   ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	require.Equal(t, 0, pw.calls())
}

func TestSignUp_TwoStepProfileScenario(t *testing.T) {
	c, pw, _ := newTestCoordinator(t)

	id, err := c.SignUpWithPassword(context.Background(), "a@b.com", "secret", "Ann")
	require.NoError(t, err)
	require.Equal(t, "a@b.com", id.Email)
	require.Equal(t, "Ann", id.DisplayName)
	require.Equal(t, domain.ProviderPassword, id.Provider)

	// Alta en dos pasos: create + profile update, luego re-fetch.
	require.Equal(t, 1, pw.signups)
	require.Equal(t, "Ann", pw.profiles["new-user"])
	require.Equal(t, 1, pw.fetches)
}

func TestConcurrentOperation_Rejected(t *testing.T) {
	c, pw, _ := newTestCoordinator(t)
	pw.record = &provider.RemoteUserRecord{ID: "u1", Email: "a@b.com"}
	pw.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := c.SignInWithPassword(context.Background(), "a@b.com", "pw")
		done <- err
	}()

	waitFor(t, func() bool { return c.Session().Status == domain.StatusAuthenticating })

	// Segunda operación mientras la primera está en vuelo.
	_, err := c.SignInWithPassword(context.Background(), "a@b.com", "pw")
	require.ErrorIs(t, err, domain.ErrAlreadyInProgress)

	// El resultado de la primera igual se aplica.
	close(pw.block)
	require.NoError(t, <-done)
	require.True(t, c.Session().IsAuthenticated())
	require.Equal(t, "u1", c.Session().Identity.ID)
}

func TestSignOut_AlwaysClearsLocally(t *testing.T) {
	c, pw, _ := newTestCoordinator(t)
	pw.record = &provider.RemoteUserRecord{ID: "u1", Email: "a@b.com"}
	_, err := c.SignInWithPassword(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	// La revocación remota falla: el signOut local no se entera.
	pw.revokeErr = errors.New("network down")
	require.NoError(t, c.SignOut(context.Background()))

	got := c.Session()
	require.Equal(t, domain.StatusUnauthenticated, got.Status)
	require.Nil(t, got.Identity)
	require.Equal(t, []string{"u1"}, pw.revoked)
}

func TestSignOut_InvalidatesInFlightCompletion(t *testing.T) {
	c, pw, _ := newTestCoordinator(t)
	pw.record = &provider.RemoteUserRecord{ID: "u1", Email: "a@b.com"}
	pw.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := c.SignInWithPassword(context.Background(), "a@b.com", "pw")
		done <- err
	}()
	waitFor(t, func() bool { return c.Session().Status == domain.StatusAuthenticating })

	require.NoError(t, c.SignOut(context.Background()))
	close(pw.block)

	err := <-done
	require.ErrorIs(t, err, domain.ErrInvalidState)
	// La completion obsoleta no resucita la sesión.
	require.Equal(t, domain.StatusUnauthenticated, c.Session().Status)
}

func TestFederated_CompleteWithoutBegin(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	_, err := c.CompleteFederatedSignIn(context.Background(), domain.ProviderGoogle, "tok")
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestFederated_SingleNonceAndUnconditionalClear(t *testing.T) {
	c, _, gg := newTestCoordinator(t)
	gg.err = domain.NewProviderError("provider rejected token", nil)

	ch1, err := c.BeginFederatedSignIn(domain.ProviderGoogle)
	require.NoError(t, err)
	require.NotEmpty(t, ch1)

	// Un segundo begin reemplaza el nonce: sigue habiendo exactamente uno.
	ch2, err := c.BeginFederatedSignIn(domain.ProviderGoogle)
	require.NoError(t, err)
	require.NotEqual(t, ch1, ch2)
	got, ok := c.pendingChallenge()
	require.True(t, ok)
	require.Equal(t, ch2, got)

	// La falla consume el nonce igual.
	_, err = c.CompleteFederatedSignIn(context.Background(), domain.ProviderGoogle, "tok")
	require.ErrorIs(t, err, domain.ErrProvider)
	_, ok = c.pendingChallenge()
	require.False(t, ok)

	// Reuso del mismo intento: InvalidState.
	_, err = c.CompleteFederatedSignIn(context.Background(), domain.ProviderGoogle, "tok")
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestFederated_ProviderMismatch(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	_, err := c.BeginFederatedSignIn(domain.ProviderGoogle)
	require.NoError(t, err)

	// github no tiene adapter registrado en este fixture
	_, err = c.CompleteFederatedSignIn(context.Background(), domain.ProviderGitHub, "tok")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	// El nonce de google sigue vivo: el mismatch de arriba no lo consumió.
	_, ok := c.pendingChallenge()
	require.True(t, ok)
}

func TestFederated_PasswordProviderRejected(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	_, err := c.BeginFederatedSignIn(domain.ProviderPassword)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFederated_Cancel(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	_, err := c.BeginFederatedSignIn(domain.ProviderGoogle)
	require.NoError(t, err)

	c.CancelFederatedSignIn()
	_, err = c.CompleteFederatedSignIn(context.Background(), domain.ProviderGoogle, "tok")
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestFederated_SuccessPublishesIdentity(t *testing.T) {
	c, _, gg := newTestCoordinator(t)
	gg.record = &provider.RemoteUserRecord{ID: "g1", Email: "g@x.com", Providers: []string{"google", "password"}}

	_, err := c.BeginFederatedSignIn(domain.ProviderGoogle)
	require.NoError(t, err)
	id, err := c.CompleteFederatedSignIn(context.Background(), domain.ProviderGoogle, "tok")
	require.NoError(t, err)

	// Tie-break: el primer proveedor declarado es el canónico.
	require.Equal(t, domain.ProviderGoogle, id.Provider)
	require.True(t, c.Session().IsAuthenticated())
}

func TestBusNotifications_OrderAndSuppression(t *testing.T) {
	c, pw, _ := newTestCoordinator(t)
	pw.record = &provider.RemoteUserRecord{ID: "u1", Email: "a@b.com"}

	var transitions []domain.Status
	c.Subscribe(func(s domain.Session) { transitions = append(transitions, s.Status) })

	_, err := c.SignInWithPassword(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	require.NoError(t, c.SignOut(context.Background()))

	require.Equal(t, []domain.Status{
		domain.StatusAuthenticating,
		domain.StatusAuthenticated,
		domain.StatusUnauthenticated,
	}, transitions)
}

func TestRefresh_RestoresOnFailure(t *testing.T) {
	c, pw, _ := newTestCoordinator(t)
	pw.record = &provider.RemoteUserRecord{ID: "u1", Email: "a@b.com"}
	_, err := c.SignInWithPassword(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	pw.err = domain.NewProviderError("session revoked", nil)
	_, err = c.Refresh(context.Background())
	require.ErrorIs(t, err, domain.ErrProvider)

	got := c.Session()
	require.Equal(t, domain.StatusAuthenticated, got.Status)
	require.Equal(t, "u1", got.Identity.ID)
}

func TestRefresh_WithoutIdentity(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	_, err := c.Refresh(context.Background())
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestStart_RestoresPersistedIdentity(t *testing.T) {
	mem := cache.NewMemory(time.Hour)
	pw := newFake(domain.ProviderPassword)
	pw.record = &provider.RemoteUserRecord{ID: "u1", Email: "a@b.com"}

	store := session.New(mem, "app", 0)
	c := New(Deps{
		Store:    store,
		Bus:      events.New(),
		Adapters: map[domain.Provider]provider.Adapter{domain.ProviderPassword: pw},
	})
	_, err := c.SignInWithPassword(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	// "Reinicio de proceso": nuevo store y coordinator sobre el mismo cache.
	store2 := session.New(mem, "app", 0)
	c2 := New(Deps{
		Store:    store2,
		Bus:      events.New(),
		Adapters: map[domain.Provider]provider.Adapter{domain.ProviderPassword: pw},
	})
	c2.Start(context.Background())

	got := c2.Session()
	require.True(t, got.IsAuthenticated())
	require.Equal(t, "u1", got.Identity.ID)
}
