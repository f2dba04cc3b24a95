// Package auth implementa el coordinator de autenticación: orquesta los
// intercambios contra los adapters, hace cumplir las reglas de validación,
// maneja el estado de la sesión y publica los cambios en el bus.
//
// # Design Decisions
//
//   - Dueño único: toda mutación de Session y PendingNonce pasa por el mutex
//     del coordinator; no hay otra sincronización.
//   - Serialización: una sola operación en vuelo. Arrancar otra mientras hay
//     una retorna AlreadyInProgress en vez de correr en silencio.
//   - Generaciones: cada operación captura una generación monotónica; una
//     completion cuyo número ya no es el vigente se descarta (ej: llegó
//     después de un signOut).
//   - Los listeners reciben estados, nunca excepciones, y no deben invocar
//     operaciones del coordinator de forma síncrona.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/sessionkit/internal/domain"
	"github.com/dropDatabas3/sessionkit/internal/events"
	"github.com/dropDatabas3/sessionkit/internal/metrics"
	"github.com/dropDatabas3/sessionkit/internal/observability/logger"
	"github.com/dropDatabas3/sessionkit/internal/provider"
	"github.com/dropDatabas3/sessionkit/internal/session"
)

const (
	defaultExchangeTimeout = 15 * time.Second
	defaultRevokeTimeout   = 5 * time.Second
)

// Deps contiene las dependencias del coordinator.
type Deps struct {
	Store    *session.Store
	Bus      *events.Bus
	Adapters map[domain.Provider]provider.Adapter

	// ExchangeTimeout acota cada intercambio remoto. Default: 15s.
	ExchangeTimeout time.Duration
	// RevokeTimeout acota la notificación remota de signOut. Default: 5s.
	RevokeTimeout time.Duration
}

// Coordinator es el dueño de la sesión del proceso.
type Coordinator struct {
	deps Deps

	mu sync.Mutex
	// gen es la generación vigente; crece en cada operación y en signOut.
	gen uint64
	// inFlightGen es la generación de la operación en vuelo, 0 si no hay.
	inFlightGen uint64
	// pending es el único nonce federado vivo, nil si no hay intento abierto.
	pending *pendingNonce
}

type pendingNonce struct {
	provider  domain.Provider
	raw       string
	challenge string
}

// New crea el coordinator.
func New(deps Deps) *Coordinator {
	if deps.ExchangeTimeout <= 0 {
		deps.ExchangeTimeout = defaultExchangeTimeout
	}
	if deps.RevokeTimeout <= 0 {
		deps.RevokeTimeout = defaultRevokeTimeout
	}
	return &Coordinator{deps: deps}
}

// Session retorna la sesión actual.
func (c *Coordinator) Session() domain.Session {
	return c.deps.Store.Get()
}

// Subscribe registra un listener de cambios de sesión.
func (c *Coordinator) Subscribe(fn events.Listener) *events.Subscription {
	return c.deps.Bus.Subscribe(fn)
}

// Start restaura la última identidad persistida y la publica de forma
// optimista como autenticada. La frescura se confirma después con Refresh.
func (c *Coordinator) Start(ctx context.Context) {
	log := logger.From(ctx).With(
		logger.Layer("coordinator"),
		logger.Component("auth"),
		logger.Op("Start"),
	)

	id, ok := c.deps.Store.Restore()
	if !ok {
		log.Debug("no persisted identity, starting unauthenticated")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(domain.Authenticated(*id))
	log.Info("restored persisted session",
		logger.UserID(id.ID),
		logger.Provider(string(id.Provider)),
	)
}

// Refresh relee la identidad actual contra el servicio remoto y reemplaza la
// sesión entera con el resultado. Con una falla remota, la identidad previa
// queda restaurada y el mensaje de error a bordo.
func (c *Coordinator) Refresh(ctx context.Context) (*domain.Identity, error) {
	log := logger.From(ctx).With(
		logger.Layer("coordinator"),
		logger.Component("auth"),
		logger.Op("Refresh"),
	)

	cur := c.deps.Store.Get()
	if cur.Identity == nil {
		return nil, domain.NewInvalidState("no active identity to refresh")
	}
	mgr, err := c.accountManager()
	if err != nil {
		return nil, err
	}

	g, prev, err := c.begin("refresh")
	if err != nil {
		metrics.ObserveOp("refresh", err)
		return nil, err
	}

	xctx, cancel := c.exchangeContext(ctx)
	defer cancel()
	rec, xerr := mgr.Fetch(xctx, cur.Identity.ID)
	if xerr != nil {
		log.Warn("refresh failed", logger.Err(xerr))
		return c.fail(g, prev, "refresh", xerr)
	}
	id := rec.Identity(cur.Identity.Provider)
	return c.succeed(g, "refresh", id)
}

// ─── Ciclo de vida de una operación ───

// begin marca una operación en vuelo y transiciona la sesión a
// authenticating conservando la identidad previa. Retorna la generación
// capturada y la sesión previa.
func (c *Coordinator) begin(op string) (uint64, domain.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlightGen != 0 {
		return 0, domain.Session{}, domain.NewAlreadyInProgress()
	}
	c.gen++
	c.inFlightGen = c.gen
	logger.Named("auth").Debug("operation started",
		logger.Op(op), logger.Generation(c.gen))

	prev := c.deps.Store.Get()
	c.apply(domain.Session{Identity: prev.Identity, Status: domain.StatusAuthenticating})
	return c.gen, prev, nil
}

// succeed aplica el resultado exitoso si la generación sigue vigente.
func (c *Coordinator) succeed(g uint64, op string, id domain.Identity) (*domain.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlightGen == g {
		c.inFlightGen = 0
	}
	if g != c.gen {
		metrics.StaleCompletions.Inc()
		logger.Named("auth").Debug("dropping stale completion",
			logger.Op(op), logger.Generation(g))
		metrics.ObserveOp(op, domain.ErrInvalidState)
		return nil, domain.NewInvalidState("operation superseded")
	}

	c.apply(domain.Authenticated(id))
	metrics.ObserveOp(op, nil)
	return &id, nil
}

// fail aplica la falla si la generación sigue vigente: restaura la identidad
// previa (si la había) y deja el mensaje legible en la sesión.
func (c *Coordinator) fail(g uint64, prev domain.Session, op string, cause error) (*domain.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlightGen == g {
		c.inFlightGen = 0
	}
	metrics.ObserveOp(op, cause)
	if g != c.gen {
		metrics.StaleCompletions.Inc()
		logger.Named("auth").Debug("dropping stale failure",
			logger.Op(op), logger.Generation(g), logger.Err(cause))
		return nil, cause
	}

	next := domain.Session{ErrorMessage: cause.Error()}
	if prev.Identity != nil {
		// Falla de re-auth: la sesión previa sigue viva.
		next.Identity = prev.Identity
		next.Status = domain.StatusAuthenticated
	} else {
		next.Status = domain.StatusError
	}
	c.apply(next)
	return nil, cause
}

// apply reemplaza la sesión y la publica. Se llama con c.mu tomado.
func (c *Coordinator) apply(next domain.Session) {
	c.deps.Store.Replace(next)
	if next.IsAuthenticated() {
		metrics.SessionAuthenticated.Set(1)
	} else {
		metrics.SessionAuthenticated.Set(0)
	}
	c.deps.Bus.Publish(next)
}

// exchangeContext acota la llamada remota sin heredar la cancelación del
// caller: un view que se cierra no aborta el intercambio, su resultado se
// descarta por generación si ya no es relevante.
func (c *Coordinator) exchangeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.deps.ExchangeTimeout)
}

func (c *Coordinator) adapter(p domain.Provider) (provider.Adapter, error) {
	a, ok := c.deps.Adapters[p]
	if !ok {
		return nil, domain.NewInvalidInput("unknown provider: " + string(p))
	}
	return a, nil
}

// accountManager retorna el adapter que soporta alta y perfil (password).
func (c *Coordinator) accountManager() (provider.AccountManager, error) {
	a, err := c.adapter(domain.ProviderPassword)
	if err != nil {
		return nil, err
	}
	mgr, ok := a.(provider.AccountManager)
	if !ok {
		return nil, domain.NewInvalidState("password adapter does not manage accounts")
	}
	return mgr, nil
}
