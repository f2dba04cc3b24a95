package auth

import (
	"context"

	"github.com/dropDatabas3/sessionkit/internal/domain"
	"github.com/dropDatabas3/sessionkit/internal/metrics"
	"github.com/dropDatabas3/sessionkit/internal/observability/logger"
	"github.com/dropDatabas3/sessionkit/internal/provider"
	tokens "github.com/dropDatabas3/sessionkit/internal/security/token"
)

// BeginFederatedSignIn abre un intento federado: genera el nonce, lo guarda
// como el único PendingNonce (pisando cualquier intento anterior) y retorna
// el challenge derivado por hash de un solo sentido. El proveedor nunca ve
// el nonce crudo.
func (c *Coordinator) BeginFederatedSignIn(providerKind domain.Provider) (string, error) {
	log := logger.Named("auth").With(
		logger.Layer("coordinator"),
		logger.Op("BeginFederatedSignIn"),
		logger.Provider(string(providerKind)),
	)

	if !providerKind.Federated() {
		return "", domain.NewInvalidInput("provider does not support federated sign-in: " + string(providerKind))
	}
	if _, err := c.adapter(providerKind); err != nil {
		return "", err
	}

	raw, err := tokens.GenerateNonce()
	if err != nil {
		// rand.Read fallando es irrecuperable; se reporta como estado inválido
		// en vez de entrar a un intento sin entropía.
		return "", domain.NewInvalidState("cannot generate nonce: " + err.Error())
	}
	challenge := tokens.SHA256Base64URL(raw)

	c.mu.Lock()
	if c.pending != nil {
		log.Debug("replacing stale pending nonce",
			logger.Provider(string(c.pending.provider)))
	}
	c.pending = &pendingNonce{provider: providerKind, raw: raw, challenge: challenge}
	c.mu.Unlock()

	log.Debug("federated attempt opened")
	return challenge, nil
}

// CompleteFederatedSignIn cierra el intento federado canjeando el token crudo
// más el challenge en vuelo. Requiere un PendingNonce vivo del mismo
// proveedor; si no hay, retorna InvalidState (ej: llegó tras una cancelación
// o un reinicio de proceso). El nonce se consume incondicionalmente, haya
// éxito o falla, para impedir reuso.
func (c *Coordinator) CompleteFederatedSignIn(ctx context.Context, providerKind domain.Provider, rawToken string) (*domain.Identity, error) {
	log := logger.From(ctx).With(
		logger.Layer("coordinator"),
		logger.Component("auth"),
		logger.Op("CompleteFederatedSignIn"),
		logger.Provider(string(providerKind)),
	)

	adapter, err := c.adapter(providerKind)
	if err != nil {
		return nil, err
	}
	if rawToken == "" {
		metrics.ObserveOp("federated_complete", domain.ErrInvalidInput)
		return nil, domain.NewInvalidInput("empty federated token")
	}

	// Consumir el nonce y marcar la operación bajo el mismo lock: el clear es
	// exactamente una vez por intento.
	c.mu.Lock()
	if c.inFlightGen != 0 {
		c.mu.Unlock()
		metrics.ObserveOp("federated_complete", domain.ErrAlreadyInProgress)
		return nil, domain.NewAlreadyInProgress()
	}
	p := c.pending
	c.pending = nil
	if p == nil || p.provider != providerKind {
		c.mu.Unlock()
		log.Debug("no live nonce for completion")
		metrics.ObserveOp("federated_complete", domain.ErrInvalidState)
		return nil, domain.NewInvalidState("no pending federated sign-in for provider " + string(providerKind))
	}
	c.gen++
	g := c.gen
	c.inFlightGen = g
	prev := c.deps.Store.Get()
	c.apply(domain.Session{Identity: prev.Identity, Status: domain.StatusAuthenticating})
	c.mu.Unlock()

	xctx, cancel := c.exchangeContext(ctx)
	defer cancel()
	rec, xerr := adapter.Exchange(xctx, provider.FederatedCredential{
		RawToken:  rawToken,
		Challenge: p.challenge,
	})
	if xerr != nil {
		log.Debug("federated exchange failed", logger.Err(xerr))
		return c.fail(g, prev, "federated_complete", xerr)
	}

	id := rec.Identity(providerKind)
	log.Info("federated signin successful",
		logger.UserID(id.ID), logger.Provider(string(id.Provider)))
	return c.succeed(g, "federated_complete", id)
}

// CancelFederatedSignIn descarta el intento federado abierto, si lo hay.
func (c *Coordinator) CancelFederatedSignIn() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}

// pendingChallenge expone el challenge vivo para tests.
func (c *Coordinator) pendingChallenge() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return "", false
	}
	return c.pending.challenge, true
}
