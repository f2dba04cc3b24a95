package auth

import (
	"context"

	"github.com/dropDatabas3/sessionkit/internal/domain"
	"github.com/dropDatabas3/sessionkit/internal/metrics"
	"github.com/dropDatabas3/sessionkit/internal/observability/logger"
	"github.com/dropDatabas3/sessionkit/internal/provider"
)

// SignOut invalida la sesión local de inmediato y siempre con éxito: la
// notificación al proveedor remoto es best-effort y su falla solo se loguea.
// Desde la perspectiva del usuario, signOut nunca deja la sesión con aspecto
// autenticado aunque la red esté caída.
//
// Además invalida por generación cualquier operación en vuelo y descarta el
// nonce federado abierto.
func (c *Coordinator) SignOut(ctx context.Context) error {
	log := logger.From(ctx).With(
		logger.Layer("coordinator"),
		logger.Component("auth"),
		logger.Op("SignOut"),
	)

	c.mu.Lock()
	// Las completions en vuelo quedan obsoletas: su generación ya no es la vigente.
	c.gen++
	c.pending = nil
	prev := c.deps.Store.Get()
	c.apply(domain.Unauthenticated())
	c.mu.Unlock()

	metrics.ObserveOp("signout", nil)

	if prev.Identity == nil {
		log.Debug("signout with no active identity")
		return nil
	}
	log.Info("session invalidated locally", logger.UserID(prev.Identity.ID))

	// Revocación remota best-effort, con timeout propio y sin heredar la
	// cancelación del caller.
	adapter, err := c.adapter(prev.Identity.Provider)
	if err != nil {
		adapter, err = c.adapter(domain.ProviderPassword)
		if err != nil {
			return nil
		}
	}
	rv, ok := adapter.(provider.Revoker)
	if !ok {
		if a, aerr := c.adapter(domain.ProviderPassword); aerr == nil {
			rv, ok = a.(provider.Revoker)
		}
	}
	if !ok || rv == nil {
		log.Debug("no revoker available, skipping remote sign-out")
		return nil
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.deps.RevokeTimeout)
	defer cancel()
	if rerr := rv.Revoke(rctx, prev.Identity.ID); rerr != nil {
		log.Warn("remote sign-out failed, local session already cleared",
			logger.Err(rerr), logger.UserID(prev.Identity.ID))
	}
	return nil
}
