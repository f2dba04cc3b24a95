package auth

import (
	"context"
	"strings"

	"github.com/dropDatabas3/sessionkit/internal/domain"
	"github.com/dropDatabas3/sessionkit/internal/metrics"
	"github.com/dropDatabas3/sessionkit/internal/observability/logger"
	"github.com/dropDatabas3/sessionkit/internal/provider"
	"github.com/dropDatabas3/sessionkit/internal/validation"
)

// SignInWithPassword canjea email + password por una identidad.
// Las fallas de formato se resuelven localmente sin tocar la red ni la sesión.
func (c *Coordinator) SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, error) {
	log := logger.From(ctx).With(
		logger.Layer("coordinator"),
		logger.Component("auth"),
		logger.Op("SignInWithPassword"),
	)

	// Paso 0: Normalización
	email = strings.TrimSpace(strings.ToLower(email))

	// Paso 1: Validación local, sin llamada de red
	if !validation.ValidEmail(email) {
		metrics.ObserveOp("signin_password", domain.ErrInvalidInput)
		return nil, domain.NewInvalidInput("malformed email")
	}
	if password == "" {
		metrics.ObserveOp("signin_password", domain.ErrInvalidInput)
		return nil, domain.NewInvalidInput("empty password")
	}

	adapter, err := c.adapter(domain.ProviderPassword)
	if err != nil {
		return nil, err
	}

	// Paso 2: Marcar operación en vuelo
	g, prev, err := c.begin("signin_password")
	if err != nil {
		metrics.ObserveOp("signin_password", err)
		return nil, err
	}

	// Paso 3: Intercambio remoto
	xctx, cancel := c.exchangeContext(ctx)
	defer cancel()
	rec, xerr := adapter.Exchange(xctx, provider.PasswordCredential{Email: email, Password: password})
	if xerr != nil {
		log.Debug("password exchange failed", logger.Err(xerr), logger.Email(email))
		return c.fail(g, prev, "signin_password", xerr)
	}

	id := rec.Identity(domain.ProviderPassword)
	log.Info("signin successful", logger.UserID(id.ID), logger.Provider(string(id.Provider)))
	return c.succeed(g, "signin_password", id)
}

// SignUpWithPassword crea la cuenta y deja la sesión autenticada.
//
// El alta es en dos pasos obligatorios: crear la cuenta y luego actualizar el
// perfil con el display name, porque el proveedor puede no aceptarlo en la
// creación. Después se relee la identidad para que el nombre quede reflejado.
func (c *Coordinator) SignUpWithPassword(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	log := logger.From(ctx).With(
		logger.Layer("coordinator"),
		logger.Component("auth"),
		logger.Op("SignUpWithPassword"),
	)

	// Paso 0: Normalización
	email = strings.TrimSpace(strings.ToLower(email))
	displayName = strings.TrimSpace(displayName)

	// Paso 1: Validación local
	if !validation.ValidEmail(email) {
		metrics.ObserveOp("signup_password", domain.ErrInvalidInput)
		return nil, domain.NewInvalidInput("malformed email")
	}
	if !validation.ValidSignUpPassword(password) {
		metrics.ObserveOp("signup_password", domain.ErrInvalidInput)
		return nil, domain.NewInvalidInput("password must be at least 6 characters")
	}
	if !validation.ValidDisplayName(displayName) {
		metrics.ObserveOp("signup_password", domain.ErrInvalidInput)
		return nil, domain.NewInvalidInput("display name must not be blank")
	}

	mgr, err := c.accountManager()
	if err != nil {
		return nil, err
	}

	g, prev, err := c.begin("signup_password")
	if err != nil {
		metrics.ObserveOp("signup_password", err)
		return nil, err
	}

	xctx, cancel := c.exchangeContext(ctx)
	defer cancel()

	// Paso 2: Crear la cuenta
	rec, xerr := mgr.SignUp(xctx, provider.PasswordCredential{Email: email, Password: password})
	if xerr != nil {
		log.Debug("signup failed", logger.Err(xerr), logger.Email(email))
		return c.fail(g, prev, "signup_password", xerr)
	}

	// Paso 3: Actualizar perfil con el display name
	if xerr := mgr.UpdateDisplayName(xctx, rec.ID, displayName); xerr != nil {
		log.Warn("profile update failed after signup", logger.Err(xerr), logger.UserID(rec.ID))
		return c.fail(g, prev, "signup_password", xerr)
	}

	// Paso 4: Releer la identidad para reflejar el perfil actualizado
	rec, xerr = mgr.Fetch(xctx, rec.ID)
	if xerr != nil {
		log.Warn("identity re-fetch failed after signup", logger.Err(xerr))
		return c.fail(g, prev, "signup_password", xerr)
	}

	id := rec.Identity(domain.ProviderPassword)
	log.Info("signup successful", logger.UserID(id.ID), logger.Email(id.Email))
	return c.succeed(g, "signup_password", id)
}
