// Package github implementa el adapter federado estilo OAuth 2.0. A diferencia
// de google no hay ID token: el binding del nonce lo hace el servicio de
// identidad comparando el challenge enviado con el registrado en el intento.
package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/sessionkit/internal/domain"
	"github.com/dropDatabas3/sessionkit/internal/provider"
)

const defaultTimeout = 10 * time.Second

// Adapter es el adapter del proveedor github.
type Adapter struct {
	BaseURL string

	http *http.Client
}

// New crea el adapter apuntando al servicio de identidad en baseURL.
func New(baseURL string, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Adapter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Kind retorna el proveedor que atiende este adapter.
func (a *Adapter) Kind() domain.Provider { return domain.ProviderGitHub }

type tokenRequest struct {
	Token     string `json:"token"`
	Challenge string `json:"challenge"`
}

// Exchange canjea el access token federado por el record del usuario.
func (a *Adapter) Exchange(ctx context.Context, cred provider.Credential) (*provider.RemoteUserRecord, error) {
	fc, ok := cred.(provider.FederatedCredential)
	if !ok {
		return nil, domain.NewInvalidState(fmt.Sprintf("github adapter got %T credential", cred))
	}
	var rec provider.RemoteUserRecord
	err := provider.DoJSON(ctx, a.http, http.MethodPost, a.BaseURL+"/v1/oauth/github/token",
		tokenRequest{Token: fc.RawToken, Challenge: fc.Challenge}, &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
