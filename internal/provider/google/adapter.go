// Package google implementa el adapter federado estilo OIDC. El servicio de
// identidad valida el token contra Google y devuelve el record junto con un
// ID token; el adapter verifica que el claim nonce del ID token coincida con
// el challenge del intento en vuelo antes de aceptar el record.
package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/sessionkit/internal/domain"
	"github.com/dropDatabas3/sessionkit/internal/provider"
	tokens "github.com/dropDatabas3/sessionkit/internal/security/token"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const defaultTimeout = 10 * time.Second

// Adapter es el adapter del proveedor google.
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
func (a *Adapter) Kind() domain.Provider { return domain.ProviderGoogle }

type tokenRequest struct {
	Token     string `json:"token"`
	Challenge string `json:"challenge"`
}

type tokenResponse struct {
	provider.RemoteUserRecord
	IDToken string `json:"id_token"`
}

// Exchange canjea el token federado por el record del usuario.
// La firma del ID token la valida el servicio de identidad; acá solo se
// verifica el binding del nonce, que el servicio no puede fabricar porque
// nunca ve el nonce crudo.
func (a *Adapter) Exchange(ctx context.Context, cred provider.Credential) (*provider.RemoteUserRecord, error) {
	fc, ok := cred.(provider.FederatedCredential)
	if !ok {
		return nil, domain.NewInvalidState(fmt.Sprintf("google adapter got %T credential", cred))
	}

	var tr tokenResponse
	err := provider.DoJSON(ctx, a.http, http.MethodPost, a.BaseURL+"/v1/oauth/google/token",
		tokenRequest{Token: fc.RawToken, Challenge: fc.Challenge}, &tr)
	if err != nil {
		return nil, err
	}

	if err := verifyNonceClaim(tr.IDToken, fc.Challenge); err != nil {
		return nil, err
	}
	return &tr.RemoteUserRecord, nil
}

// verifyNonceClaim extrae el claim nonce del ID token y lo compara contra el
// challenge esperado en tiempo constante.
func verifyNonceClaim(idToken, expected string) error {
	if idToken == "" {
		return domain.NewProviderError("identity service returned no id_token", nil)
	}
	claims := jwtv5.MapClaims{}
	parser := jwtv5.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return domain.NewProviderError("malformed id_token", err)
	}
	got, _ := claims["nonce"].(string)
	if got == "" || !tokens.ConstantTimeEqual(got, expected) {
		return domain.NewProviderError("id_token nonce mismatch", nil)
	}
	return nil
}
