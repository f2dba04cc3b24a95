// Package password implementa el intercambio de credenciales email+password
// contra el servicio de identidad remoto. Es el único adapter que soporta
// alta de cuenta y actualización de perfil.
package password

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

// Adapter es el adapter del proveedor password.
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
func (a *Adapter) Kind() domain.Provider { return domain.ProviderPassword }

type passwordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Exchange canjea el par email+password por el record del usuario.
func (a *Adapter) Exchange(ctx context.Context, cred provider.Credential) (*provider.RemoteUserRecord, error) {
	pc, ok := cred.(provider.PasswordCredential)
	if !ok {
		return nil, domain.NewInvalidState(fmt.Sprintf("password adapter got %T credential", cred))
	}
	var rec provider.RemoteUserRecord
	err := provider.DoJSON(ctx, a.http, http.MethodPost, a.BaseURL+"/v1/password/signin",
		passwordRequest{Email: pc.Email, Password: pc.Password}, &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SignUp crea la cuenta. El display name no viaja acá: los proveedores pueden
// no aceptarlo en el alta, va en un UpdateDisplayName posterior.
func (a *Adapter) SignUp(ctx context.Context, cred provider.PasswordCredential) (*provider.RemoteUserRecord, error) {
	var rec provider.RemoteUserRecord
	err := provider.DoJSON(ctx, a.http, http.MethodPost, a.BaseURL+"/v1/password/signup",
		passwordRequest{Email: cred.Email, Password: cred.Password}, &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
}

// UpdateDisplayName actualiza el nombre para mostrar del usuario.
func (a *Adapter) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	url := fmt.Sprintf("%s/v1/users/%s/profile", a.BaseURL, userID)
	return provider.DoJSON(ctx, a.http, http.MethodPatch, url, profileRequest{DisplayName: displayName}, nil)
}

// Fetch relee el record del usuario.
func (a *Adapter) Fetch(ctx context.Context, userID string) (*provider.RemoteUserRecord, error) {
	var rec provider.RemoteUserRecord
	url := fmt.Sprintf("%s/v1/users/%s", a.BaseURL, userID)
	if err := provider.DoJSON(ctx, a.http, http.MethodGet, url, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

type revokeRequest struct {
	UserID string `json:"user_id"`
}

// Revoke invalida la sesión remota del usuario.
func (a *Adapter) Revoke(ctx context.Context, userID string) error {
	return provider.DoJSON(ctx, a.http, http.MethodPost, a.BaseURL+"/v1/revoke", revokeRequest{UserID: userID}, nil)
}
