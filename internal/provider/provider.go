// Package provider define el contrato de los adapters de proveedor de
// identidad y el record remoto normalizado que todos producen.
package provider

import (
	"context"

	"github.com/dropDatabas3/sessionkit/internal/domain"
)

// Credential es la prueba transitoria específica del proveedor.
// Nunca se persiste; se descarta tras el intercambio.
type Credential interface{ credential() }

// PasswordCredential es el par email + password.
type PasswordCredential struct {
	Email    string
	Password string
}

func (PasswordCredential) credential() {}

// FederatedCredential es el token federado opaco más el challenge derivado
// del nonce en vuelo.
type FederatedCredential struct {
	RawToken  string
	Challenge string
}

func (FederatedCredential) credential() {}

// RemoteUserRecord es el record de usuario tal como lo reporta el servicio
// de identidad, ya normalizado de su forma por-proveedor.
type RemoteUserRecord struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	// Providers lista los proveedores vinculados en el orden en que el
	// servicio remoto los declara.
	Providers []string `json:"providers,omitempty"`
}

// Identity mapea el record al shape normalizado. Si el record declara varios
// proveedores vinculados, el primero declarado es el canónico; si no declara
// ninguno, se atribuye al adapter que hizo el intercambio.
func (r *RemoteUserRecord) Identity(exchangedBy domain.Provider) domain.Identity {
	p := exchangedBy
	if len(r.Providers) > 0 {
		if declared := domain.Provider(r.Providers[0]); declared.IsValid() {
			p = declared
		}
	}
	return domain.Identity{
		ID:          r.ID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		AvatarURL:   r.AvatarURL,
		Provider:    p,
	}
}

// Adapter traduce material de credencial en un RemoteUserRecord.
// Los errores retornados son siempre *domain.AuthError: NetworkError para
// timeouts/transporte, ProviderError cuando el servicio rechaza.
type Adapter interface {
	Kind() domain.Provider
	Exchange(ctx context.Context, cred Credential) (*RemoteUserRecord, error)
}

// AccountManager lo implementan los adapters que soportan alta de cuenta y
// actualización de perfil (hoy solo password).
type AccountManager interface {
	Adapter
	SignUp(ctx context.Context, cred PasswordCredential) (*RemoteUserRecord, error)
	UpdateDisplayName(ctx context.Context, userID, displayName string) error
	Fetch(ctx context.Context, userID string) (*RemoteUserRecord, error)
}

// Revoker lo implementan los adapters que pueden invalidar la sesión remota.
type Revoker interface {
	Revoke(ctx context.Context, userID string) error
}
