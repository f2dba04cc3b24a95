// Package domain define los tipos compartidos del manejador de sesión:
// identidad, sesión, proveedor y errores de autenticación.
package domain

// Provider identifica el proveedor de identidad que emitió una identidad.
type Provider string

const (
	// ProviderPassword es el proveedor de email + password.
	ProviderPassword Provider = "password"
	// ProviderGoogle es el proveedor federado estilo OIDC.
	ProviderGoogle Provider = "google"
	// ProviderGitHub es el proveedor federado estilo OAuth 2.0.
	ProviderGitHub Provider = "github"
)

// IsValid retorna true si el proveedor es conocido.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderPassword, ProviderGoogle, ProviderGitHub:
		return true
	}
	return false
}

// Federated retorna true para proveedores que requieren el flujo de nonce.
func (p Provider) Federated() bool {
	return p == ProviderGoogle || p == ProviderGitHub
}

// Identity es la identidad normalizada emitida por el proveedor remoto.
// Es inmutable: un refresh la reemplaza entera, nunca campo a campo.
type Identity struct {
	// ID es el identificador opaco emitido por el proveedor. Único.
	ID string `json:"id"`
	// Email del usuario. Puede estar vacío (ej: GitHub con email privado).
	Email string `json:"email,omitempty"`
	// DisplayName es el nombre para mostrar. Opcional.
	DisplayName string `json:"display_name,omitempty"`
	// AvatarURL apunta a la imagen de perfil. Opcional.
	AvatarURL string `json:"avatar_url,omitempty"`
	// Provider es el proveedor canónico de esta identidad.
	Provider Provider `json:"provider"`
}

// Equal compara dos identidades campo a campo.
func (i Identity) Equal(o Identity) bool {
	return i == o
}
