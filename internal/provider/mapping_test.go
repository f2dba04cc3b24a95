package provider

import (
	"testing"

	"github.com/dropDatabas3/sessionkit/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestIdentity_FirstDeclaredProviderWins(t *testing.T) {
	rec := RemoteUserRecord{
		ID:        "u1",
		Email:     "a@b.com",
		Providers: []string{"password", "google"},
	}
	// Aunque el intercambio lo hizo google, el record declara password primero.
	id := rec.Identity(domain.ProviderGoogle)
	require.Equal(t, domain.ProviderPassword, id.Provider)
}

func TestIdentity_FallsBackToExchangingAdapter(t *testing.T) {
	rec := RemoteUserRecord{ID: "u1"}
	id := rec.Identity(domain.ProviderGitHub)
	require.Equal(t, domain.ProviderGitHub, id.Provider)
}

func TestIdentity_UnknownDeclaredProviderIgnored(t *testing.T) {
	rec := RemoteUserRecord{ID: "u1", Providers: []string{"saml", "google"}}
	// Un proveedor desconocido al frente no puede ser el canónico.
	id := rec.Identity(domain.ProviderGoogle)
	require.Equal(t, domain.ProviderGoogle, id.Provider)
}

func TestIdentity_CopiesProfileFields(t *testing.T) {
	rec := RemoteUserRecord{
		ID:          "u1",
		Email:       "a@b.com",
		DisplayName: "Ann",
		AvatarURL:   "https://cdn.example.com/a.png",
		Providers:   []string{"password"},
	}
	id := rec.Identity(domain.ProviderPassword)
	require.Equal(t, domain.Identity{
		ID:          "u1",
		Email:       "a@b.com",
		DisplayName: "Ann",
		AvatarURL:   "https://cdn.example.com/a.png",
		Provider:    domain.ProviderPassword,
	}, id)
}
