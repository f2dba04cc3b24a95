package google

import (
	"testing"

	"github.com/dropDatabas3/sessionkit/internal/domain"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, claims jwtv5.MapClaims) string {
	t.Helper()
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tk.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return signed
}

func TestVerifyNonceClaim_Match(t *testing.T) {
	idToken := mintToken(t, jwtv5.MapClaims{"sub": "u1", "nonce": "challenge-abc"})
	require.NoError(t, verifyNonceClaim(idToken, "challenge-abc"))
}

func TestVerifyNonceClaim_Mismatch(t *testing.T) {
	idToken := mintToken(t, jwtv5.MapClaims{"sub": "u1", "nonce": "other"})
	err := verifyNonceClaim(idToken, "challenge-abc")
	require.ErrorIs(t, err, domain.ErrProvider)
}

func TestVerifyNonceClaim_MissingNonce(t *testing.T) {
	idToken := mintToken(t, jwtv5.MapClaims{"sub": "u1"})
	err := verifyNonceClaim(idToken, "challenge-abc")
	require.ErrorIs(t, err, domain.ErrProvider)
}

func TestVerifyNonceClaim_Garbage(t *testing.T) {
	for _, tok := range []string{"", "not.a.jwt", "xx"} {
		err := verifyNonceClaim(tok, "challenge-abc")
		require.ErrorIs(t, err, domain.ErrProvider, "token %q", tok)
	}
}
