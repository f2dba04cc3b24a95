// Package tokens genera material aleatorio opaco y sus hashes de un solo sentido.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// NonceBytes es la entropía mínima para un nonce federado.
const NonceBytes = 32

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateNonce genera un nonce con la entropía mínima requerida.
func GenerateNonce() (string, error) {
	return GenerateOpaqueToken(NonceBytes)
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding.
// Se usa para derivar el challenge federado: el proveedor nunca ve el nonce crudo.
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// ConstantTimeEqual compara dos strings en tiempo constante.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
