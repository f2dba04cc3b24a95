package validation

import (
	"regexp"
	"strings"
)

// Email rules (RFC-5322-lite):
// - local part: one or more of [a-zA-Z0-9._%+-].
// - exactly one "@".
// - domain: labels of [a-zA-Z0-9-] separated by dots, TLD of 2+ letters.
// - No quoted locals, comments, or IP literals; the provider is the final judge.
//
// Examples valid: a@b.co, ann.user+tag@mail.example.org
// Examples invalid: "", bad-email, a@b, @x.com, a b@c.com
var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(?:\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)

// MinPasswordLen es el largo mínimo de password para registro.
const MinPasswordLen = 6

// ValidEmail retorna true si el email cumple el patrón permitido.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// ValidSignUpPassword retorna true si el password cumple la política de registro.
func ValidSignUpPassword(password string) bool {
	return len(password) >= MinPasswordLen
}

// ValidDisplayName retorna true si el nombre no queda en blanco tras trim.
func ValidDisplayName(name string) bool {
	return strings.TrimSpace(name) != ""
}
