package domain

import (
	"errors"
	"fmt"
)

// ErrorKind clasifica los errores de autenticación.
type ErrorKind string

const (
	// KindInvalidInput indica una falla de validación local. No hubo llamada de red.
	KindInvalidInput ErrorKind = "invalid_input"
	// KindInvalidState indica una operación sin sus precondiciones (ej: nonce ausente).
	KindInvalidState ErrorKind = "invalid_state"
	// KindAlreadyInProgress indica que otra operación está en vuelo.
	KindAlreadyInProgress ErrorKind = "already_in_progress"
	// KindNetworkError indica timeout o falla de transporte.
	KindNetworkError ErrorKind = "network_error"
	// KindProviderError indica que el servicio remoto rechazó la petición.
	KindProviderError ErrorKind = "provider_error"
)

// AuthError es el error tipado de todas las operaciones del coordinator.
// Message es apto para mostrar al usuario; para KindProviderError se pasa
// el texto del proveedor sin modificar.
type AuthError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

// Unwrap expone la causa para errors.Is/As.
func (e *AuthError) Unwrap() error { return e.cause }

// Is permite comparar contra los centinelas por kind.
func (e *AuthError) Is(target error) bool {
	var ae *AuthError
	if errors.As(target, &ae) {
		return ae.Kind == e.Kind && (ae.Message == "" || ae.Message == e.Message)
	}
	return false
}

// Centinelas por kind, para errors.Is sin importar el mensaje.
var (
	ErrInvalidInput      = &AuthError{Kind: KindInvalidInput}
	ErrInvalidState      = &AuthError{Kind: KindInvalidState}
	ErrAlreadyInProgress = &AuthError{Kind: KindAlreadyInProgress}
	ErrNetwork           = &AuthError{Kind: KindNetworkError}
	ErrProvider          = &AuthError{Kind: KindProviderError}
)

// NewInvalidInput construye un error de validación local.
func NewInvalidInput(msg string) *AuthError {
	return &AuthError{Kind: KindInvalidInput, Message: msg}
}

// NewInvalidState construye un error de precondición.
func NewInvalidState(msg string) *AuthError {
	return &AuthError{Kind: KindInvalidState, Message: msg}
}

// NewAlreadyInProgress construye el error de operación concurrente rechazada.
func NewAlreadyInProgress() *AuthError {
	return &AuthError{Kind: KindAlreadyInProgress, Message: "another auth operation is in flight"}
}

// NewNetworkError envuelve una falla de transporte o timeout.
func NewNetworkError(cause error) *AuthError {
	msg := "network error"
	if cause != nil {
		msg = cause.Error()
	}
	return &AuthError{Kind: KindNetworkError, Message: msg, cause: cause}
}

// NewProviderError envuelve un rechazo del proveedor remoto.
// El mensaje se pasa tal cual para mostrar al usuario.
func NewProviderError(msg string, cause error) *AuthError {
	return &AuthError{Kind: KindProviderError, Message: msg, cause: cause}
}

// KindOf retorna el kind de un AuthError, o "" si no lo es.
func KindOf(err error) ErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
