package domain

// Status es el estado de la sesión.
type Status string

const (
	// StatusUnauthenticated indica que no hay identidad activa.
	StatusUnauthenticated Status = "unauthenticated"
	// StatusAuthenticating indica una operación de autenticación en curso.
	StatusAuthenticating Status = "authenticating"
	// StatusAuthenticated indica una identidad activa.
	StatusAuthenticated Status = "authenticated"
	// StatusError indica que la última operación falló.
	StatusError Status = "error"
)

// Session es el estado de autenticación del proceso. Existe exactamente una
// por proceso, propiedad del coordinator.
//
// Invariante: Status == StatusAuthenticated si y solo si Identity != nil.
type Session struct {
	Identity *Identity `json:"identity,omitempty"`
	Status   Status    `json:"status"`
	// ErrorMessage lleva el mensaje legible cuando Status == StatusError.
	ErrorMessage string `json:"error_message,omitempty"`
}

// Unauthenticated retorna la sesión vacía.
func Unauthenticated() Session {
	return Session{Status: StatusUnauthenticated}
}

// Authenticated construye una sesión autenticada con la identidad dada.
func Authenticated(id Identity) Session {
	return Session{Identity: &id, Status: StatusAuthenticated}
}

// IsAuthenticated retorna true si hay una identidad activa.
func (s Session) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.Identity != nil
}

// Equal compara dos sesiones en profundidad. El bus la usa para suprimir
// notificaciones de transiciones no-op.
func (s Session) Equal(o Session) bool {
	if s.Status != o.Status || s.ErrorMessage != o.ErrorMessage {
		return false
	}
	if (s.Identity == nil) != (o.Identity == nil) {
		return false
	}
	if s.Identity == nil {
		return true
	}
	return s.Identity.Equal(*o.Identity)
}
