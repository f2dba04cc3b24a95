package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - SESIÓN
// =================================================================================

// Provider crea un campo para el proveedor de identidad (password, google, github).
func Provider(v string) zap.Field {
	return zap.String("provider", v)
}

// SessionStatus crea un campo para el estado de la sesión.
func SessionStatus(v string) zap.Field {
	return zap.String("session_status", v)
}

// UserID crea un campo para el ID del usuario.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// Email crea un campo para el email (usar con cuidado en prod).
func Email(v string) zap.Field {
	return zap.String("email", v)
}

// OpID crea un campo para el ID de la operación de autenticación.
func OpID(v string) zap.Field {
	return zap.String("op_id", v)
}

// Generation crea un campo para la generación de la operación.
func Generation(v uint64) zap.Field {
	return zap.Uint64("generation", v)
}

// SubscriberID crea un campo para el ID de un suscriptor del bus.
func SubscriberID(v string) zap.Field {
	return zap.String("subscriber_id", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer crea un campo para la capa (coordinator, adapter, store).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Duration crea un campo para la duración de una llamada remota.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// =================================================================================
// CAMPOS GENÉRICOS
// =================================================================================

// Key crea un campo genérico para una clave.
func Key(v string) zap.Field {
	return zap.String("key", v)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
