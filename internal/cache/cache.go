// Package cache provee el cache opaco donde se persiste la última identidad.
//
// Soporta:
//   - Memory (in-process, para desarrollo/testing)
//   - Redis (para sobrevivir reinicios de proceso)
//
// El manejador de sesión trata este cache como un colaborador externo: guarda
// un blob por app y no interpreta su layout más allá del JSON de la identidad.
package cache

import (
	"fmt"
	"time"
)

// Cache define las operaciones mínimas que necesita el session store.
type Cache interface {
	// Get obtiene un valor. El segundo retorno indica si la key existe.
	Get(key string) ([]byte, bool)

	// Set guarda un valor con TTL. Si ttl es 0, no expira.
	Set(key string, value []byte, ttl time.Duration) error

	// Delete elimina una key. Es idempotente.
	Delete(key string) error
}

// Config configuración para crear un cache.
type Config struct {
	Kind  string // "memory" | "redis"
	Redis struct {
		Addr string
		DB   int
	}
	Memory struct {
		DefaultTTL time.Duration
	}
}

// New crea un cache según la configuración.
func New(cfg Config) (Cache, error) {
	switch cfg.Kind {
	case "redis":
		return newRedis(cfg.Redis.Addr, cfg.Redis.DB), nil
	case "memory", "":
		ttl := cfg.Memory.DefaultTTL
		if ttl == 0 {
			ttl = 24 * time.Hour
		}
		return newMemory(ttl), nil
	default:
		return nil, fmt.Errorf("unknown cache kind: %q", cfg.Kind)
	}
}
