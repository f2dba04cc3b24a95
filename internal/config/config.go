// Package config carga la configuración del manejador de sesión desde YAML
// con overrides por variables de entorno.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"env"`
		// Name separa los blobs persistidos de apps distintas.
		Name string `yaml:"name"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	// Identity apunta al servicio de identidad remoto.
	Identity struct {
		BaseURL string `yaml:"base_url"`
		// Timeout por intercambio remoto.
		Timeout string `yaml:"timeout"`
		// RevokeTimeout para la notificación de signOut.
		RevokeTimeout string `yaml:"revoke_timeout"`
	} `yaml:"identity"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr string `yaml:"addr"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Session struct {
		// PersistTTL acota la vida del blob persistido. "0" = sin expiración.
		PersistTTL string `yaml:"persist_ttl"`
	} `yaml:"session"`

	Devserver struct {
		Addr string `yaml:"addr"`
	} `yaml:"devserver"`
}

// Load lee el YAML en path (opcional: path vacío usa solo defaults + env)
// y aplica overrides de entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "sessionkit"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Identity.BaseURL == "" {
		c.Identity.BaseURL = "http://localhost:8085"
	}
	if c.Identity.Timeout == "" {
		c.Identity.Timeout = "15s"
	}
	if c.Identity.RevokeTimeout == "" {
		c.Identity.RevokeTimeout = "5s"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "24h"
	}
	if c.Session.PersistTTL == "" {
		c.Session.PersistTTL = "0"
	}
	if c.Devserver.Addr == "" {
		c.Devserver.Addr = ":8085"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("APP_NAME"); ok {
		c.App.Name = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("IDENTITY_BASE_URL"); ok {
		c.Identity.BaseURL = v
	}
	if v, ok := getEnvStr("IDENTITY_TIMEOUT"); ok {
		c.Identity.Timeout = v
	}
	if v, ok := getEnvStr("IDENTITY_REVOKE_TIMEOUT"); ok {
		c.Identity.RevokeTimeout = v
	}
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("CACHE_REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("CACHE_REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("SESSION_PERSIST_TTL"); ok {
		c.Session.PersistTTL = v
	}
	if v, ok := getEnvStr("DEVSERVER_ADDR"); ok {
		c.Devserver.Addr = v
	}
}

// Validate chequea los campos que romperían el arranque.
func (c *Config) Validate() error {
	if c.Cache.Kind != "memory" && c.Cache.Kind != "redis" {
		return fmt.Errorf("cache.kind must be memory or redis, got %q", c.Cache.Kind)
	}
	if c.Cache.Kind == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required when cache.kind is redis")
	}
	for _, d := range []struct{ name, val string }{
		{"identity.timeout", c.Identity.Timeout},
		{"identity.revoke_timeout", c.Identity.RevokeTimeout},
		{"cache.memory.default_ttl", c.Cache.Memory.DefaultTTL},
		{"session.persist_ttl", c.Session.PersistTTL},
	} {
		if _, err := parseDur(d.val); err != nil {
			return fmt.Errorf("%s: %v", d.name, err)
		}
	}
	return nil
}

// ExchangeTimeout retorna el timeout de intercambio ya parseado.
func (c *Config) ExchangeTimeout() time.Duration { return mustDur(c.Identity.Timeout) }

// RevokeTimeout retorna el timeout de revocación ya parseado.
func (c *Config) RevokeTimeout() time.Duration { return mustDur(c.Identity.RevokeTimeout) }

// MemoryTTL retorna el TTL default del cache en memoria.
func (c *Config) MemoryTTL() time.Duration { return mustDur(c.Cache.Memory.DefaultTTL) }

// PersistTTL retorna el TTL del blob persistido (0 = sin expiración).
func (c *Config) PersistTTL() time.Duration { return mustDur(c.Session.PersistTTL) }

// parseDur acepta duraciones Go y el literal "0".
func parseDur(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// mustDur asume que Validate ya corrió.
func mustDur(s string) time.Duration {
	d, _ := parseDur(s)
	return d
}

func getEnvStr(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func getEnvInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}
