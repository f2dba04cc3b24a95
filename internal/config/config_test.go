package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "dev", c.App.Env)
	require.Equal(t, "memory", c.Cache.Kind)
	require.Equal(t, 15*time.Second, c.ExchangeTimeout())
	require.Equal(t, time.Duration(0), c.PersistTTL())
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: prod
  name: demoapp
identity:
  base_url: https://id.example.com
  timeout: 3s
`), 0o600))

	t.Setenv("IDENTITY_TIMEOUT", "7s")
	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "prod", c.App.Env)
	require.Equal(t, "demoapp", c.App.Name)
	require.Equal(t, "https://id.example.com", c.Identity.BaseURL)
	// El entorno pisa al YAML.
	require.Equal(t, 7*time.Second, c.ExchangeTimeout())
}

func TestLoad_InvalidCacheKind(t *testing.T) {
	t.Setenv("CACHE_KIND", "bolt")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_RedisRequiresAddr(t *testing.T) {
	t.Setenv("CACHE_KIND", "redis")
	_, err := Load("")
	require.Error(t, err)

	t.Setenv("CACHE_REDIS_ADDR", "localhost:6379")
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "redis", c.Cache.Kind)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("IDENTITY_TIMEOUT", "soon")
	_, err := Load("")
	require.Error(t, err)
}
