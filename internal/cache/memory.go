package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type mem struct{ c *gocache.Cache }

func newMemory(defaultTTL time.Duration) Cache {
	return &mem{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *mem) Get(k string) ([]byte, bool) {
	v, ok := m.c.Get(k)
	if !ok {
		return nil, false
	}
	b, _ := v.([]byte)
	return b, true
}

func (m *mem) Set(k string, v []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.NoExpiration
	}
	m.c.Set(k, v, ttl)
	return nil
}

func (m *mem) Delete(k string) error {
	m.c.Delete(k)
	return nil
}

// NewMemory expone el backend en memoria para tests y modo dev.
func NewMemory(defaultTTL time.Duration) Cache { return newMemory(defaultTTL) }
