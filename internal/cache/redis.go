package cache

import (
	"context"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

type redisCache struct{ c *rdb.Client }

func newRedis(addr string, db int) Cache {
	return &redisCache{c: rdb.NewClient(&rdb.Options{Addr: addr, DB: db})}
}

func (r *redisCache) Get(k string) ([]byte, bool) {
	b, err := r.c.Get(context.Background(), k).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *redisCache) Set(k string, v []byte, ttl time.Duration) error {
	return r.c.Set(context.Background(), k, v, ttl).Err()
}

func (r *redisCache) Delete(k string) error {
	return r.c.Del(context.Background(), k).Err()
}
