package embedding

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// WrapLRU adds an in-process expirable LRU cache in front of c.
// A non-positive size or ttl disables caching and returns c unchanged.
func WrapLRU(c Client, size int, ttl time.Duration) Client {
	if c == nil || size <= 0 || ttl <= 0 {
		return c
	}
	return wrap(c, &lruBackend{cache: expirable.NewLRU[string, []float32](size, nil, ttl)})
}

type lruBackend struct {
	cache *expirable.LRU[string, []float32]
}

func (l *lruBackend) name() string { return "lru" }

func (l *lruBackend) get(_ context.Context, key string) ([]float32, bool) {
	return l.cache.Get(key)
}

func (l *lruBackend) set(_ context.Context, key string, vector []float32) {
	l.cache.Add(key, vector)
}
