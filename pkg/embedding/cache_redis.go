package embedding

import (
	"context"
	"encoding/json"
	"time"

	"podcast-rag-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

// WrapRedis adds a Redis-backed cache shared across processes. Redis errors
// degrade to cache misses so an unavailable Redis never fails an embedding call.
func WrapRedis(c Client, rdb *redis.Client, ttl time.Duration) Client {
	if c == nil || rdb == nil {
		return c
	}
	return wrap(c, &redisBackend{rdb: rdb, ttl: ttl})
}

type redisBackend struct {
	rdb *redis.Client
	ttl time.Duration
}

func (r *redisBackend) name() string { return "redis" }

func (r *redisBackend) get(ctx context.Context, key string) ([]float32, bool) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Warnf("[EmbeddingCache] 读取 Redis 缓存失败, key: %s, error: %v", key, err)
		return nil, false
	}
	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil || len(vector) == 0 {
		return nil, false
	}
	return vector, true
}

func (r *redisBackend) set(ctx context.Context, key string, vector []float32) {
	data, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, key, data, r.ttl).Err(); err != nil {
		log.Warnf("[EmbeddingCache] 写入 Redis 缓存失败, key: %s, error: %v", key, err)
	}
}
