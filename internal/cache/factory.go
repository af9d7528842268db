package cache

import "fmt"

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// New creates a cache for the given backend. capacity applies to memory, redisURL to redis.
func New(backend string, capacity int, redisURL string) (Cache, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryCache(capacity), nil
	case BackendRedis:
		if redisURL == "" {
			return nil, fmt.Errorf("redis cache requires a redis url")
		}
		return NewRedisCache(redisURL)
	case BackendNone:
		return NopCache{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s (supported: memory, redis, none)", backend)
	}
}
