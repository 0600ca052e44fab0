package providers

import "github.com/go-redis/redis/v8"

// NewRedisProvider builds the shared Redis client used by the job
// repository, rate limiter, and Redis metrics collector.
func NewRedisProvider(addr string, password string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password})
}
