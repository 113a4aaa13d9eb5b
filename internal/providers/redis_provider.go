package providers

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

func NewRedisProvider(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

// PingRedis reports whether the optional Redis is reachable within two seconds.
func PingRedis(ctx context.Context, rdb *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return rdb.Ping(ctx).Err()
}
