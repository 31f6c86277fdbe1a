package config

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects to the redis instance named by addr, accepting either a
// bare host:port or a redis:// / rediss:// URL.
func NewRedis(ctx context.Context, addr string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
	}

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	return client, nil
}
