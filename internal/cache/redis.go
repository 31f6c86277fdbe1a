package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Redis backs AudioCache with a shared redis instance so multiple processes
// reuse each other's synthesized audio. Capacity is redis's concern; TTL is
// set per key.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
	log *logrus.Logger
}

func NewRedis(rdb *redis.Client, ttl time.Duration, log *logrus.Logger) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, log: log}
}

func (c *Redis) key(text string) string { return "tts:" + Fingerprint(text) }

func (c *Redis) Lookup(ctx context.Context, text string) ([]byte, bool) {
	b, err := c.rdb.Get(ctx, c.key(text)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.WithError(err).Debug("redis lookup failed, treating as miss")
		return nil, false
	}
	return b, true
}

func (c *Redis) Store(ctx context.Context, text string, audio []byte) {
	if err := c.rdb.Set(ctx, c.key(text), audio, c.ttl).Err(); err != nil {
		c.log.WithError(err).Debug("redis store failed, dropping entry")
	}
}
