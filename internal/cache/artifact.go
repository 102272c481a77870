package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyArtifact = "invoicedesk:artifact:"

// ArtifactCache holds rendered documents. Misses are not errors.
type ArtifactCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
}

type ArtifactParams struct {
	fx.In

	Config config.Config
	Redis  *redis.Client `optional:"true"`
	Log    *zap.Logger
}

func NewArtifactCache(p ArtifactParams) ArtifactCache {
	if p.Redis != nil {
		return NewRedisArtifactCache(p.Redis, p.Config.ArtifactCacheTTL)
	}
	return NewMemoryArtifactCache(p.Config.ArtifactCacheTTL)
}

type redisArtifactCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisArtifactCache(client *redis.Client, ttl time.Duration) ArtifactCache {
	return &redisArtifactCache{client: client, ttl: ttl}
}

func (c *redisArtifactCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := c.client.Get(ctx, keyArtifact+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (c *redisArtifactCache) Set(ctx context.Context, key string, body []byte) error {
	return c.client.Set(ctx, keyArtifact+key, body, c.ttl).Err()
}

type memoryArtifactCache struct {
	entries Cache[string, []byte]
	ttl     time.Duration
}

func NewMemoryArtifactCache(ttl time.Duration) ArtifactCache {
	return &memoryArtifactCache{entries: NewTTLCache[string, []byte](), ttl: ttl}
}

func (c *memoryArtifactCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	body, ok := c.entries.Get(key)
	return body, ok, nil
}

func (c *memoryArtifactCache) Set(_ context.Context, key string, body []byte) error {
	c.entries.Set(key, body, c.ttl)
	return nil
}
