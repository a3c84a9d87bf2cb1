package indexer

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/contractsense/contractsense-backend/internal/pkg/envutil"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

type redisCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to REDIS_ADDR and shares embeddings across
// processes. Returns nil when no address is configured so callers can
// fall back to the in-process cache.
func NewRedisCache(log *logger.Logger) EmbedCache {
	addr := envutil.Str("REDIS_ADDR", "")
	if addr == "" {
		return nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.Str("REDIS_PASSWORD", ""),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})
	ttl := envutil.Duration("EMBED_CACHE_TTL", 7*24*time.Hour)
	return &redisCache{
		log:    log.With("component", "embed_cache"),
		rdb:    rdb,
		prefix: envutil.Str("EMBED_CACHE_PREFIX", "cs:embed:"),
		ttl:    ttl,
	}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]float32, bool) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("embed cache read failed", "error", err)
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

func (c *redisCache) Set(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("embed cache write failed", "error", err)
	}
}
