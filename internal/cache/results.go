package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/raaihank/redactview/internal/config"
	"github.com/raaihank/redactview/internal/engine"
	"go.uber.org/zap"
)

// ResultCache caches detection results in Redis keyed by the hash of the
// analyzed text. Detection is the expensive step of a run; identical texts
// produce identical entity batches, so a hit skips the backend entirely.
type ResultCache struct {
	client *redis.Client
	config config.CacheConfig
	logger *zap.Logger
	stats  cacheStats
}

// cacheStats tracks cache performance counters
type cacheStats struct {
	hits   int64
	misses int64
}

// Stats is a snapshot of cache performance.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// New creates a Redis-backed detection result cache.
func New(cfg config.CacheConfig, logger *zap.Logger) (*ResultCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = cfg.MaxConnections
	opts.MinIdleConns = cfg.MinIdleConns

	cache := &ResultCache{
		client: redis.NewClient(opts),
		config: cfg,
		logger: logger,
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cache.client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Detection result cache initialized",
		zap.String("redis_url", maskRedisURL(cfg.RedisURL)),
		zap.Int("max_connections", cfg.MaxConnections),
		zap.Duration("default_ttl", cfg.DefaultTTL))

	return cache, nil
}

// Get returns the cached entity batch for the text, if present.
func (rc *ResultCache) Get(ctx context.Context, text string) ([]engine.Entity, bool) {
	key := rc.key(text)

	data, err := rc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		rc.stats.misses++
		return nil, false
	} else if err != nil {
		rc.logger.Error("Cache lookup failed", zap.Error(err))
		rc.stats.misses++
		return nil, false
	}

	var entities []engine.Entity
	if err := json.Unmarshal([]byte(data), &entities); err != nil {
		rc.logger.Error("Failed to unmarshal cached entities", zap.Error(err))
		// Drop the corrupted entry
		rc.client.Del(ctx, key)
		rc.stats.misses++
		return nil, false
	}

	rc.stats.hits++
	rc.logger.Debug("Cache hit", zap.String("key", key), zap.Int("entities", len(entities)))
	return entities, true
}

// Set stores the entity batch for the text with the configured TTL.
func (rc *ResultCache) Set(ctx context.Context, text string, entities []engine.Entity) error {
	data, err := json.Marshal(entities)
	if err != nil {
		return fmt.Errorf("failed to marshal entities for caching: %w", err)
	}

	if err := rc.client.Set(ctx, rc.key(text), data, rc.config.DefaultTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache detection result: %w", err)
	}
	return nil
}

// Clear removes all cached results under this cache's key prefix.
func (rc *ResultCache) Clear(ctx context.Context) error {
	iter := rc.client.Scan(ctx, 0, rc.config.KeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := rc.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}

	rc.logger.Info("Cache cleared", zap.Int("deleted_keys", len(keys)))
	return nil
}

// Stats returns hit/miss counters.
func (rc *ResultCache) Stats() Stats {
	stats := Stats{Hits: rc.stats.hits, Misses: rc.stats.misses}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}

// Close closes the Redis connection.
func (rc *ResultCache) Close() error {
	if rc.client != nil {
		return rc.client.Close()
	}
	return nil
}

// key builds a cache key from the text hash.
func (rc *ResultCache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return rc.config.KeyPrefix + hex.EncodeToString(sum[:])[:16]
}

// maskRedisURL masks credentials in a Redis URL for logging.
func maskRedisURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
