package config

import (
	"context"
	"fmt"
	"time"

	"github.com/abdhe/aishe-client/pkg/cache"
)

const pingTimeout = 5 * time.Second

// NewStrategy builds the cache strategy selected by c.Cache.Backend. It
// returns a nil strategy for the none backend. The returned close function
// releases backend connections and is never nil.
func NewStrategy(ctx context.Context, c *Config) (cache.Strategy, func() error, error) {
	noop := func() error { return nil }

	switch c.Cache.Backend {
	case BackendNone, "":
		return nil, noop, nil

	case BackendRedis:
		store := cache.NewRedisStore(cache.RedisOptions{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			TTL:      c.Cache.TTL,
		})
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			store.Close()
			return nil, noop, fmt.Errorf("config: redis %s: %w", c.Redis.Addr, err)
		}
		return cache.NewExactCache(store, cache.NewKeyGenerator(c.Cache.Namespace)), store.Close, nil

	case BackendLangCache:
		threshold, err := c.SimilarityThreshold()
		if err != nil {
			return nil, noop, fmt.Errorf("config: %w", err)
		}
		store, err := cache.NewLangCacheStore(cache.LangCacheOptions{
			URL:     c.LangCache.URL,
			APIKey:  c.LangCache.APIKey,
			CacheID: c.LangCache.CacheID,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("config: %w", err)
		}
		strategy, err := cache.NewSemanticCache(store, threshold)
		if err != nil {
			return nil, noop, fmt.Errorf("config: %w", err)
		}
		return strategy, noop, nil

	case BackendQdrant:
		threshold, err := c.SimilarityThreshold()
		if err != nil {
			return nil, noop, fmt.Errorf("config: %w", err)
		}
		embedder := cache.NewEmbedder(cache.EmbedderOptions{
			URL:    c.Qdrant.EmbeddingURL,
			Model:  c.Qdrant.EmbeddingModel,
			APIKey: c.Qdrant.EmbeddingAPIKey,
		})
		vectors := cache.NewVectorStore(c.Qdrant.URL, c.Qdrant.Collection, nil)
		strategy, err := cache.NewSemanticCache(cache.NewQdrantStore(embedder, vectors, 0), threshold)
		if err != nil {
			return nil, noop, fmt.Errorf("config: %w", err)
		}
		return strategy, noop, nil
	}

	return nil, noop, fmt.Errorf("config: unknown cache backend %q", c.Cache.Backend)
}
