// Package config loads the client configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/abdhe/aishe-client/pkg/aishe"
	"github.com/abdhe/aishe-client/pkg/cache"
	"github.com/abdhe/aishe-client/pkg/logging"
)

// Cache backends.
const (
	BackendNone      = "none"
	BackendRedis     = "redis"
	BackendLangCache = "langcache"
	BackendQdrant    = "qdrant"
)

// Config is the complete client configuration.
type Config struct {
	APIURL         string        `env:"AISHE_API_URL" envDefault:"http://localhost:8000"`
	RequestTimeout time.Duration `env:"AISHE_REQUEST_TIMEOUT" envDefault:"120s"`

	Cache     CacheConfig
	Redis     RedisConfig
	LangCache LangCacheConfig
	Qdrant    QdrantConfig
	Log       LogConfig
	Trace     TraceConfig
	Sidecar   SidecarConfig
}

// CacheConfig selects and tunes the cache strategy.
type CacheConfig struct {
	Backend   string        `env:"AISHE_CACHE_BACKEND" envDefault:"none"`
	Namespace string        `env:"AISHE_CACHE_NAMESPACE" envDefault:"aishe:answer:"`
	Threshold string        `env:"AISHE_CACHE_THRESHOLD" envDefault:"close"`
	TTL       time.Duration `env:"AISHE_CACHE_TTL" envDefault:"1h"`
}

// RedisConfig configures the exact-match backend.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LangCacheConfig configures the managed semantic backend.
type LangCacheConfig struct {
	URL     string `env:"LANGCACHE_URL"`
	APIKey  string `env:"LANGCACHE_API_KEY"`
	CacheID string `env:"LANGCACHE_CACHE_ID"`
}

// QdrantConfig configures the self-hosted semantic backend.
type QdrantConfig struct {
	URL             string `env:"QDRANT_URL" envDefault:"http://localhost:6333"`
	Collection      string `env:"QDRANT_COLLECTION" envDefault:"aishe_answers"`
	EmbeddingURL    string `env:"EMBEDDING_URL" envDefault:"http://localhost:11434/v1"`
	EmbeddingModel  string `env:"EMBEDDING_MODEL" envDefault:"nomic-embed-text"`
	EmbeddingAPIKey string `env:"EMBEDDING_API_KEY"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `env:"AISHE_LOG_LEVEL" envDefault:"info"`
	Format string `env:"AISHE_LOG_FORMAT" envDefault:"console"`
}

// Trace exporters.
const (
	TraceNone   = "none"
	TraceStdout = "stdout"
)

// TraceConfig selects where Ask and CheckHealth spans are exported.
type TraceConfig struct {
	Exporter string `env:"AISHE_TRACE_EXPORTER" envDefault:"none"`
}

// SidecarConfig configures `aishe serve`.
type SidecarConfig struct {
	GRPCPort      string        `env:"AISHE_SIDECAR_GRPC_PORT" envDefault:"50051"`
	MetricsPort   string        `env:"AISHE_SIDECAR_METRICS_PORT" envDefault:"9090"`
	ProbeInterval time.Duration `env:"AISHE_SIDECAR_PROBE_INTERVAL" envDefault:"30s"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	opts.FuncMap = map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(time.Duration(0)): parseDuration,
	}
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	return &cfg, nil
}

// parseDuration accepts Go durations ("90s", "2m") and bare seconds ("90",
// "1.5").
func parseDuration(v string) (any, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return nil, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}

// SimilarityThreshold resolves the configured threshold tier or number.
func (c *Config) SimilarityThreshold() (float64, error) {
	return cache.ParseThreshold(c.Cache.Threshold)
}

// Validate rejects configurations that cannot produce a working client.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: invalid API URL %q", c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: request timeout must be positive, got %s", c.RequestTimeout)
	}
	if _, err := logging.New(c.Log.Level, c.Log.Format, nil); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if c.Trace.Exporter != TraceNone && c.Trace.Exporter != TraceStdout {
		return fmt.Errorf("config: unknown trace exporter %q (want none or stdout)", c.Trace.Exporter)
	}

	switch c.Cache.Backend {
	case BackendNone:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: REDIS_ADDR is required for the redis backend")
		}
		if c.Cache.TTL < 0 {
			return fmt.Errorf("config: cache TTL must not be negative, got %s", c.Cache.TTL)
		}
	case BackendLangCache:
		if c.LangCache.URL == "" || c.LangCache.APIKey == "" || c.LangCache.CacheID == "" {
			return fmt.Errorf("config: LANGCACHE_URL, LANGCACHE_API_KEY and LANGCACHE_CACHE_ID are required for the langcache backend")
		}
	case BackendQdrant:
		if c.Qdrant.URL == "" || c.Qdrant.Collection == "" || c.Qdrant.EmbeddingURL == "" {
			return fmt.Errorf("config: QDRANT_URL, QDRANT_COLLECTION and EMBEDDING_URL are required for the qdrant backend")
		}
	default:
		return fmt.Errorf("config: unknown cache backend %q (want none, redis, langcache or qdrant)", c.Cache.Backend)
	}

	if c.Cache.Backend == BackendLangCache || c.Cache.Backend == BackendQdrant {
		if _, err := c.SimilarityThreshold(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// ExecutorConfig returns the executor settings derived from c.
func (c *Config) ExecutorConfig() aishe.ExecutorConfig {
	return aishe.ExecutorConfig{
		BaseURL: c.APIURL,
		Timeout: c.RequestTimeout,
	}
}
