package config

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/abdhe/aishe-client/pkg/cache"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) TestDefaults() {
	cfg, err := LoadFrom(map[string]string{})
	s.Require().NoError(err)

	s.Equal("http://localhost:8000", cfg.APIURL)
	s.Equal(120*time.Second, cfg.RequestTimeout)
	s.Equal(BackendNone, cfg.Cache.Backend)
	s.Equal(cache.DefaultNamespace, cfg.Cache.Namespace)
	s.Equal(time.Hour, cfg.Cache.TTL)
	s.Equal("localhost:6379", cfg.Redis.Addr)
	s.Equal(30*time.Second, cfg.Sidecar.ProbeInterval)
	s.NoError(cfg.Validate())

	threshold, err := cfg.SimilarityThreshold()
	s.Require().NoError(err)
	s.Equal(cache.ThresholdClose, threshold)
}

func (s *ConfigSuite) TestDurationsAcceptBareSeconds() {
	cfg, err := LoadFrom(map[string]string{
		"AISHE_REQUEST_TIMEOUT": "45",
		"AISHE_CACHE_TTL":       "90m",
	})
	s.Require().NoError(err)
	s.Equal(45*time.Second, cfg.RequestTimeout)
	s.Equal(90*time.Minute, cfg.Cache.TTL)
}

func (s *ConfigSuite) TestInvalidDuration() {
	_, err := LoadFrom(map[string]string{"AISHE_REQUEST_TIMEOUT": "soon"})
	s.Error(err)
}

func (s *ConfigSuite) TestValidate() {
	tests := []struct {
		name    string
		environ map[string]string
		wantErr bool
	}{
		{"redis", map[string]string{"AISHE_CACHE_BACKEND": "redis"}, false},
		{"unknown backend", map[string]string{"AISHE_CACHE_BACKEND": "memcached"}, true},
		{"zero timeout", map[string]string{"AISHE_REQUEST_TIMEOUT": "0"}, true},
		{"bad url", map[string]string{"AISHE_API_URL": "localhost"}, true},
		{"langcache missing key", map[string]string{
			"AISHE_CACHE_BACKEND": "langcache",
			"LANGCACHE_URL":       "https://lc.example",
			"LANGCACHE_CACHE_ID":  "c1",
		}, true},
		{"langcache complete", map[string]string{
			"AISHE_CACHE_BACKEND": "langcache",
			"LANGCACHE_URL":       "https://lc.example",
			"LANGCACHE_API_KEY":   "k",
			"LANGCACHE_CACHE_ID":  "c1",
		}, false},
		{"qdrant bad threshold", map[string]string{
			"AISHE_CACHE_BACKEND":   "qdrant",
			"AISHE_CACHE_THRESHOLD": "1.5",
		}, true},
		{"qdrant strict", map[string]string{
			"AISHE_CACHE_BACKEND":   "qdrant",
			"AISHE_CACHE_THRESHOLD": "strict",
		}, false},
		{"bad log level", map[string]string{"AISHE_LOG_LEVEL": "loud"}, true},
		{"stdout tracing", map[string]string{"AISHE_TRACE_EXPORTER": "stdout"}, false},
		{"unknown tracing", map[string]string{"AISHE_TRACE_EXPORTER": "jaeger"}, true},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			cfg, err := LoadFrom(tt.environ)
			s.Require().NoError(err)
			if tt.wantErr {
				s.Error(cfg.Validate())
			} else {
				s.NoError(cfg.Validate())
			}
		})
	}
}

func (s *ConfigSuite) TestNewStrategy() {
	ctx := context.Background()
	mr := miniredis.RunT(s.T())

	tests := []struct {
		environ  map[string]string
		wantName string
	}{
		{map[string]string{}, ""},
		{map[string]string{"AISHE_CACHE_BACKEND": "redis", "REDIS_ADDR": mr.Addr()}, "exact"},
		{map[string]string{
			"AISHE_CACHE_BACKEND": "langcache",
			"LANGCACHE_URL":       "https://lc.example",
			"LANGCACHE_API_KEY":   "k",
			"LANGCACHE_CACHE_ID":  "c1",
		}, "semantic"},
		{map[string]string{"AISHE_CACHE_BACKEND": "qdrant", "AISHE_CACHE_THRESHOLD": "loose"}, "semantic"},
	}

	for _, tt := range tests {
		cfg, err := LoadFrom(tt.environ)
		s.Require().NoError(err)

		strategy, closeFn, err := NewStrategy(ctx, cfg)
		s.Require().NoError(err)
		s.Require().NotNil(closeFn)
		if tt.wantName == "" {
			s.Nil(strategy)
		} else {
			s.Require().NotNil(strategy)
			s.Equal(tt.wantName, strategy.Name())
		}
		s.NoError(closeFn())
	}
}

func (s *ConfigSuite) TestNewStrategyRedisUnreachable() {
	mr := miniredis.RunT(s.T())
	addr := mr.Addr()
	mr.Close()

	cfg, err := LoadFrom(map[string]string{"AISHE_CACHE_BACKEND": "redis", "REDIS_ADDR": addr})
	s.Require().NoError(err)

	_, _, err = NewStrategy(context.Background(), cfg)
	s.Error(err)
}
