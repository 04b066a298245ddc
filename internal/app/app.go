// Package app wires the upstream clients, cache and aggregator shared by the
// api, worker and exporter binaries.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/yourorg/elecciones/internal/aggregate"
	"github.com/yourorg/elecciones/internal/cache"
	"github.com/yourorg/elecciones/internal/catalog"
	"github.com/yourorg/elecciones/internal/config"
	"github.com/yourorg/elecciones/internal/upstream"
)

type Services struct {
	Results    *upstream.Client
	Georef     *upstream.Client
	Aggregator *aggregate.Aggregator

	cache *cache.Badger
}

// Build constructs the services for cfg. The response cache is opened only
// when cfg.CacheTTL is positive.
func Build(cfg config.Config, log *zap.Logger) (*Services, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Services{}
	ucfg := upstream.Config{
		BaseURL:     cfg.APIBase,
		BearerToken: cfg.BearerToken,
		Timeout:     cfg.UpstreamTimeout,
		RPS:         cfg.UpstreamRPS,
	}
	if cfg.CacheTTL > 0 {
		c, err := cache.Open(cfg.CacheDir, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		s.cache = c
		ucfg.Cache = c
		log.Info("response cache enabled", zap.String("dir", cfg.CacheDir), zap.Duration("ttl", cfg.CacheTTL))
	}
	s.Results = upstream.New(ucfg, log.Named("resultados"))
	s.Georef = upstream.New(upstream.Config{
		BaseURL: cfg.GeorefBase,
		Timeout: cfg.UpstreamTimeout,
	}, log.Named("georef"))
	s.Aggregator = aggregate.New(s.Results, catalog.Districts(), aggregate.Options{
		Workers:      cfg.AggregateWorkers,
		MaxAttempts:  cfg.AggregateMaxAttempts,
		RetryInitial: cfg.AggregateRetryDelay,
	}, log.Named("aggregate"))
	return s, nil
}

// Close releases the cache, if any.
func (s *Services) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}
