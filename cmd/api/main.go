package main

import (
	"log"

	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/yourorg/elecciones/internal/api"
	"github.com/yourorg/elecciones/internal/app"
	"github.com/yourorg/elecciones/internal/config"
	"github.com/yourorg/elecciones/internal/logging"
	"github.com/yourorg/elecciones/internal/metrics"
	"github.com/yourorg/elecciones/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl := logging.New(cfg.LogLevel)
	defer zl.Sync()
	metrics.Init()

	svc, err := app.Build(cfg, zl)
	if err != nil {
		zl.Fatal("build services", zap.Error(err))
	}
	defer svc.Close()

	h := api.NewHandler(api.Options{
		Results:          svc.Results,
		Georef:           svc.Georef,
		Aggregator:       svc.Aggregator,
		Logger:           zl,
		AggregateTimeout: cfg.AggregateTimeout,
		APIBase:          cfg.APIBase,
		BearerSet:        cfg.BearerToken != "",
	})
	rc := api.RouterConfig{StaticDir: cfg.StaticDir, Logger: zl}

	// Snapshot routes need Temporal; the dashboard works without it.
	if cfg.TemporalAddress != "" {
		temporalClient, err := client.Dial(client.Options{
			HostPort:  cfg.TemporalAddress,
			Namespace: cfg.TemporalNamespace,
		})
		if err != nil {
			zl.Warn("temporal unavailable, snapshot routes disabled", zap.Error(err))
		} else {
			defer temporalClient.Close()
			rc.Snapshots = api.NewSnapshotHandler(temporalClient, storage.New(), cfg.TaskQueue, cfg.SnapshotURIPrefix)
		}
	}

	r := api.NewRouter(h, rc)
	zl.Info("server starting",
		zap.String("port", cfg.Port),
		zap.String("api_base", cfg.APIBase),
		zap.Bool("snapshots", rc.Snapshots != nil))
	if err := r.Run(":" + cfg.Port); err != nil {
		zl.Fatal("server failed", zap.Error(err))
	}
}
