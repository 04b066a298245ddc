package main

import (
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	tworkflow "go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/yourorg/elecciones/internal/activities"
	"github.com/yourorg/elecciones/internal/app"
	"github.com/yourorg/elecciones/internal/config"
	"github.com/yourorg/elecciones/internal/logging"
	"github.com/yourorg/elecciones/internal/metrics"
	"github.com/yourorg/elecciones/internal/storage"
	"github.com/yourorg/elecciones/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl := logging.New(cfg.LogLevel)
	defer zl.Sync()

	metrics.Init()
	go func() {
		if err := metrics.Serve(cfg.MetricsAddr); err != nil {
			zl.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	hostPort := cfg.TemporalAddress
	if hostPort == "" {
		hostPort = client.DefaultHostPort
	}
	c, err := client.Dial(client.Options{HostPort: hostPort, Namespace: cfg.TemporalNamespace})
	if err != nil {
		log.Fatal("temporal client:", err)
	}
	defer c.Close()

	svc, err := app.Build(cfg, zl)
	if err != nil {
		log.Fatal("build services:", err)
	}
	defer svc.Close()

	w := worker.New(c, cfg.TaskQueue, worker.Options{})
	activities.New(svc.Aggregator, storage.New(), zl).Register(w)
	w.RegisterWorkflowWithOptions(workflow.SnapshotWorkflow, tworkflow.RegisterOptions{Name: workflow.SnapshotWorkflowName})

	zl.Info("worker started",
		zap.String("namespace", cfg.TemporalNamespace),
		zap.String("taskQueue", cfg.TaskQueue),
		zap.String("snapshots", cfg.SnapshotURIPrefix),
		zap.String("metrics", cfg.MetricsAddr))
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal("worker failed:", err)
	}
}
