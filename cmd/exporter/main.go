package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/yourorg/elecciones/internal/app"
	"github.com/yourorg/elecciones/internal/catalog"
	"github.com/yourorg/elecciones/internal/config"
	"github.com/yourorg/elecciones/internal/export"
	"github.com/yourorg/elecciones/internal/logging"
	"github.com/yourorg/elecciones/internal/models"
	"github.com/yourorg/elecciones/internal/storage"
)

// queryFlags collects repeated -q key=value arguments.
type queryFlags []string

func (q *queryFlags) String() string { return strings.Join(*q, ",") }

func (q *queryFlags) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	*q = append(*q, v)
	return nil
}

func main() {
	var (
		mode   = flag.String("mode", "results", "results or mapa")
		format = flag.String("format", "xlsx", "xlsx or pdf (pdf is results only)")
		out    = flag.String("out", "", "destination URI (file:// or s3://); defaults to ./resultados.<format> or ./mapa.xlsx")
		qs     queryFlags
	)
	flag.Var(&qs, "q", "query parameter key=value, repeatable")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl := logging.New(cfg.LogLevel)
	defer zl.Sync()

	j := job{mode: *mode, format: *format, out: *out, query: parseQuery(qs)}
	if err := j.validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	svc, err := app.Build(cfg, zl)
	if err != nil {
		zl.Fatal("build services", zap.Error(err))
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.AggregateTimeout)
	defer cancel()
	uri, err := run(ctx, j, svc.Results, svc.Aggregator, storage.New())
	if err != nil {
		zl.Fatal("export failed", zap.Error(err))
	}
	zl.Info("export written", zap.String("uri", uri), zap.String("mode", j.mode), zap.String("format", j.format))
}

type job struct {
	mode   string
	format string
	out    string
	query  models.Query
}

func (j *job) validate() error {
	switch j.mode {
	case "results":
		if j.format != "xlsx" && j.format != "pdf" {
			return fmt.Errorf("unknown format %q", j.format)
		}
	case "mapa":
		if j.format != "xlsx" {
			return errors.New("mapa exports only support xlsx")
		}
	default:
		return fmt.Errorf("unknown mode %q", j.mode)
	}
	if err := j.query.Validate(); err != nil {
		return err
	}
	if j.out == "" {
		name := "resultados." + j.format
		if j.mode == "mapa" {
			name = "mapa.xlsx"
		}
		j.out = "file://" + name
	}
	return nil
}

func parseQuery(qs queryFlags) models.Query {
	raw := make(map[string]string, len(qs))
	for _, kv := range qs {
		k, v, _ := strings.Cut(kv, "=")
		raw[strings.TrimSpace(k)] = v
	}
	return models.NewQuery(raw)
}

type resultsFetcher interface {
	Results(ctx context.Context, q models.Query) (*models.Results, error)
}

type mapRunner interface {
	Run(ctx context.Context, base models.Query) (models.AggregationResult, error)
}

func run(ctx context.Context, j job, rf resultsFetcher, mr mapRunner, store storage.ObjectStore) (string, error) {
	var buf bytes.Buffer
	switch j.mode {
	case "mapa":
		res, err := mr.Run(ctx, j.query)
		if err != nil {
			return "", err
		}
		if err := export.MapWorkbook(&buf, res, catalog.LabelOrID); err != nil {
			return "", err
		}
	default:
		res, err := rf.Results(ctx, j.query)
		if err != nil {
			return "", fmt.Errorf("fetch results: %w", err)
		}
		if j.format == "pdf" {
			err = export.ResultsPDF(&buf, res, j.query)
		} else {
			err = export.ResultsWorkbook(&buf, res)
		}
		if err != nil {
			return "", err
		}
	}
	return store.Put(ctx, j.out, &buf)
}
