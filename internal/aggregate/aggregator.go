// Package aggregate builds the national map payload: one results query per
// district, failures isolated per district, and a grouping index merged in
// canonical district order.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourorg/elecciones/internal/metrics"
	"github.com/yourorg/elecciones/internal/models"
)

// Fetcher queries the results API for one fully resolved query.
type Fetcher interface {
	Results(ctx context.Context, q models.Query) (*models.Results, error)
}

// Options tunes the fan-out.
type Options struct {
	// Workers bounds concurrent district requests.
	Workers int
	// MaxAttempts per district; 1 disables retries.
	MaxAttempts int
	RetryInitial time.Duration
	RetryMax     time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	if o.RetryInitial <= 0 {
		o.RetryInitial = 250 * time.Millisecond
	}
	if o.RetryMax <= 0 {
		o.RetryMax = 5 * time.Second
	}
	if o.RetryMax < o.RetryInitial {
		o.RetryMax = o.RetryInitial
	}
	return o
}

// Aggregator runs the district fan-out.
type Aggregator struct {
	fetch     Fetcher
	districts []models.District
	opts      Options
	log       *zap.Logger
	sleep     func(context.Context, time.Duration) error
}

// New returns an Aggregator over districts, which must be in canonical order.
func New(f Fetcher, districts []models.District, opts Options, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{
		fetch:     f,
		districts: append([]models.District(nil), districts...),
		opts:      opts.withDefaults(),
		log:       log,
		sleep:     sleepCtx,
	}
}

// Districts returns the canonical district list the aggregator iterates.
func (a *Aggregator) Districts() []models.District {
	return append([]models.District(nil), a.districts...)
}

// Run aggregates base across every district. The only error it returns is a
// validation error for base; district failures are reported in the series.
// Any distritoId in base is ignored: the map is always national.
func (a *Aggregator) Run(ctx context.Context, base models.Query) (models.AggregationResult, error) {
	if err := base.Validate(); err != nil {
		return models.AggregationResult{}, err
	}
	base = base.Without(models.ParamDistritoID)
	start := time.Now()

	outcomes := make([]models.DistrictOutcome, len(a.districts))
	// Plain Group, not WithContext: a failing district must not cancel the rest.
	var g errgroup.Group
	g.SetLimit(a.opts.Workers)
	for i, d := range a.districts {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					a.log.Error("district query panicked", zap.String("distritoId", d.ID), zap.Any("panic", r))
					outcomes[i] = models.FailureOutcome(d.ID, fmt.Sprintf("panic: %v", r))
				}
			}()
			outcomes[i] = a.queryDistrict(ctx, base, d)
			return nil
		})
	}
	_ = g.Wait()

	res := Assemble(outcomes, MergeGroupings(outcomes))

	took := time.Since(start)
	metrics.Aggregations.Inc()
	metrics.AggregationDuration.Observe(took.Seconds())
	a.log.Info("district aggregation finished",
		zap.String("query", base.Encode()),
		zap.Int("districts", len(res.Series)),
		zap.Int("ok", res.Succeeded()),
		zap.Int("agrupaciones", len(res.Agrupaciones)),
		zap.Duration("took", took))
	return res, nil
}

func (a *Aggregator) queryDistrict(ctx context.Context, base models.Query, d models.District) models.DistrictOutcome {
	q := base.With(models.ParamDistritoID, d.ID)
	var err error
	for attempt := 1; attempt <= a.opts.MaxAttempts; attempt++ {
		var res *models.Results
		res, err = a.fetch.Results(ctx, q)
		if err == nil {
			var pos models.PositiveTotals
			if res != nil {
				pos = res.Positivos
			}
			return models.SuccessOutcome(d.ID, pos)
		}
		if attempt == a.opts.MaxAttempts || !shouldRetry(ctx, err) {
			break
		}
		wait := Backoff(attempt, a.opts.RetryInitial, a.opts.RetryMax)
		a.log.Debug("retrying district", zap.String("distritoId", d.ID), zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		if serr := a.sleep(ctx, wait); serr != nil {
			break
		}
	}

	metrics.DistrictFailures.WithLabelValues(d.ID).Inc()
	a.log.Warn("district query failed", zap.String("distritoId", d.ID), zap.Error(err))
	return models.FailureOutcome(d.ID, err.Error())
}

type retryable interface {
	Retryable() bool
}

func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
