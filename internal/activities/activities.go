package activities

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/yourorg/elecciones/internal/catalog"
	"github.com/yourorg/elecciones/internal/export"
	"github.com/yourorg/elecciones/internal/models"
	"github.com/yourorg/elecciones/internal/storage"
	"github.com/yourorg/elecciones/internal/types"
)

// Registered activity names; workflows reference these strings.
const (
	AggregateDistrictsName = "Activities.AggregateDistricts"
	WriteSnapshotName      = "Activities.WriteSnapshot"
)

// Aggregator runs the national district fan-out.
type Aggregator interface {
	Run(ctx context.Context, base models.Query) (models.AggregationResult, error)
}

// Registry is satisfied by a Temporal worker and by the test environments.
type Registry interface {
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

type Activities struct {
	agg   Aggregator
	store storage.ObjectStore
	log   *zap.Logger
	now   func() time.Time
}

func New(agg Aggregator, store storage.ObjectStore, log *zap.Logger) *Activities {
	if log == nil {
		log = zap.NewNop()
	}
	return &Activities{agg: agg, store: store, log: log, now: time.Now}
}

// Register adds every activity under its explicit name.
func (a *Activities) Register(r Registry) {
	r.RegisterActivityWithOptions(a.AggregateDistricts, activity.RegisterOptions{Name: AggregateDistrictsName})
	r.RegisterActivityWithOptions(a.WriteSnapshot, activity.RegisterOptions{Name: WriteSnapshotName})
}

// AggregateDistricts runs the district fan-out. Validation failures are not retried.
func (a *Activities) AggregateDistricts(ctx context.Context, p types.SnapshotParams) (models.AggregationResult, error) {
	res, err := a.agg.Run(ctx, p.Query)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			return models.AggregationResult{}, temporal.NewNonRetryableApplicationError(err.Error(), "Validation", err)
		}
		return models.AggregationResult{}, err
	}
	return res, nil
}

// WriteSnapshot stores the map workbook and a manifest describing it.
func (a *Activities) WriteSnapshot(ctx context.Context, p types.WriteSnapshotParams) (types.SnapshotResult, error) {
	var buf bytes.Buffer
	if err := export.MapWorkbook(&buf, p.Result, catalog.LabelOrID); err != nil {
		return types.SnapshotResult{}, fmt.Errorf("render workbook: %w", err)
	}
	size := buf.Len()
	if _, err := a.store.Put(ctx, p.WorkbookURI, &buf); err != nil {
		return types.SnapshotResult{}, fmt.Errorf("put %s: %w", p.WorkbookURI, err)
	}

	out := types.SnapshotResult{
		WorkbookURI:     p.WorkbookURI,
		ManifestURI:     p.ManifestURI,
		Districts:       len(p.Result.Series),
		Succeeded:       p.Result.Succeeded(),
		FailedDistricts: []string{},
		Agrupaciones:    len(p.Result.Agrupaciones),
	}
	for _, o := range p.Result.Series {
		if !o.OK {
			out.FailedDistricts = append(out.FailedDistricts, o.DistritoID)
		}
	}

	man := map[string]any{
		"workbook":         p.WorkbookURI,
		"manifest":         p.ManifestURI,
		"workbook_bytes":   size,
		"query":            p.Params.Query,
		"requested_by":     p.Params.RequestedBy,
		"districts":        out.Districts,
		"succeeded":        out.Succeeded,
		"failed_districts": out.FailedDistricts,
		"agrupaciones":     out.Agrupaciones,
		"generated_at":     a.now().UTC().Format(time.RFC3339),
	}
	mb, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return types.SnapshotResult{}, err
	}
	if _, err := a.store.Put(ctx, p.ManifestURI, bytes.NewReader(mb)); err != nil {
		return types.SnapshotResult{}, fmt.Errorf("put %s: %w", p.ManifestURI, err)
	}

	a.log.Info("snapshot written",
		zap.String("workbook", p.WorkbookURI),
		zap.Int("districts", out.Districts),
		zap.Int("failed", len(out.FailedDistricts)))
	return out, nil
}
