package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yourorg/elecciones/internal/activities"
	"github.com/yourorg/elecciones/internal/storage"
	"github.com/yourorg/elecciones/internal/types"
)

const (
	SnapshotWorkflowName = "SnapshotWorkflow"

	WorkbookName = "mapa.xlsx"
	ManifestName = "manifest.json"
)

// SnapshotWorkflow aggregates every district and stores the map workbook and
// its manifest under {OutputPrefix}/{workflowID}/.
func SnapshotWorkflow(ctx workflow.Context, p types.SnapshotParams) (types.SnapshotResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        5 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{"Validation"},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var agg types.WriteSnapshotParams
	if err := workflow.ExecuteActivity(ctx, activities.AggregateDistrictsName, p).Get(ctx, &agg.Result); err != nil {
		return types.SnapshotResult{}, err
	}

	base := storage.Join(p.OutputPrefix, workflow.GetInfo(ctx).WorkflowExecution.ID)
	agg.WorkbookURI = storage.Join(base, WorkbookName)
	agg.ManifestURI = storage.Join(base, ManifestName)
	agg.Params = p

	var out types.SnapshotResult
	if err := workflow.ExecuteActivity(ctx, activities.WriteSnapshotName, agg).Get(ctx, &out); err != nil {
		return types.SnapshotResult{}, err
	}
	return out, nil
}
