package types

import "github.com/yourorg/elecciones/internal/models"

// SnapshotParams is the input of SnapshotWorkflow.
type SnapshotParams struct {
	Query models.Query `json:"query"`
	// OutputPrefix is a file:// or s3:// prefix; the workflow writes under
	// {OutputPrefix}/{workflowID}/.
	OutputPrefix string `json:"output_prefix"`
	// RequestedBy is free text recorded in the manifest.
	RequestedBy string `json:"requested_by,omitempty"`
}

// WriteSnapshotParams carries an aggregation to the write activity.
type WriteSnapshotParams struct {
	WorkbookURI string                   `json:"workbook_uri"`
	ManifestURI string                   `json:"manifest_uri"`
	Params      SnapshotParams           `json:"params"`
	Result      models.AggregationResult `json:"result"`
}

// SnapshotResult is what SnapshotWorkflow returns.
type SnapshotResult struct {
	WorkbookURI     string   `json:"workbook_uri"`
	ManifestURI     string   `json:"manifest_uri"`
	Districts       int      `json:"districts"`
	Succeeded       int      `json:"succeeded"`
	FailedDistricts []string `json:"failed_districts"`
	Agrupaciones    int      `json:"agrupaciones"`
}
