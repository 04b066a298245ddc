package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"

	"github.com/yourorg/elecciones/internal/export"
	"github.com/yourorg/elecciones/internal/models"
	"github.com/yourorg/elecciones/internal/storage"
	"github.com/yourorg/elecciones/internal/types"
	"github.com/yourorg/elecciones/internal/workflow"
)

// WorkflowClient is the part of client.Client the snapshot routes use.
type WorkflowClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, wf interface{}, args ...interface{}) (client.WorkflowRun, error)
	GetWorkflow(ctx context.Context, workflowID string, runID string) client.WorkflowRun
	DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error)
}

type SnapshotHandler struct {
	temporalClient WorkflowClient
	store          storage.ObjectStore
	taskQueue      string
	outputPrefix   string
}

// NewSnapshotHandler reads stored snapshots back through store, which must
// reach the same outputPrefix the worker writes to.
func NewSnapshotHandler(tc WorkflowClient, store storage.ObjectStore, taskQueue, outputPrefix string) *SnapshotHandler {
	return &SnapshotHandler{
		temporalClient: tc,
		store:          store,
		taskQueue:      taskQueue,
		outputPrefix:   outputPrefix,
	}
}

type StartSnapshotRequest struct {
	Query       models.Query `json:"query"`
	RequestedBy string       `json:"requested_by"`
}

type StartSnapshotResponse struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
}

// StartSnapshot starts SnapshotWorkflow for the posted query.
func (h *SnapshotHandler) StartSnapshot(c *gin.Context) {
	var req StartSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Query.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := types.SnapshotParams{
		Query:        req.Query.Without(models.ParamDistritoID),
		OutputPrefix: h.outputPrefix,
		RequestedBy:  req.RequestedBy,
	}
	options := client.StartWorkflowOptions{
		TaskQueue: h.taskQueue,
	}
	run, err := h.temporalClient.ExecuteWorkflow(c.Request.Context(), options, workflow.SnapshotWorkflowName, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start workflow: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, StartSnapshotResponse{
		WorkflowID: run.GetID(),
		RunID:      run.GetRunID(),
	})
}

// describe looks up a snapshot and writes the error response itself on failure.
func (h *SnapshotHandler) describe(c *gin.Context) (*workflowservice.DescribeWorkflowExecutionResponse, bool) {
	workflowID := c.Param("id")
	if workflowID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Workflow ID is required"})
		return nil, false
	}
	describe, err := h.temporalClient.DescribeWorkflowExecution(c.Request.Context(), workflowID, "")
	if err != nil {
		var nf *serviceerror.NotFound
		if errors.As(err, &nf) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Snapshot not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to describe workflow: " + err.Error()})
		return nil, false
	}
	return describe, true
}

func (h *SnapshotHandler) result(c *gin.Context) (types.SnapshotResult, bool) {
	var result types.SnapshotResult
	if err := h.temporalClient.GetWorkflow(c.Request.Context(), c.Param("id"), "").Get(c.Request.Context(), &result); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read workflow result: " + err.Error()})
		return result, false
	}
	return result, true
}

// GetSnapshot reports the status of a snapshot, with its result and stored
// manifest once completed.
func (h *SnapshotHandler) GetSnapshot(c *gin.Context) {
	describe, ok := h.describe(c)
	if !ok {
		return
	}

	info := describe.GetWorkflowExecutionInfo()
	resp := gin.H{
		"workflow_id": c.Param("id"),
		"status":      info.GetStatus().String(),
	}
	if st := info.GetStartTime(); st != nil {
		resp["start_time"] = st.AsTime()
	}
	if info.GetStatus() == enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED {
		result, ok := h.result(c)
		if !ok {
			return
		}
		resp["result"] = result
		if manifest, err := h.readManifest(c.Request.Context(), result.ManifestURI); err == nil {
			resp["manifest"] = manifest
		} else {
			resp["manifest_error"] = err.Error()
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SnapshotHandler) readManifest(ctx context.Context, uri string) (json.RawMessage, error) {
	rc, _, err := h.store.Get(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, 1<<20))
	if err != nil {
		return nil, err
	}
	if !json.Valid(b) {
		return nil, errors.New("manifest is not valid JSON")
	}
	return b, nil
}

// DownloadSnapshot streams the map workbook of a completed snapshot.
func (h *SnapshotHandler) DownloadSnapshot(c *gin.Context) {
	describe, ok := h.describe(c)
	if !ok {
		return
	}
	if describe.GetWorkflowExecutionInfo().GetStatus() != enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED {
		c.JSON(http.StatusConflict, gin.H{"error": "Snapshot not completed"})
		return
	}
	result, ok := h.result(c)
	if !ok {
		return
	}
	rc, size, err := h.store.Get(c.Request.Context(), result.WorkbookURI)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to read workbook: " + err.Error()})
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, size, export.XLSXContentType, rc, map[string]string{
		"Content-Disposition": `attachment; filename="mapa.xlsx"`,
	})
}
