package server

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/flowkit/dataset"
	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/version"
)

type applyRequest struct {
	Input any `json:"input"`
}

type applyResponse struct {
	Output any `json:"output"`
}

type batchRequest struct {
	Inputs []any `json:"inputs"`
}

type batchResponse struct {
	Outputs []any `json:"outputs"`
}

type pipelineInfo struct {
	Source string   `json:"source"`
	Sink   string   `json:"sink"`
	Nodes  int      `json:"nodes"`
	Kinds  []string `json:"kinds"`
}

func (s *Server) handleHealth(c *gin.Context) {
	sh := observability.NewServiceHealth("scoring", version.Version)
	sh.AddComponent(s.artifact.CheckHealth(c.Request.Context()))

	status := http.StatusOK
	if sh.Status == observability.HealthStatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, sh)
}

func (s *Server) handlePipelineInfo(c *gin.Context) {
	g := s.artifact.Pipeline().Graph().Graph()

	kindSet := make(map[string]bool)
	for _, n := range g.Nodes {
		if n.Kind != "" {
			kindSet[n.Kind] = true
		}
	}
	kinds := make([]string, 0, len(kindSet))
	for k := range kindSet {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	c.JSON(http.StatusOK, pipelineInfo{
		Source: string(g.Source),
		Sink:   string(g.Sink),
		Nodes:  len(g.Nodes),
		Kinds:  kinds,
	})
}

func (s *Server) handleApply(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if req.Input == nil {
		respondError(c, apperrors.MissingField("input"))
		return
	}

	oc := s.startOperation(c, "apply")
	ctx, span := oc.StartSpanForOperation(c.Request.Context(), observability.SpanApply)

	out, err := s.artifact.Pipeline().Apply(ctx, req.Input)
	if err != nil {
		oc.EndOperation(ctx, span, "error", err)
		respondError(c, err)
		return
	}
	oc.EndOperation(ctx, span, "ok", nil)
	c.JSON(http.StatusOK, applyResponse{Output: out})
}

func (s *Server) handleApplyBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if req.Inputs == nil {
		respondError(c, apperrors.MissingField("inputs"))
		return
	}

	oc := s.startOperation(c, "apply_batch")
	ctx, span := oc.StartSpanForOperation(c.Request.Context(), observability.SpanApply)

	result, err := s.artifact.Pipeline().ApplyCollection(ctx, dataset.FromSlice(req.Inputs))
	if err != nil {
		oc.EndOperation(ctx, span, "error", err)
		respondError(c, err)
		return
	}
	outputs, err := result.Collect(ctx)
	if err != nil {
		oc.EndOperation(ctx, span, "error", err)
		respondError(c, err)
		return
	}
	oc.EndOperation(ctx, span, "ok", nil)
	if outputs == nil {
		outputs = []any{}
	}
	c.JSON(http.StatusOK, batchResponse{Outputs: outputs})
}

// startOperation builds the tracked-operation context for a request,
// reusing the caller's X-Request-ID when one is supplied.
func (s *Server) startOperation(c *gin.Context, operation string) *observability.OperationContext {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return observability.NewOperationContext("scoring", operation, requestID, s.metrics)
}

func respondError(c *gin.Context, err error) {
	status, body := apperrors.ResponseFor(err)
	c.JSON(status, body)
}
