package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soundprediction/go-rankllm/pkg/server/dto"
	"github.com/soundprediction/go-rankllm/pkg/types"
)

// EngineProvider builds a reranker for one request. Overrides are nil when
// the request does not set them; the provider falls back to its configured
// defaults.
type EngineProvider interface {
	// Engine returns a reranker honoring the given option overrides.
	Engine(windowSize, stride, passes *int) (Reranker, error)
	// Model reports the backing model identifier.
	Model() string
}

// Reranker is the engine surface the handler needs.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []types.Candidate) (*types.RerankResult, error)
}

// RerankHandler serves the Jina-compatible rerank endpoint.
type RerankHandler struct {
	provider EngineProvider
	logger   *slog.Logger
}

// NewRerankHandler creates the handler.
func NewRerankHandler(provider EngineProvider, logger *slog.Logger) *RerankHandler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RerankHandler{provider: provider, logger: logger}
}

// Rerank handles POST /v1/rerank.
func (h *RerankHandler) Rerank(c *gin.Context) {
	var req dto.RerankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}
	if len(req.Documents) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "documents must not be empty",
		})
		return
	}

	candidates := make([]types.Candidate, len(req.Documents))
	for i, doc := range req.Documents {
		id := doc.ID
		if id == "" {
			id = strconv.Itoa(i)
		}
		candidates[i] = types.Candidate{ID: id, Text: doc.Text, Score: doc.Score}
	}

	engine, err := h.provider.Engine(req.WindowSize, req.Stride, req.Passes)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	requestID := uuid.NewString()
	result, err := engine.Rerank(c.Request.Context(), req.Query, candidates)
	if err != nil {
		status, kind := classifyRerankError(err)
		h.logger.Error("rerank request failed",
			"request_id", requestID, "error", err, "kind", kind)
		c.JSON(status, dto.ErrorResponse{Error: kind, Message: err.Error()})
		return
	}

	// Map final order back to request-list indices.
	indexByID := make(map[string]int, len(candidates))
	for i, cand := range candidates {
		indexByID[cand.ID] = i
	}

	results := make([]dto.RankedResult, 0, len(result.Candidates))
	for _, rc := range result.Candidates {
		results = append(results, dto.RankedResult{
			Index:          indexByID[rc.ID],
			Document:       rc.Text,
			RelevanceScore: rc.Score,
		})
	}
	if req.TopK != nil && *req.TopK > 0 && *req.TopK < len(results) {
		results = results[:*req.TopK]
	}

	c.JSON(http.StatusOK, dto.RerankResponse{
		Model:   h.provider.Model(),
		Results: results,
		Usage: &dto.Usage{
			PromptTokens: result.Usage.PromptTokens,
			TotalTokens:  result.Usage.TotalTokens,
			CostUSD:      result.CostUSD,
		},
	})
}

func classifyRerankError(err error) (int, string) {
	if errors.Is(err, types.ErrEmptyQuery) || errors.Is(err, types.ErrNoCandidates) {
		return http.StatusBadRequest, "invalid_request"
	}
	var capErr *types.CapacityError
	if errors.As(err, &capErr) {
		return http.StatusBadRequest, "capacity_exceeded"
	}
	var winErr *types.WindowError
	if errors.As(err, &winErr) {
		return http.StatusBadGateway, "backend_failure"
	}
	return http.StatusInternalServerError, "internal_error"
}
