package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/config"
	"credit-engine/internal/ingestion"
	"credit-engine/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

type IngestionDispatcher interface {
	Submit(ctx context.Context, customerFile, loanFile string) (*ingestion.Task, error)
	Status(ctx context.Context, taskID string) (*ingestion.Task, error)
}

type IngestionHandler struct {
	dispatcher IngestionDispatcher
	defaults   config.IngestionConfig
	logger     *slog.Logger
}

func NewIngestionHandler(d IngestionDispatcher, defaults config.IngestionConfig, logger *slog.Logger) *IngestionHandler {
	return &IngestionHandler{
		dispatcher: d,
		defaults:   defaults,
		logger:     logger.With("component", "IngestionHandler"),
	}
}

// StartIngestion
// @Summary Start spreadsheet ingestion
// @Description Queues a background run that loads customers and loans, then recalculates debts. Omitted files fall back to the configured defaults.
// @Tags Ingestion
// @Accept json
// @Produce json
// @Param request body dto.IngestRequest false "Spreadsheet paths"
// @Success 202 {object} dto.IngestTaskResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /ingest [post]
func (h *IngestionHandler) StartIngestion(w http.ResponseWriter, r *http.Request) {
	var req dto.IngestRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.WarnContext(r.Context(), "Failed to decode ingest request body", "error", err)
		RespondError(w, invalidBody(err))
		return
	}
	if req.CustomerFile == "" {
		req.CustomerFile = h.defaults.CustomerFile
	}
	if req.LoanFile == "" {
		req.LoanFile = h.defaults.LoanFile
	}

	task, err := h.dispatcher.Submit(r.Context(), req.CustomerFile, req.LoanFile)
	if err != nil {
		RespondError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, dto.NewIngestTaskResponse(task))
}

// GetIngestionTask
// @Summary Get ingestion task status
// @Tags Ingestion
// @Produce json
// @Param taskID path string true "Task ID"
// @Success 200 {object} dto.IngestTaskResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /ingest/{taskID} [get]
func (h *IngestionHandler) GetIngestionTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if taskID == "" {
		RespondError(w, apperrors.NewValidationError("task_id", "is required"))
		return
	}

	task, err := h.dispatcher.Status(r.Context(), taskID)
	if err != nil {
		RespondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewIngestTaskResponse(task))
}
