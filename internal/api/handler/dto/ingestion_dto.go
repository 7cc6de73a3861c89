package dto

import (
	"time"

	"credit-engine/internal/ingestion"
)

type IngestRequest struct {
	CustomerFile string `json:"customer_file"`
	LoanFile     string `json:"loan_file"`
}

type IngestTaskResponse struct {
	TaskID    string    `json:"task_id"`
	Status    string    `json:"status"`
	Result    string    `json:"result,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewIngestTaskResponse(t *ingestion.Task) IngestTaskResponse {
	return IngestTaskResponse{
		TaskID:    t.TaskID,
		Status:    string(t.State),
		Result:    t.Result,
		UpdatedAt: t.UpdatedAt,
	}
}
