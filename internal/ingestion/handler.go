package ingestion

import (
	"context"
	"encoding/json"
	"log/slog"

	"credit-engine/internal/event"

	amqp "github.com/rabbitmq/amqp091-go"
)

// TaskHandler runs ingestion tasks delivered over RabbitMQ and records their outcome.
type TaskHandler struct {
	runner Runner
	store  TaskStore
	logger *slog.Logger
}

func NewTaskHandler(runner Runner, store TaskStore, logger *slog.Logger) *TaskHandler {
	if runner == nil || store == nil {
		panic("ingestion task handler requires a runner and a task store")
	}
	return &TaskHandler{
		runner: runner,
		store:  store,
		logger: logger.With("component", "IngestionTaskHandler"),
	}
}

func (h *TaskHandler) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	logCtx := h.logger.With(slog.Uint64("deliveryTag", d.DeliveryTag), slog.String("routingKey", d.RoutingKey))

	if d.RoutingKey != event.RoutingKeyIngestionRequested {
		logCtx.WarnContext(ctx, "Received message with unknown routing key. Discarding.")
		_ = d.Reject(false)
		return
	}

	var req event.IngestionRequestedEvent
	if err := json.Unmarshal(d.Body, &req); err != nil || req.TaskID == "" {
		logCtx.ErrorContext(ctx, "Failed to unmarshal IngestionRequestedEvent", "error", err, "body", string(d.Body))
		_ = d.Nack(false, false)
		return
	}
	logCtx = logCtx.With(slog.String("taskID", req.TaskID))

	task := &Task{
		TaskID:       req.TaskID,
		State:        TaskStarted,
		CustomerFile: req.CustomerFile,
		LoanFile:     req.LoanFile,
	}
	if err := h.store.Save(ctx, task); err != nil {
		logCtx.WarnContext(ctx, "Failed to mark task as started", "error", err)
	}

	logCtx.InfoContext(ctx, "Running ingestion task")
	status, err := h.runner.Run(ctx, req.CustomerFile, req.LoanFile)
	task.Result = status
	task.State = TaskSuccess
	if err != nil {
		task.State = TaskFailure
	}

	if err := h.store.Save(ctx, task); err != nil {
		logCtx.ErrorContext(ctx, "Failed to record task result", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := d.Ack(false); err != nil {
		logCtx.ErrorContext(ctx, "Failed to acknowledge message after processing", "error", err)
		return
	}
	logCtx.InfoContext(ctx, "Ingestion task completed", slog.String("state", string(task.State)))
}
