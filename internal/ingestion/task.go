package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/event"
	"credit-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type TaskState string

const (
	TaskPending TaskState = "PENDING"
	TaskStarted TaskState = "STARTED"
	TaskSuccess TaskState = "SUCCESS"
	TaskFailure TaskState = "FAILURE"

	taskKeyPrefix = "ingestion:task:"
)

var ErrTaskNotFound = fmt.Errorf("ingestion task %w", apperrors.ErrNotFound)

type Task struct {
	TaskID       string    `json:"taskId"`
	State        TaskState `json:"state"`
	Result       string    `json:"result,omitempty"`
	CustomerFile string    `json:"customerFile"`
	LoanFile     string    `json:"loanFile"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type TaskStore interface {
	Save(ctx context.Context, task *Task) error
	Get(ctx context.Context, taskID string) (*Task, error)
}

// redisKV is the subset of redis.Cmdable the task store needs.
type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type RedisTaskStore struct {
	client redisKV
	ttl    time.Duration
}

var _ TaskStore = (*RedisTaskStore)(nil)

func NewRedisTaskStore(client redisKV, ttl time.Duration) *RedisTaskStore {
	if client == nil {
		panic("redis client cannot be nil for RedisTaskStore")
	}
	return &RedisTaskStore{client: client, ttl: ttl}
}

func (s *RedisTaskStore) Save(ctx context.Context, task *Task) error {
	task.UpdatedAt = time.Now().UTC()
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task %s: %w", task.TaskID, err)
	}
	if err := s.client.Set(ctx, taskKeyPrefix+task.TaskID, body, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store task %s: %w", task.TaskID, err)
	}
	return nil
}

func (s *RedisTaskStore) Get(ctx context.Context, taskID string) (*Task, error) {
	body, err := s.client.Get(ctx, taskKeyPrefix+taskID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load task %s: %w", taskID, err)
	}
	var task Task
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, fmt.Errorf("failed to decode task %s: %w", taskID, err)
	}
	return &task, nil
}

// Dispatcher queues ingestion runs for the background consumer.
type Dispatcher struct {
	pub    event.EventPublisher
	store  TaskStore
	logger *slog.Logger
}

func NewDispatcher(pub event.EventPublisher, store TaskStore, logger *slog.Logger) *Dispatcher {
	if pub == nil || store == nil {
		panic("ingestion dispatcher requires a publisher and a task store")
	}
	return &Dispatcher{
		pub:    pub,
		store:  store,
		logger: logger.With(slog.String("component", "ingestionDispatcher")),
	}
}

func (d *Dispatcher) Submit(ctx context.Context, customerFile, loanFile string) (*Task, error) {
	if customerFile == "" {
		return nil, apperrors.NewValidationError("customer_file", "is required")
	}
	if loanFile == "" {
		return nil, apperrors.NewValidationError("loan_file", "is required")
	}

	task := &Task{
		TaskID:       uuid.NewString(),
		State:        TaskPending,
		CustomerFile: customerFile,
		LoanFile:     loanFile,
	}
	logCtx := d.logger.With(slog.String("taskID", task.TaskID))

	if err := d.store.Save(ctx, task); err != nil {
		logCtx.ErrorContext(ctx, "Failed to record ingestion task", slog.Any("error", err))
		return nil, err
	}

	evt := event.IngestionRequestedEvent{
		TaskID:       task.TaskID,
		CustomerFile: customerFile,
		LoanFile:     loanFile,
		Timestamp:    time.Now(),
	}
	if err := d.pub.PublishIngestionRequested(ctx, evt); err != nil {
		logCtx.ErrorContext(ctx, "Failed to dispatch ingestion task", slog.Any("error", err))
		task.State = TaskFailure
		task.Result = fmt.Sprintf(statusFailedFmt, err)
		if saveErr := d.store.Save(ctx, task); saveErr != nil {
			logCtx.ErrorContext(ctx, "Failed to record dispatch failure", slog.Any("error", saveErr))
		}
		return nil, fmt.Errorf("%w: could not dispatch task: %w", apperrors.ErrIngestion, err)
	}

	logCtx.InfoContext(ctx, "Ingestion task dispatched")
	return task, nil
}

func (d *Dispatcher) Status(ctx context.Context, taskID string) (*Task, error) {
	return d.store.Get(ctx, taskID)
}
