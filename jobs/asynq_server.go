package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/estimator/internal/messaging"
	"github.com/odyssey-erp/estimator/internal/shared"
)

// MessageRetention keeps finished deliveries inspectable by the caller.
const MessageRetention = 24 * time.Hour

// Worker wraps the Asynq server.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// TaskHandler allows injecting Asynq handlers during worker setup.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      *slog.Logger
	Concurrency int
	Handlers    []TaskHandler
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if len(cfg.Handlers) == 0 {
		return nil, errors.New("worker: no task handlers registered")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}
	return &Worker{server: srv, mux: mux, logger: cfg.Logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// TaskInspector reads a single task.
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

// Client submits jobs to the queue and reads their outcome.
type Client struct {
	client    *asynq.Client
	inspector TaskInspector
}

// NewClient constructs an Asynq client. inspector may be nil when task
// status is not needed.
func NewClient(redisOpts asynq.RedisClientOpt, inspector TaskInspector) (*Client, error) {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client, inspector: inspector}, nil
}

func messageTaskID(estimateID string) string {
	return messageTaskPrefix(estimateID) + uuid.NewString()
}

func messageTaskPrefix(estimateID string) string {
	return "estimate-message:" + estimateID + ":"
}

// EnqueueEstimateMessage queues payload for a single delivery attempt and
// returns the task id. Failed deliveries are archived, never retried.
func (c *Client) EnqueueEstimateMessage(ctx context.Context, estimateID string, payload messaging.Payload) (string, error) {
	task, err := NewEstimateMessageTask(payload)
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.TaskID(messageTaskID(estimateID)),
		asynq.MaxRetry(0),
		asynq.Retention(MessageRetention),
	)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// MessageStatus reports a delivery queued for estimateID.
func (c *Client) MessageStatus(_ context.Context, estimateID, taskID string) (messaging.TaskStatus, error) {
	if c.inspector == nil || !strings.HasPrefix(taskID, messageTaskPrefix(estimateID)) {
		return messaging.TaskStatus{}, fmt.Errorf("message task %s: %w", taskID, shared.ErrNotFound)
	}
	info, err := c.inspector.GetTaskInfo(QueueDefault, taskID)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return messaging.TaskStatus{}, fmt.Errorf("message task %s: %w", taskID, shared.ErrNotFound)
	}
	if err != nil {
		return messaging.TaskStatus{}, fmt.Errorf("inspect message task: %w", err)
	}
	return taskStatus(info), nil
}

func taskStatus(info *asynq.TaskInfo) messaging.TaskStatus {
	status := messaging.TaskStatus{TaskID: info.ID, State: messaging.StateQueued}
	switch info.State {
	case asynq.TaskStateCompleted:
		status.State = messaging.StateDelivered
		if !info.CompletedAt.IsZero() {
			completed := info.CompletedAt.UTC()
			status.CompletedAt = &completed
		}
		if len(info.Result) > 0 {
			_ = json.Unmarshal(info.Result, &status.Response)
		}
	case asynq.TaskStateArchived:
		status.State = messaging.StateFailed
		status.Error = info.LastErr
	case asynq.TaskStateActive:
		status.State = messaging.StateActive
	}
	return status
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

// QueueInspector reports queue depth.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Handler exposes HTTP endpoints for job observability.
type Handler struct {
	inspector QueueInspector
	logger    *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints.
func NewHandler(inspector QueueInspector, logger *slog.Logger) *Handler {
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

type queueHealth struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
	Processed int    `json:"processed_today"`
	Failed    int    `json:"failed_today"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	health := queueHealth{Queue: QueueDefault}
	if h.inspector != nil {
		info, err := h.inspector.GetQueueInfo(QueueDefault)
		if err != nil {
			h.logger.Warn("jobs health", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		if info != nil {
			health = queueHealth{
				Queue:     info.Queue,
				Pending:   info.Pending,
				Active:    info.Active,
				Retry:     info.Retry,
				Archived:  info.Archived,
				Processed: info.Processed,
				Failed:    info.Failed,
			}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health)
}
