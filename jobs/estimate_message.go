package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/estimator/internal/jobs"
	"github.com/odyssey-erp/estimator/internal/messaging"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// EstimateMessageJob delivers queued estimate notifications.
type EstimateMessageJob struct {
	Sender  messaging.Sender
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewEstimateMessageJob wires dependencies for the delivery handler.
func NewEstimateMessageJob(sender messaging.Sender, logger *slog.Logger, metrics *jobmetrics.Metrics) *EstimateMessageJob {
	return &EstimateMessageJob{Sender: sender, Logger: logger, Metrics: metrics}
}

// Handle posts the task payload once. Failures are archived with the host's
// answer for the caller to read; nothing is retried automatically.
func (j *EstimateMessageJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Sender == nil {
		return errors.New("estimate message: handler not configured")
	}
	var payload messaging.Payload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskEstimateMessage)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.String("page_id", payload.PageID),
		slog.String("recipient_type", payload.RecipientType),
	)

	resp, err := j.Sender.Post(ctx, payload)
	var delivery *messaging.DeliveryError
	switch {
	case err == nil:
		j.metrics().ObserveDelivery(payload.RecipientType, http.StatusOK)
		logger.Info("estimate message delivered")
		j.writeResult(t, resp, logger)
		return nil
	case errors.As(err, &delivery):
		j.metrics().ObserveDelivery(payload.RecipientType, delivery.Status)
		logger.Error("estimate message rejected", slog.Int("status", delivery.Status), slog.Any("error", err))
	default:
		j.metrics().ObserveDelivery(payload.RecipientType, 0)
		logger.Warn("estimate message delivery failed", slog.Any("error", err))
	}
	return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
}

func (j *EstimateMessageJob) writeResult(t *asynq.Task, resp map[string]any, logger *slog.Logger) {
	w := t.ResultWriter()
	if w == nil || resp == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err == nil {
		_, err = w.Write(data)
	}
	if err != nil {
		logger.Warn("estimate message result not stored", slog.Any("error", err))
	}
}

func (j *EstimateMessageJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskEstimateMessage))
	}
	return slog.Default().With(slog.String("job", TaskEstimateMessage))
}

func (j *EstimateMessageJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
