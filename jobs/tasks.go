package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/estimator/internal/messaging"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskEstimateMessage delivers an estimate notification to the host application.
	TaskEstimateMessage = "estimate:message"
)

// NewEstimateMessageTask constructs an Asynq task carrying payload.
func NewEstimateMessageTask(payload messaging.Payload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEstimateMessage, data), nil
}
