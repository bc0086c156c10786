package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/estimator/internal/billing/documents"
	"github.com/odyssey-erp/estimator/internal/shared"
)

// EstimateGetter loads an owner's estimate.
type EstimateGetter interface {
	GetEstimate(ctx context.Context, ownerID, id string) (*documents.Estimate, error)
}

// Sender posts a payload to the host messaging API.
type Sender interface {
	Post(ctx context.Context, payload Payload) (map[string]any, error)
}

// Queue schedules deliveries and reports their outcome.
type Queue interface {
	EnqueueEstimateMessage(ctx context.Context, estimateID string, payload Payload) (string, error)
	MessageStatus(ctx context.Context, estimateID, taskID string) (TaskStatus, error)
}

// Delivery outcomes reported to callers.
const (
	StateDelivered = "delivered"
	StateQueued    = "queued"
	StateActive    = "active"
	StateFailed    = "failed"
)

// Result reports a message that was posted or accepted for later delivery.
type Result struct {
	State    string         `json:"state"`
	TaskID   string         `json:"task_id,omitempty"`
	Payload  Payload        `json:"payload"`
	Response map[string]any `json:"response,omitempty"`
}

// TaskStatus is the observed state of a queued delivery. Error carries the
// host's rejection once State is failed.
type TaskStatus struct {
	TaskID      string         `json:"task_id"`
	State       string         `json:"state"`
	Error       string         `json:"error,omitempty"`
	Response    map[string]any `json:"response,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// Service builds estimate notifications and posts or queues them.
type Service struct {
	estimates EstimateGetter
	sender    Sender
	queue     Queue
	tag       language.Tag
	validate  *validator.Validate
}

// NewService constructs the messaging service. sender or queue may be nil
// when that delivery mode is not configured.
func NewService(estimates EstimateGetter, sender Sender, queue Queue) *Service {
	return &Service{
		estimates: estimates,
		sender:    sender,
		queue:     queue,
		tag:       language.AmericanEnglish,
		validate:  shared.NewValidator(),
	}
}

// SendEstimate posts a notification about estimateID on behalf of id. A host
// rejection is returned as ErrMessageDelivery. With in.Async the payload is
// queued instead and its outcome read through MessageStatus.
func (s *Service) SendEstimate(ctx context.Context, id shared.Identity, estimateID string, in Input) (Result, error) {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Result{}, err
	}
	estimate, err := s.estimates.GetEstimate(ctx, id.OwnerID(), estimateID)
	if err != nil {
		return Result{}, err
	}
	if in.Message == "" {
		in.Message = DefaultMessage(s.tag, estimate.Number, estimate.Total)
	}
	if in.Subject == "" {
		in.Subject = DefaultSubject(estimate.Number)
	}
	payload, err := BuildPayload(id, in)
	if err != nil {
		return Result{}, err
	}

	if in.Async {
		if s.queue == nil {
			return Result{}, shared.NewValidationError("async", "Queued delivery is not configured.")
		}
		taskID, err := s.queue.EnqueueEstimateMessage(ctx, estimate.ID, payload)
		if err != nil {
			return Result{}, fmt.Errorf("enqueue estimate message: %w", err)
		}
		return Result{State: StateQueued, TaskID: taskID, Payload: payload}, nil
	}

	if s.sender == nil {
		return Result{}, fmt.Errorf("%w: host messaging API is not configured", shared.ErrMessageDelivery)
	}
	resp, err := s.sender.Post(ctx, payload)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", shared.ErrMessageDelivery, err)
	}
	return Result{State: StateDelivered, Payload: payload, Response: resp}, nil
}

// MessageStatus reports a queued delivery for one of id's estimates.
func (s *Service) MessageStatus(ctx context.Context, id shared.Identity, estimateID, taskID string) (TaskStatus, error) {
	if s.queue == nil {
		return TaskStatus{}, shared.ErrNotFound
	}
	if _, err := s.estimates.GetEstimate(ctx, id.OwnerID(), estimateID); err != nil {
		return TaskStatus{}, err
	}
	return s.queue.MessageStatus(ctx, estimateID, taskID)
}
