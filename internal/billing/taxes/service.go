package taxes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/estimator/internal/shared"
)

// Service manages the global tax table.
type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs a tax service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: shared.NewValidator(), now: time.Now}
}

// List returns every tax.
func (s *Service) List(ctx context.Context) ([]Tax, error) {
	taxes, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list taxes: %w", err)
	}
	return taxes, nil
}

// Get returns one tax.
func (s *Service) Get(ctx context.Context, id string) (*Tax, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a tax, converting the percentage to a fraction.
func (s *Service) Create(ctx context.Context, req SaveTaxRequest) (*Tax, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := shared.ValidateStruct(s.validate, req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	t := Tax{ID: uuid.NewString(), Name: req.Name, Rate: PercentToRate(req.RatePercent), CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create tax: %w: %w", shared.ErrPersistence, err)
	}
	return &t, nil
}

// Update replaces name and rate.
func (s *Service) Update(ctx context.Context, id string, req SaveTaxRequest) (*Tax, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := shared.ValidateStruct(s.validate, req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Name = req.Name
	existing.Rate = PercentToRate(req.RatePercent)
	existing.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, *existing); err != nil {
		return nil, fmt.Errorf("update tax: %w", err)
	}
	return existing, nil
}

// Delete removes a tax. Documents keep their stored totals.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
