package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/estimator/internal/shared"
)

// Service implements tenant-scoped client CRUD.
type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs a client service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: shared.NewValidator(), now: time.Now}
}

// Create stores a client for ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, req SaveClientRequest) (*Client, error) {
	if err := s.check(&req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c := Client{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create client: %w: %w", shared.ErrPersistence, err)
	}
	return &c, nil
}

// Update replaces a client's contact fields.
func (s *Service) Update(ctx context.Context, ownerID, id string, req SaveClientRequest) (*Client, error) {
	if err := s.check(&req); err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	c.FirstName = req.FirstName
	c.LastName = req.LastName
	c.Email = req.Email
	c.Phone = req.Phone
	c.Address = req.Address
	c.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, *c); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return c, nil
}

// Get returns one client.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*Client, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// List returns a page of clients and the total count.
func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	return s.repo.List(ctx, req)
}

// Count returns how many clients the tenant has.
func (s *Service) Count(ctx context.Context, ownerID string) (int, error) {
	return s.repo.Count(ctx, ownerID)
}

// Delete removes a client that no document references.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	err := s.repo.Delete(ctx, ownerID, id)
	if errors.Is(err, ErrInUse) {
		return shared.NewValidationError("client_id", ErrInUse.Error())
	}
	return err
}

// Exists reports whether the tenant owns client id.
func (s *Service) Exists(ctx context.Context, ownerID, id string) (bool, error) {
	_, err := s.repo.Get(ctx, ownerID, id)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) check(req *SaveClientRequest) error {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = trimOptional(req.Phone)
	req.Address = trimOptional(req.Address)
	return shared.ValidateStruct(s.validate, *req)
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
