package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/estimator/internal/platform/cache"
	"github.com/odyssey-erp/estimator/internal/shared"
)

const snapshotKey = "snapshot"

// Service manages catalog entries and serves cached snapshots for matching.
type Service struct {
	repo     Repository
	cache    *cache.Versioned
	group    singleflight.Group
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a catalog service. A nil cache loads from the repository every time.
func NewService(repo Repository, c *cache.Versioned, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: c, validate: shared.NewValidator(), logger: logger, now: time.Now}
}

// List returns every item of kind.
func (s *Service) List(ctx context.Context, kind Kind) ([]Item, error) {
	if !kind.Valid() {
		return nil, shared.NewValidationError("kind", "unknown catalog kind")
	}
	return s.repo.List(ctx, kind)
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, kind Kind, id string) (*Item, error) {
	return s.repo.Get(ctx, kind, id)
}

// Create stores a new item.
func (s *Service) Create(ctx context.Context, kind Kind, req SaveItemRequest) (*Item, error) {
	if err := s.check(kind, &req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	item := Item{
		ID:          uuid.NewString(),
		Kind:        kind,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if kind == KindPart {
		item.Cost = req.Cost
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create %s: %w: %w", kind, shared.ErrPersistence, err)
	}
	s.invalidate(ctx)
	return &item, nil
}

// Update replaces an item's fields.
func (s *Service) Update(ctx context.Context, kind Kind, id string, req SaveItemRequest) (*Item, error) {
	if err := s.check(kind, &req); err != nil {
		return nil, err
	}
	item, err := s.repo.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	item.Name = req.Name
	item.Description = req.Description
	item.Price = req.Price
	item.ImageURL = req.ImageURL
	if kind == KindPart {
		item.Cost = req.Cost
	}
	item.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, *item); err != nil {
		return nil, fmt.Errorf("update %s: %w", kind, err)
	}
	s.invalidate(ctx)
	return item, nil
}

// Delete removes an item. Line items copied from it are unaffected.
func (s *Service) Delete(ctx context.Context, kind Kind, id string) error {
	if err := s.repo.Delete(ctx, kind, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Snapshot returns services and parts, served from cache when available.
// Concurrent cache misses share one repository load, which outlives any single
// caller's cancellation.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	key, err := s.cache.Key(ctx, snapshotKey)
	if err != nil {
		s.logger.Warn("catalog cache key", slog.Any("error", err))
		return s.load(ctx)
	}
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		var snap Snapshot
		err := s.cache.FetchJSON(loadCtx, key, &snap, func(ctx context.Context) (any, error) {
			return s.load(ctx)
		})
		return snap, err
	})
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot), nil
	}
}

// MatchAll resolves each description to a catalog entry. Unmatched entries are nil.
func (s *Service) MatchAll(ctx context.Context, descriptions []string) ([]*Item, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	items := snap.Items()
	out := make([]*Item, len(descriptions))
	for i, d := range descriptions {
		if item, ok := Match(d, items); ok {
			out[i] = &item
		}
	}
	return out, nil
}

// Draft builds the line item added when a user picks a catalog entry.
func (s *Service) Draft(ctx context.Context, kind Kind, id string) (LineDraft, error) {
	item, err := s.repo.Get(ctx, kind, id)
	if err != nil {
		return LineDraft{}, err
	}
	return DraftFromItem(*item), nil
}

func (s *Service) load(ctx context.Context) (Snapshot, error) {
	services, err := s.repo.List(ctx, KindService)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load services: %w", err)
	}
	parts, err := s.repo.List(ctx, KindPart)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load parts: %w", err)
	}
	return Snapshot{Services: services, Parts: parts}, nil
}

func (s *Service) check(kind Kind, req *SaveItemRequest) error {
	if !kind.Valid() {
		return shared.NewValidationError("kind", "unknown catalog kind")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.ImageURL != nil && strings.TrimSpace(*req.ImageURL) == "" {
		req.ImageURL = nil
	}
	return shared.ValidateStruct(s.validate, *req)
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("catalog cache bump", slog.Any("error", err))
	}
}
