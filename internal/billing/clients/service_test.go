package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/estimator/internal/shared"
)

type memoryRepo struct {
	clients map[string]Client
	inUse   map[string]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{clients: make(map[string]Client), inUse: make(map[string]bool)}
}

func (m *memoryRepo) Get(ctx context.Context, ownerID, id string) (*Client, error) {
	c, ok := m.clients[id]
	if !ok || c.OwnerID != ownerID {
		return nil, fmt.Errorf("client %s: %w", id, shared.ErrNotFound)
	}
	return &c, nil
}

func (m *memoryRepo) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	var out []Client
	for _, c := range m.clients {
		if c.OwnerID == req.OwnerID {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) Count(ctx context.Context, ownerID string) (int, error) {
	_, n, err := m.List(ctx, ListClientsRequest{OwnerID: ownerID})
	return n, err
}

func (m *memoryRepo) Create(ctx context.Context, c Client) error {
	m.clients[c.ID] = c
	return nil
}

func (m *memoryRepo) Update(ctx context.Context, c Client) error {
	m.clients[c.ID] = c
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, ownerID, id string) error {
	if m.inUse[id] {
		return ErrInUse
	}
	if _, err := m.Get(ctx, ownerID, id); err != nil {
		return err
	}
	delete(m.clients, id)
	return nil
}

func TestCreateClientValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, err := svc.Create(context.Background(), "u1", SaveClientRequest{FirstName: " ", LastName: "Doe", Email: "not-an-email"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "first_name")
	require.Contains(t, verr.Fields, "email")
}

func TestClientsAreTenantScoped(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	phone := "  "
	c, err := svc.Create(ctx, "u1", SaveClientRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: &phone})
	require.NoError(t, err)
	require.Nil(t, c.Phone)
	require.Equal(t, "Ada Lovelace", c.FullName())

	_, err = svc.Get(ctx, "u2", c.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	ok, err := svc.Exists(ctx, "u1", c.ID)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = svc.Exists(ctx, "u2", c.ID)
	require.NoError(t, err)
	require.False(t, ok)

	n, err := svc.Count(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestDeleteReferencedClient(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	c, err := svc.Create(ctx, "u1", SaveClientRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)

	repo.inUse[c.ID] = true
	require.ErrorIs(t, svc.Delete(ctx, "u1", c.ID), shared.ErrValidation)

	repo.inUse[c.ID] = false
	require.NoError(t, svc.Delete(ctx, "u1", c.ID))
	require.ErrorIs(t, svc.Delete(ctx, "u1", c.ID), shared.ErrNotFound)
}

func TestHandlerRequiresIdentity(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(newMemoryRepo()))
	r := chi.NewRouter()
	r.Route("/api/clients", h.MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clients/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	body, _ := json.Marshal(SaveClientRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/api/clients/", bytes.NewReader(body))
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), shared.Identity{UserID: "u1"}))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/clients/", nil)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), shared.Identity{UserID: "u1"}))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ada@example.com")
}
