package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/estimator/internal/platform/cache"
	"github.com/odyssey-erp/estimator/internal/shared"
)

type memoryRepo struct {
	mu    sync.Mutex
	items map[Kind]map[string]Item
	lists atomic.Int32
	delay time.Duration
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[Kind]map[string]Item{KindService: {}, KindPart: {}}}
}

func (m *memoryRepo) List(ctx context.Context, kind Kind) ([]Item, error) {
	m.lists.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Item
	for _, it := range m.items[kind] {
		out = append(out, it)
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, kind Kind, id string) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[kind][id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", kind, id, shared.ErrNotFound)
	}
	return &it, nil
}

func (m *memoryRepo) Create(ctx context.Context, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.Kind][item.ID] = item
	return nil
}

func (m *memoryRepo) Update(ctx context.Context, item Item) error {
	return m.Create(ctx, item)
}

func (m *memoryRepo) Delete(ctx context.Context, kind Kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[kind][id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.items[kind], id)
	return nil
}

func newCachedService(t *testing.T, repo Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, cache.NewVersioned(client, "catalog", time.Minute), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSnapshotCachedAndInvalidatedOnWrite(t *testing.T) {
	repo := newMemoryRepo()
	svc := newCachedService(t, repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, KindService, SaveItemRequest{Name: "Logo Design", Price: 450})
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Services, 1)
	_, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, repo.lists.Load(), "second snapshot served from cache")

	cost := 3.5
	_, err = svc.Create(ctx, KindPart, SaveItemRequest{Name: "Cable", Price: 9, Cost: &cost})
	require.NoError(t, err)
	snap, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Parts, 1)
	require.Equal(t, 3.5, *snap.Parts[0].Cost)
	require.EqualValues(t, 4, repo.lists.Load())
}

func TestSnapshotCoalescesConcurrentLoads(t *testing.T) {
	repo := newMemoryRepo()
	repo.delay = 50 * time.Millisecond
	svc := NewService(repo, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Snapshot(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Less(t, repo.lists.Load(), int32(16))
}

func TestSnapshotSurvivesFirstCallerCancel(t *testing.T) {
	repo := newMemoryRepo()
	repo.delay = 50 * time.Millisecond
	svc := NewService(repo, nil, nil)

	first, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Snapshot(first)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestServiceIgnoresCostForServices(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	cost := 10.0
	item, err := svc.Create(context.Background(), KindService, SaveItemRequest{Name: "Audit", Price: 100, Cost: &cost})
	require.NoError(t, err)
	require.Nil(t, item.Cost)

	_, err = svc.Create(context.Background(), KindService, SaveItemRequest{Name: " ", Price: -1})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestMatchAll(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, KindService, SaveItemRequest{Name: "Web Design Consultation", Price: 120})
	require.NoError(t, err)

	matches, err := svc.MatchAll(ctx, []string{"<p>Web Design Consultation</p>", "custom work"})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.NotNil(t, matches[0])
	require.Equal(t, "Web Design Consultation", matches[0].Name)
	require.Nil(t, matches[1])
}

func TestHandlerCreateAndDraft(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Route("/api/catalog", h.MountRoutes)

	body, _ := json.Marshal(SaveItemRequest{Name: "Logo Design", Description: "<p>Three concepts</p>", Price: 450})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/catalog/services/", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/services/"+created.ID+"/draft", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var draft LineDraft
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &draft))
	require.Equal(t, LineDraft{Description: "<p>Three concepts</p>", Quantity: 1, Price: 450}, draft)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/widgets/", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/catalog/match", bytes.NewReader([]byte(`{"descriptions":["Three concepts"]}`))))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), created.ID)
}
