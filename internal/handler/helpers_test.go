package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/bar/internal/catalog"
	"github.com/kiwari-pos/bar/internal/handler"
	"github.com/kiwari-pos/bar/internal/ledger"
	"github.com/kiwari-pos/bar/internal/middleware"
	"github.com/kiwari-pos/bar/internal/service"
	"github.com/kiwari-pos/bar/internal/ws"
)

var fixedNow = time.Date(2024, 3, 1, 21, 15, 0, 0, time.UTC)

// --- Mock ledger store ---

type mockStore struct {
	mu        sync.Mutex
	loadAllFn func(ctx context.Context) ([]ledger.SaleRecord, error)
	appendFn  func(ctx context.Context, rec ledger.SaleRecord) error
	appended  []ledger.SaleRecord
}

func (m *mockStore) LoadAll(ctx context.Context) ([]ledger.SaleRecord, error) {
	if m.loadAllFn != nil {
		return m.loadAllFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) Append(ctx context.Context, rec ledger.SaleRecord) error {
	if m.appendFn != nil {
		if err := m.appendFn(ctx, rec); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.appended = append(m.appended, rec)
	m.mu.Unlock()
	return nil
}

// --- Mock broadcaster ---

type mockBroadcaster struct {
	mu     sync.Mutex
	events []ws.Event
}

func (m *mockBroadcaster) Broadcast(event ws.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *mockBroadcaster) Events() []ws.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ws.Event(nil), m.events...)
}

// --- Setup helpers ---

func newTestRegistry(store ledger.Store) *service.Registry {
	return service.NewRegistry(catalog.Default(), store, service.WithClock(func() time.Time { return fixedNow }))
}

func setupRouter(reg *service.Registry, events *mockBroadcaster) *chi.Mux {
	sessions := handler.NewSessionHandler(reg, events, time.UTC)
	reports := handler.NewReportsHandler(reg.Store(), time.UTC)

	r := chi.NewRouter()
	handler.NewCatalogHandler(reg.Catalog()).RegisterRoutes(r)
	r.Route("/reports", reports.RegisterRoutes)
	r.Route("/sessions", func(r chi.Router) {
		sessions.RegisterRoutes(r)
		r.Route("/{sid}", func(r chi.Router) {
			r.Use(middleware.RequireSession(reg))
			sessions.RegisterSessionRoutes(r)
			r.Route("/reports", reports.RegisterRoutes)
		})
	})
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
}
