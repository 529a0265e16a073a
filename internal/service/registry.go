package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/kiwari-pos/bar/internal/catalog"
	"github.com/kiwari-pos/bar/internal/ledger"
)

// ErrSessionNotFound is returned when no session has the requested ID.
var ErrSessionNotFound = errors.New("session not found")

// Registry owns the open sessions of one process. Every session shares the
// catalog and the ledger store but has its own order and ledger view.
type Registry struct {
	catalog *catalog.Catalog
	store   ledger.Store
	opts    []Option

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates an empty Registry. opts are applied to every session.
func NewRegistry(cat *catalog.Catalog, store ledger.Store, opts ...Option) *Registry {
	return &Registry{
		catalog:  cat,
		store:    store,
		opts:     opts,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create opens a new session and seeds its ledger from the store. The session
// is registered even when the load fails; the error then wraps
// ErrLedgerUnavailable and should be shown as a warning.
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	s := NewSession(r.catalog, r.store, r.opts...)
	loadErr := s.LoadLedger(ctx)

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	return s, loadErr
}

// Get returns the session with the given ID.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete closes the session. Its unsubmitted order is discarded.
func (r *Registry) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Store returns the shared ledger store.
func (r *Registry) Store() ledger.Store { return r.store }

// Catalog returns the shared menu.
func (r *Registry) Catalog() *catalog.Catalog { return r.catalog }
