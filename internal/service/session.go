package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/kiwari-pos/bar/internal/catalog"
	"github.com/kiwari-pos/bar/internal/enum"
	"github.com/kiwari-pos/bar/internal/ledger"
	"github.com/shopspring/decimal"
)

// customPrefix is prepended to the description of custom items.
const customPrefix = "Other: "

// Errors returned by the order session.
var (
	ErrInvalidInput        = errors.New("description and a price > 0 are required")
	ErrNoCustomItemPending = errors.New("no custom item pending")
	ErrIndexOutOfRange     = errors.New("item index out of range")
	ErrEmptyOrder          = errors.New("order has no items")
	ErrPersistenceFailure  = errors.New("failed to persist sale")
	ErrLedgerUnavailable   = errors.New("ledger unavailable")
)

// PersistenceError reports a submit that stopped at the first failing append.
// Items before the failure are in the ledger; the rest remain in the order.
type PersistenceError struct {
	Submitted int
	Total     int
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%v: submitted %d of %d items: %v", ErrPersistenceFailure, e.Submitted, e.Total, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistenceFailure }

// LineItem is one priced entry in the open order.
type LineItem struct {
	Description string
	Price       decimal.Decimal
}

// SubmitResult describes a fully persisted order.
type SubmitResult struct {
	Records []ledger.SaleRecord
	Total   decimal.Decimal
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source used to stamp sale records.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithID sets the session identifier instead of generating one.
func WithID(id uuid.UUID) Option {
	return func(s *Session) { s.id = id }
}

// Session is one terminal's order-entry state: the open order, the custom
// item state machine, and the in-memory view of the ledger.
//
// Each user action runs to completion under the session lock, so concurrent
// requests against one session are serialized. Store is the only resource
// shared between sessions.
type Session struct {
	mu      sync.Mutex
	id      uuid.UUID
	catalog *catalog.Catalog
	store   ledger.Store
	now     func() time.Time

	state  string
	order  []LineItem
	ledger []ledger.SaleRecord
}

// NewSession creates an idle session with an empty order and ledger.
// Call LoadLedger to seed the ledger from the store.
func NewSession(cat *catalog.Catalog, store ledger.Store, opts ...Option) *Session {
	s := &Session{
		id:      uuid.New(),
		catalog: cat,
		store:   store,
		now:     time.Now,
		state:   enum.SessionStateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Catalog returns the menu the session validates against.
func (s *Session) Catalog() *catalog.Catalog { return s.catalog }

// LoadLedger replaces the in-memory ledger with the store contents.
// On failure the ledger is left empty and an error wrapping
// ErrLedgerUnavailable is returned; the session remains usable.
func (s *Session) LoadLedger(ctx context.Context) error {
	records, err := s.store.LoadAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.ledger = nil
		return fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}
	s.ledger = records
	return nil
}

// State returns the custom-input state (enum.SessionState*).
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AddItem adds the named catalog entry to the order. Selecting the custom
// entry adds nothing and moves the session to AwaitingCustomInput; the
// returned item is nil in that case.
func (s *Session) AddItem(name string) (*LineItem, error) {
	price, err := s.catalog.PriceOf(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if price.Custom {
		s.state = enum.SessionStateAwaitingCustomInput
		return nil, nil
	}
	if !price.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: %q has no price", ErrInvalidInput, name)
	}
	item := LineItem{Description: name, Price: price.Amount}
	s.order = append(s.order, item)
	return &item, nil
}

// AddCustomItem confirms the pending custom item. The price is rounded to
// cents before validation. On error the order and state are unchanged.
func (s *Session) AddCustomItem(description string, price decimal.Decimal) (LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != enum.SessionStateAwaitingCustomInput {
		return LineItem{}, ErrNoCustomItemPending
	}

	description = strings.TrimSpace(description)
	price = price.Round(2)
	if description == "" || hasControl(description) || !price.IsPositive() {
		return LineItem{}, ErrInvalidInput
	}

	item := LineItem{Description: customPrefix + description, Price: price}
	s.order = append(s.order, item)
	s.state = enum.SessionStateIdle
	return item, nil
}

// hasControl reports whether s contains line breaks, tabs or other control
// characters. Such descriptions do not survive the CSV export unchanged.
func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// CancelCustomItem abandons the pending custom item, if any.
func (s *Session) CancelCustomItem() {
	s.mu.Lock()
	s.state = enum.SessionStateIdle
	s.mu.Unlock()
}

// RemoveItem deletes the item at index, keeping the order of the rest.
func (s *Session) RemoveItem(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.order) {
		return fmt.Errorf("%w: %d (order has %d items)", ErrIndexOutOfRange, index, len(s.order))
	}
	s.order = append(s.order[:index], s.order[index+1:]...)
	return nil
}

// Items returns a copy of the open order.
func (s *Session) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LineItem, len(s.order))
	copy(out, s.order)
	return out
}

// CurrentTotal returns the sum of the open order; zero when empty.
func (s *Session) CurrentTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sumItems(s.order)
}

// SubmitOrder persists every item of the open order, in order, stamped with
// one submission timestamp. Each record joins the in-memory ledger only after
// the store accepted it. The first failing append stops the batch and returns
// a *PersistenceError; persisted items leave the order, the rest stay for a
// retry. Retrying after a failure may write duplicates if the store had in
// fact applied the failed append.
func (s *Session) SubmitOrder(ctx context.Context) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) == 0 {
		return nil, ErrEmptyOrder
	}

	ts := s.now()
	total := len(s.order)
	records := make([]ledger.SaleRecord, 0, total)
	for i, item := range s.order {
		rec := ledger.SaleRecord{
			Timestamp:   ts,
			Description: item.Description,
			Price:       item.Price,
		}
		if err := s.store.Append(ctx, rec); err != nil {
			s.order = append([]LineItem(nil), s.order[i:]...)
			return &SubmitResult{Records: records, Total: sumRecords(records)},
				&PersistenceError{Submitted: i, Total: total, Err: err}
		}
		s.ledger = append(s.ledger, rec)
		records = append(records, rec)
	}

	s.order = nil
	return &SubmitResult{Records: records, Total: sumRecords(records)}, nil
}

// Ledger returns a snapshot of the in-memory ledger.
func (s *Session) Ledger() []ledger.SaleRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.SaleRecord, len(s.ledger))
	copy(out, s.ledger)
	return out
}

func sumItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price)
	}
	return total
}

func sumRecords(records []ledger.SaleRecord) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range records {
		total = total.Add(rec.Price)
	}
	return total
}
