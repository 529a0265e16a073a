package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/kiwari-pos/bar/internal/catalog"
	"github.com/kiwari-pos/bar/internal/enum"
	"github.com/kiwari-pos/bar/internal/ledger"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockStore implements ledger.Store with configurable behavior.
type mockStore struct {
	loadAllFn func(ctx context.Context) ([]ledger.SaleRecord, error)
	appendFn  func(ctx context.Context, rec ledger.SaleRecord) error
	appended  []ledger.SaleRecord
}

func (m *mockStore) LoadAll(ctx context.Context) ([]ledger.SaleRecord, error) {
	if m.loadAllFn == nil {
		return nil, nil
	}
	return m.loadAllFn(ctx)
}

func (m *mockStore) Append(ctx context.Context, rec ledger.SaleRecord) error {
	if m.appendFn != nil {
		if err := m.appendFn(ctx, rec); err != nil {
			return err
		}
	}
	m.appended = append(m.appended, rec)
	return nil
}

// failOnCall returns an appendFn that fails the n-th call (1-based).
func failOnCall(n int, err error) func(ctx context.Context, rec ledger.SaleRecord) error {
	calls := 0
	return func(ctx context.Context, rec ledger.SaleRecord) error {
		calls++
		if calls == n {
			return err
		}
		return nil
	}
}

// --- Test helpers ---

var fixedNow = time.Date(2026, 3, 14, 21, 5, 9, 0, time.UTC)

func testCatalog() *catalog.Catalog {
	return catalog.MustNew([]catalog.Entry{
		catalog.Fixed("Beer", "3.50"),
		catalog.Fixed("Wine", "8.00"),
		catalog.Custom("Other"),
	})
}

func newTestSession(store *mockStore) *Session {
	return NewSession(testCatalog(), store, WithClock(func() time.Time { return fixedNow }))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustAdd(t *testing.T, s *Session, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := s.AddItem(name); err != nil {
			t.Fatalf("add %q: %v", name, err)
		}
	}
}

func descriptions(items []LineItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Description
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Tests ---

func TestAddAndRemoveItems(t *testing.T) {
	s := newTestSession(&mockStore{})

	mustAdd(t, s, "Beer", "Beer", "Wine")
	if got := s.CurrentTotal(); !got.Equal(dec("15.00")) {
		t.Errorf("total: got %s, want 15.00", got)
	}

	if err := s.RemoveItem(1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := s.CurrentTotal(); !got.Equal(dec("11.50")) {
		t.Errorf("total after remove: got %s, want 11.50", got)
	}
	if got := descriptions(s.Items()); !equalStrings(got, []string{"Beer", "Wine"}) {
		t.Errorf("items: got %v, want [Beer Wine]", got)
	}
}

func TestAddItemUnknownEntry(t *testing.T) {
	s := newTestSession(&mockStore{})

	item, err := s.AddItem("Whisky")
	if !errors.Is(err, catalog.ErrUnknownEntry) {
		t.Errorf("got %v, want ErrUnknownEntry", err)
	}
	if item != nil {
		t.Error("expected no item")
	}
	if len(s.Items()) != 0 {
		t.Error("order should be unchanged")
	}
}

func TestCurrentTotalEmpty(t *testing.T) {
	s := newTestSession(&mockStore{})
	if !s.CurrentTotal().IsZero() {
		t.Errorf("got %s, want 0", s.CurrentTotal())
	}
}

func TestCurrentTotalNoDrift(t *testing.T) {
	cat := catalog.MustNew([]catalog.Entry{catalog.Fixed("Shot", "0.10")})
	s := NewSession(cat, &mockStore{})

	for i := 0; i < 1000; i++ {
		mustAdd(t, s, "Shot")
	}
	if got := s.CurrentTotal().StringFixed(2); got != "100.00" {
		t.Errorf("got %s, want 100.00", got)
	}
}

func TestCurrentTotalMatchesRemainingItems(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := newTestSession(&mockStore{})
	prices := map[string]decimal.Decimal{"Beer": dec("3.50"), "Wine": dec("8.00")}
	names := []string{"Beer", "Wine"}

	for step := 0; step < 500; step++ {
		n := len(s.Items())
		if n > 0 && rng.Intn(3) == 0 {
			if err := s.RemoveItem(rng.Intn(n)); err != nil {
				t.Fatalf("step %d: remove: %v", step, err)
			}
		} else {
			mustAdd(t, s, names[rng.Intn(len(names))])
		}

		want := decimal.Zero
		for _, item := range s.Items() {
			if !item.Price.Equal(prices[item.Description]) {
				t.Fatalf("step %d: %s priced %s, want catalog price %s", step, item.Description, item.Price, prices[item.Description])
			}
			want = want.Add(prices[item.Description])
		}
		if !s.CurrentTotal().Equal(want) {
			t.Fatalf("step %d: total %s, want %s", step, s.CurrentTotal(), want)
		}
	}
}

func TestRemoveItemOutOfRange(t *testing.T) {
	s := newTestSession(&mockStore{})
	mustAdd(t, s, "Beer")

	for _, idx := range []int{-1, 1, 5} {
		if err := s.RemoveItem(idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("index %d: got %v, want ErrIndexOutOfRange", idx, err)
		}
	}
	if len(s.Items()) != 1 {
		t.Error("order should be unchanged")
	}
}

func TestCustomItemFlow(t *testing.T) {
	s := newTestSession(&mockStore{})

	if s.State() != enum.SessionStateIdle {
		t.Fatalf("initial state: got %s", s.State())
	}

	item, err := s.AddItem("Other")
	if err != nil {
		t.Fatalf("add Other: %v", err)
	}
	if item != nil {
		t.Errorf("selecting Other should not add an item, got %+v", item)
	}
	if s.State() != enum.SessionStateAwaitingCustomInput {
		t.Fatalf("state: got %s, want %s", s.State(), enum.SessionStateAwaitingCustomInput)
	}

	if _, err := s.AddCustomItem("", dec("5.0")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty description: got %v, want ErrInvalidInput", err)
	}
	if s.State() != enum.SessionStateAwaitingCustomInput {
		t.Errorf("state after invalid input: got %s", s.State())
	}
	if len(s.Items()) != 0 {
		t.Error("order should be unchanged after invalid input")
	}

	got, err := s.AddCustomItem("Juice", dec("4.5"))
	if err != nil {
		t.Fatalf("add custom: %v", err)
	}
	if got.Description != "Other: Juice" || !got.Price.Equal(dec("4.5")) {
		t.Errorf("item: got %+v, want {Other: Juice 4.5}", got)
	}
	if s.State() != enum.SessionStateIdle {
		t.Errorf("state: got %s, want %s", s.State(), enum.SessionStateIdle)
	}
	if items := s.Items(); len(items) != 1 || items[0].Description != "Other: Juice" {
		t.Errorf("items: got %+v", items)
	}
}

func TestAddCustomItemInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		desc  string
		price string
	}{
		{"empty description", "", "5"},
		{"blank description", "   ", "5"},
		{"zero price", "Juice", "0"},
		{"negative price", "Juice", "-2"},
		{"rounds to zero", "Juice", "0.004"},
		{"line break", "Rum\r\nCoke", "5"},
		{"newline", "Rum\nCoke", "5"},
		{"tab", "Rum\tCoke", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(&mockStore{})
			mustAdd(t, s, "Beer", "Other")

			if _, err := s.AddCustomItem(tt.desc, dec(tt.price)); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("got %v, want ErrInvalidInput", err)
			}
			if got := descriptions(s.Items()); !equalStrings(got, []string{"Beer"}) {
				t.Errorf("order changed: %v", got)
			}
			if s.State() != enum.SessionStateAwaitingCustomInput {
				t.Errorf("state changed: %s", s.State())
			}
		})
	}
}

func TestAddItemZeroPricedEntry(t *testing.T) {
	cat := catalog.MustNew([]catalog.Entry{
		catalog.Fixed("Beer", "3.50"),
		catalog.Fixed("Water", "0"),
	})
	s := NewSession(cat, &mockStore{}, WithClock(func() time.Time { return fixedNow }))
	mustAdd(t, s, "Beer")

	if _, err := s.AddItem("Water"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
	if got := descriptions(s.Items()); !equalStrings(got, []string{"Beer"}) {
		t.Errorf("order changed: %v", got)
	}
}

func TestAddCustomItemWithoutPending(t *testing.T) {
	s := newTestSession(&mockStore{})
	if _, err := s.AddCustomItem("Juice", dec("4.5")); !errors.Is(err, ErrNoCustomItemPending) {
		t.Errorf("got %v, want ErrNoCustomItemPending", err)
	}
}

func TestCancelCustomItem(t *testing.T) {
	s := newTestSession(&mockStore{})
	mustAdd(t, s, "Other")

	s.CancelCustomItem()
	if s.State() != enum.SessionStateIdle {
		t.Errorf("state: got %s, want %s", s.State(), enum.SessionStateIdle)
	}
	if _, err := s.AddCustomItem("Juice", dec("4.5")); !errors.Is(err, ErrNoCustomItemPending) {
		t.Errorf("got %v, want ErrNoCustomItemPending", err)
	}
}

func TestSubmitOrder(t *testing.T) {
	store := &mockStore{}
	s := newTestSession(store)
	mustAdd(t, s, "Beer", "Wine", "Other")
	if _, err := s.AddCustomItem("Juice", dec("4.50")); err != nil {
		t.Fatalf("add custom: %v", err)
	}

	before := len(s.Ledger())
	result, err := s.SubmitOrder(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if len(s.Items()) != 0 {
		t.Error("order should be empty after submit")
	}
	if got := len(s.Ledger()) - before; got != 3 {
		t.Errorf("ledger grew by %d, want 3", got)
	}
	if len(store.appended) != 3 {
		t.Errorf("store got %d appends, want 3", len(store.appended))
	}
	if !result.Total.Equal(dec("16.00")) {
		t.Errorf("result total: got %s, want 16.00", result.Total)
	}
	for i, rec := range s.Ledger() {
		if !rec.Timestamp.Equal(fixedNow) {
			t.Errorf("record %d timestamp: got %v, want %v", i, rec.Timestamp, fixedNow)
		}
	}
	if got := s.Ledger()[2].Description; got != "Other: Juice" {
		t.Errorf("ledger[2]: got %q", got)
	}
}

func TestSubmitEmptyOrder(t *testing.T) {
	store := &mockStore{}
	s := newTestSession(store)

	if _, err := s.SubmitOrder(context.Background()); !errors.Is(err, ErrEmptyOrder) {
		t.Errorf("got %v, want ErrEmptyOrder", err)
	}
	if len(store.appended) != 0 {
		t.Error("store should not be called")
	}
}

func TestSubmitOrderPartialFailure(t *testing.T) {
	storeErr := errors.New("sheet quota exceeded")
	store := &mockStore{appendFn: failOnCall(2, storeErr)}
	s := newTestSession(store)
	mustAdd(t, s, "Beer", "Wine", "Beer")

	result, err := s.SubmitOrder(context.Background())
	if !errors.Is(err, ErrPersistenceFailure) {
		t.Fatalf("got %v, want ErrPersistenceFailure", err)
	}
	if !errors.Is(err, storeErr) {
		t.Errorf("error should wrap the store error, got %v", err)
	}

	var pErr *PersistenceError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected *PersistenceError, got %T", err)
	}
	if pErr.Submitted != 1 || pErr.Total != 3 {
		t.Errorf("got submitted=%d total=%d, want 1/3", pErr.Submitted, pErr.Total)
	}

	ledgerNow := s.Ledger()
	if len(ledgerNow) != 1 || ledgerNow[0].Description != "Beer" {
		t.Errorf("ledger: got %+v, want the first Beer only", ledgerNow)
	}
	if len(result.Records) != 1 {
		t.Errorf("result records: got %d, want 1", len(result.Records))
	}
	if got := descriptions(s.Items()); !equalStrings(got, []string{"Wine", "Beer"}) {
		t.Errorf("order: got %v, want [Wine Beer]", got)
	}

	// Retrying submits only the remainder.
	store.appendFn = nil
	if _, err := s.SubmitOrder(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(s.Ledger()) != 3 {
		t.Errorf("ledger after retry: got %d, want 3", len(s.Ledger()))
	}
	if len(s.Items()) != 0 {
		t.Error("order should be empty after retry")
	}
}

func TestSubmitOrderFirstAppendFails(t *testing.T) {
	store := &mockStore{appendFn: failOnCall(1, errors.New("offline"))}
	s := newTestSession(store)
	mustAdd(t, s, "Beer", "Wine")

	_, err := s.SubmitOrder(context.Background())
	var pErr *PersistenceError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected *PersistenceError, got %v", err)
	}
	if pErr.Submitted != 0 || pErr.Total != 2 {
		t.Errorf("got submitted=%d total=%d, want 0/2", pErr.Submitted, pErr.Total)
	}
	if len(s.Items()) != 2 {
		t.Errorf("order should keep both items, got %d", len(s.Items()))
	}
	if len(s.Ledger()) != 0 {
		t.Error("ledger should be empty")
	}
}

func TestLoadLedger(t *testing.T) {
	seed := []ledger.SaleRecord{{Timestamp: fixedNow, Description: "Beer", Price: dec("3.50")}}
	store := &mockStore{
		loadAllFn: func(ctx context.Context) ([]ledger.SaleRecord, error) {
			return seed, nil
		},
	}
	s := newTestSession(store)

	if err := s.LoadLedger(context.Background()); err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	mustAdd(t, s, "Wine")
	if _, err := s.SubmitOrder(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	got := s.Ledger()
	if len(got) != 2 || got[0].Description != "Beer" || got[1].Description != "Wine" {
		t.Errorf("ledger: got %+v", got)
	}
}

func TestLoadLedgerUnavailable(t *testing.T) {
	store := &mockStore{
		loadAllFn: func(ctx context.Context) ([]ledger.SaleRecord, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
	s := newTestSession(store)

	err := s.LoadLedger(context.Background())
	if !errors.Is(err, ErrLedgerUnavailable) {
		t.Fatalf("got %v, want ErrLedgerUnavailable", err)
	}
	if len(s.Ledger()) != 0 {
		t.Error("ledger should be empty")
	}

	// The session keeps working.
	mustAdd(t, s, "Beer")
	if _, err := s.SubmitOrder(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(s.Ledger()) != 1 {
		t.Errorf("ledger: got %d records, want 1", len(s.Ledger()))
	}
}
