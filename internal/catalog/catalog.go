package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errors returned by the catalog.
var (
	ErrUnknownEntry   = errors.New("unknown catalog entry")
	ErrEmptyName      = errors.New("entry name is required")
	ErrDuplicateEntry = errors.New("duplicate catalog entry")
	ErrNegativePrice  = errors.New("entry price must be >= 0")
	ErrMultipleCustom = errors.New("only one custom entry is allowed")
	ErrEmptyCatalog   = errors.New("catalog has no entries")
)

// Entry is one button on the menu. A nil UnitPrice marks the custom entry,
// whose description and price are supplied when the item is ordered.
type Entry struct {
	Name      string
	UnitPrice *decimal.Decimal
}

// IsCustom reports whether the entry needs a runtime description and price.
func (e Entry) IsCustom() bool {
	return e.UnitPrice == nil
}

// Price is the result of a catalog lookup.
type Price struct {
	Amount decimal.Decimal
	Custom bool
}

// Catalog is an immutable name -> price mapping built at startup.
type Catalog struct {
	entries []Entry
	byName  map[string]Entry
}

// New validates entries and builds a Catalog. Entry order is kept for display.
func New(entries []Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		byName:  make(map[string]Entry, len(entries)),
	}
	customSeen := false
	for i, e := range entries {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return nil, fmt.Errorf("entry[%d]: %w", i, ErrEmptyName)
		}
		if _, dup := c.byName[e.Name]; dup {
			return nil, fmt.Errorf("entry[%d] %q: %w", i, e.Name, ErrDuplicateEntry)
		}
		if e.IsCustom() {
			if customSeen {
				return nil, fmt.Errorf("entry[%d] %q: %w", i, e.Name, ErrMultipleCustom)
			}
			customSeen = true
		} else {
			if e.UnitPrice.IsNegative() {
				return nil, fmt.Errorf("entry[%d] %q: %w", i, e.Name, ErrNegativePrice)
			}
			p := e.UnitPrice.Round(2)
			e.UnitPrice = &p
		}
		c.entries = append(c.entries, e)
		c.byName[e.Name] = e
	}
	return c, nil
}

// MustNew is like New but panics on invalid entries. Intended for fixtures.
func MustNew(entries []Entry) *Catalog {
	c, err := New(entries)
	if err != nil {
		panic(err)
	}
	return c
}

// PriceOf looks up an entry by name.
func (c *Catalog) PriceOf(name string) (Price, error) {
	e, ok := c.byName[name]
	if !ok {
		return Price{}, fmt.Errorf("%q: %w", name, ErrUnknownEntry)
	}
	if e.IsCustom() {
		return Price{Custom: true}, nil
	}
	return Price{Amount: *e.UnitPrice}, nil
}

// Entries returns a copy of the entries in configured order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Fixed returns a fixed-price entry. Shorthand for building menus in code.
func Fixed(name, price string) Entry {
	p := decimal.RequireFromString(price)
	return Entry{Name: name, UnitPrice: &p}
}

// Custom returns the custom ("Other") entry.
func Custom(name string) Entry {
	return Entry{Name: name}
}

// Default returns the house menu used when no menu file is configured.
func Default() *Catalog {
	return MustNew([]Entry{
		Fixed("Beer", "3.50"),
		Fixed("Arak", "4.00"),
		Fixed("Wine Bottle", "35.00"),
		Fixed("Wine Glass", "8.00"),
		Fixed("Doudou Shots", "2.00"),
		Fixed("Soft Drink", "3.00"),
		Custom("Other"),
	})
}
