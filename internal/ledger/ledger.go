// Package ledger holds the append-only sales history and the stores that
// persist it.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the stored form of a sale timestamp ("YYYY-MM-DD HH:MM:SS").
const TimestampLayout = "2006-01-02 15:04:05"

// ErrInvalidRecord is returned when a stored row cannot be turned into a SaleRecord.
var ErrInvalidRecord = errors.New("invalid sale record")

// SaleRecord is one submitted line item. Records are never mutated once created.
type SaleRecord struct {
	Timestamp   time.Time
	Description string
	Price       decimal.Decimal
}

// Store is the durable backend for the ledger. Append must be atomic per call
// and safe for concurrent callers; nothing beyond that is required.
type Store interface {
	LoadAll(ctx context.Context) ([]SaleRecord, error)
	Append(ctx context.Context, rec SaleRecord) error
}
