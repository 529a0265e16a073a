package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DBTX is the subset of pgx used by PostgresStore.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	loadAllSales = `SELECT sold_at, description, price FROM sales ORDER BY id`
	appendSale   = `INSERT INTO sales (sold_at, description, price) VALUES ($1, $2, $3)`
)

// PostgresStore persists the ledger in the sales table (see migrations/).
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore creates a PostgresStore on top of a pool or connection.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LoadAll(ctx context.Context) ([]SaleRecord, error) {
	rows, err := s.db.Query(ctx, loadAllSales)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var records []SaleRecord
	for rows.Next() {
		var (
			soldAt      time.Time
			description string
			price       pgtype.Numeric
		)
		if err := rows.Scan(&soldAt, &description, &price); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		records = append(records, SaleRecord{
			Timestamp:   soldAt,
			Description: description,
			Price:       numericToDecimal(price),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Append(ctx context.Context, rec SaleRecord) error {
	if _, err := s.db.Exec(ctx, appendSale, rec.Timestamp, rec.Description, decimalToNumeric(rec.Price)); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
