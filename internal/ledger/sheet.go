package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the sales rows.
const SheetName = "Sales"

var sheetHeader = []interface{}{"timestamp", "description", "price"}

// SheetStore keeps the ledger in an .xlsx workbook, one row per sale, so the
// bar owner can open the sales log in any spreadsheet program.
type SheetStore struct {
	mu   sync.Mutex
	path string
	loc  *time.Location
}

// NewSheetStore opens the workbook at path, creating it with a header row if
// it does not exist yet. Timestamps are written and read in loc.
func NewSheetStore(path string, loc *time.Location) (*SheetStore, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &SheetStore{path: path, loc: loc}

	if _, err := os.Stat(path); err == nil {
		return s, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat sheet %s: %w", path, err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &sheetHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("create sheet %s: %w", path, err)
	}
	return s, nil
}

func (s *SheetStore) LoadAll(ctx context.Context) ([]SaleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open sheet %s: %w", s.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	var records []SaleRecord
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if isBlankRow(row) {
			continue
		}
		rec, err := s.parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *SheetStore) Append(ctx context.Context, rec SaleRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return fmt.Errorf("open sheet %s: %w", s.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return fmt.Errorf("next row: %w", err)
	}
	values := []interface{}{
		rec.Timestamp.In(s.loc).Format(TimestampLayout),
		rec.Description,
		rec.Price.StringFixed(2),
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save sheet %s: %w", s.path, err)
	}
	return nil
}

func (s *SheetStore) parseRow(row []string) (SaleRecord, error) {
	if len(row) < 3 {
		return SaleRecord{}, fmt.Errorf("%w: want 3 columns, got %d", ErrInvalidRecord, len(row))
	}
	ts, err := time.ParseInLocation(TimestampLayout, row[0], s.loc)
	if err != nil {
		return SaleRecord{}, fmt.Errorf("%w: timestamp %q", ErrInvalidRecord, row[0])
	}
	price, err := decimal.NewFromString(row[2])
	if err != nil {
		return SaleRecord{}, fmt.Errorf("%w: price %q", ErrInvalidRecord, row[2])
	}
	return SaleRecord{
		Timestamp:   ts,
		Description: row[1],
		Price:       price.Round(2),
	}, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
