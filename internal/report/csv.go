package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kiwari-pos/bar/internal/ledger"
	"github.com/shopspring/decimal"
)

// CSVTimeLayout is the export time format (HH:MM:SS).
const CSVTimeLayout = "15:04:05"

// CSVFilename is the suggested download name for the export.
const CSVFilename = "sales_report.csv"

var csvHeader = []string{"time", "drink", "price"}

// ErrInvalidCSV is returned by ParseCSV for malformed input.
var ErrInvalidCSV = errors.New("invalid sales csv")

// ExportCSV writes one row per record, in ledger order, after a
// "time,drink,price" header. Times are rendered in loc.
func ExportCSV(w io.Writer, records []ledger.SaleRecord, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		row := []string{
			rec.Timestamp.In(loc).Format(CSVTimeLayout),
			rec.Description,
			rec.Price.StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSV reads an export produced by ExportCSV. The date part of each
// timestamp is lost in the export, so parsed records carry time-of-day only.
func ParseCSV(r io.Reader) ([]ledger.SaleRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header", ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
	}
	for i, name := range csvHeader {
		if header[i] != name {
			return nil, fmt.Errorf("%w: header column %d is %q, want %q", ErrInvalidCSV, i+1, header[i], name)
		}
	}

	var records []ledger.SaleRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
		}
		ts, err := time.Parse(CSVTimeLayout, row[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: time %q", ErrInvalidCSV, line, row[0])
		}
		price, err := decimal.NewFromString(row[2])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: price %q", ErrInvalidCSV, line, row[2])
		}
		records = append(records, ledger.SaleRecord{
			Timestamp:   ts,
			Description: row[1],
			Price:       price,
		})
	}
	return records, nil
}
