// Package report derives dashboard figures from a ledger snapshot. Every
// function is pure; callers pass the records they want aggregated.
package report

import (
	"sort"
	"time"

	"github.com/kiwari-pos/bar/internal/ledger"
	"github.com/shopspring/decimal"
)

// DescriptionCount is one bar of the sales chart.
type DescriptionCount struct {
	Description string
	Count       int
}

// Summary is the dashboard headline.
type Summary struct {
	SaleCount    int
	TotalRevenue decimal.Decimal
	Counts       []DescriptionCount
}

// HourlyBucket aggregates the sales of one hour of the day.
type HourlyBucket struct {
	Hour      int
	SaleCount int
	Revenue   decimal.Decimal
}

// TotalRevenue sums the price of every record.
func TotalRevenue(records []ledger.SaleRecord) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range records {
		total = total.Add(rec.Price)
	}
	return total
}

// CountsByDescription counts records per description.
func CountsByDescription(records []ledger.SaleRecord) map[string]int {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.Description]++
	}
	return counts
}

// Summarize builds the dashboard summary. Counts are sorted by count
// descending, then by description.
func Summarize(records []ledger.SaleRecord) Summary {
	counts := CountsByDescription(records)
	sorted := make([]DescriptionCount, 0, len(counts))
	for desc, n := range counts {
		sorted = append(sorted, DescriptionCount{Description: desc, Count: n})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Description < sorted[j].Description
	})

	return Summary{
		SaleCount:    len(records),
		TotalRevenue: TotalRevenue(records),
		Counts:       sorted,
	}
}

// HourlySales groups records by hour of day in loc, for peak hour analysis.
// Only hours with at least one sale are returned, in ascending order.
func HourlySales(records []ledger.SaleRecord, loc *time.Location) []HourlyBucket {
	if loc == nil {
		loc = time.Local
	}
	byHour := make(map[int]*HourlyBucket)
	for _, rec := range records {
		h := rec.Timestamp.In(loc).Hour()
		b, ok := byHour[h]
		if !ok {
			b = &HourlyBucket{Hour: h, Revenue: decimal.Zero}
			byHour[h] = b
		}
		b.SaleCount++
		b.Revenue = b.Revenue.Add(rec.Price)
	}

	out := make([]HourlyBucket, 0, len(byHour))
	for _, b := range byHour {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}
