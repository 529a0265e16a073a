package handler

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/bar/internal/ledger"
	"github.com/kiwari-pos/bar/internal/middleware"
	"github.com/kiwari-pos/bar/internal/report"
)

// LedgerLoader reads the full ledger from the shared store.
// Satisfied by every ledger.Store.
type LedgerLoader interface {
	LoadAll(ctx context.Context) ([]ledger.SaleRecord, error)
}

// ReportsHandler handles dashboard endpoints. Inside a session subrouter it
// reports on that session's ledger view; mounted at /reports it reads the
// shared store directly.
type ReportsHandler struct {
	store LedgerLoader
	loc   *time.Location
}

// NewReportsHandler creates a new ReportsHandler. Times are rendered in loc.
func NewReportsHandler(store LedgerLoader, loc *time.Location) *ReportsHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportsHandler{store: store, loc: loc}
}

// RegisterRoutes registers report endpoints.
// Expected to be mounted at /sessions/{sid}/reports or /reports.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/summary", h.Summary)
	r.Get("/hourly", h.Hourly)
	r.Get("/export.csv", h.Export)
}

// --- Response types ---

type descriptionCountResponse struct {
	Drink string `json:"drink"`
	Count int    `json:"count"`
}

type summaryResponse struct {
	SaleCount    int                        `json:"sale_count"`
	TotalRevenue string                     `json:"total_revenue"`
	Counts       []descriptionCountResponse `json:"counts"`
}

type hourlySalesResponse struct {
	Hour         int    `json:"hour"`
	SaleCount    int    `json:"sale_count"`
	TotalRevenue string `json:"total_revenue"`
}

// --- Handlers ---

// Summary returns total revenue and per-drink counts.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	records, err := h.records(r)
	if err != nil {
		log.Printf("ERROR: load ledger for summary: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "ledger unavailable"})
		return
	}

	s := report.Summarize(records)
	counts := make([]descriptionCountResponse, len(s.Counts))
	for i, c := range s.Counts {
		counts[i] = descriptionCountResponse{Drink: c.Description, Count: c.Count}
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		SaleCount:    s.SaleCount,
		TotalRevenue: money(s.TotalRevenue),
		Counts:       counts,
	})
}

// Hourly returns sales per hour for peak hour analysis.
func (h *ReportsHandler) Hourly(w http.ResponseWriter, r *http.Request) {
	records, err := h.records(r)
	if err != nil {
		log.Printf("ERROR: load ledger for hourly sales: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "ledger unavailable"})
		return
	}

	buckets := report.HourlySales(records, h.loc)
	resp := make([]hourlySalesResponse, len(buckets))
	for i, b := range buckets {
		resp[i] = hourlySalesResponse{
			Hour:         b.Hour,
			SaleCount:    b.SaleCount,
			TotalRevenue: money(b.Revenue),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Export streams the ledger as sales_report.csv.
func (h *ReportsHandler) Export(w http.ResponseWriter, r *http.Request) {
	records, err := h.records(r)
	if err != nil {
		log.Printf("ERROR: load ledger for export: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "ledger unavailable"})
		return
	}

	// Render fully before writing headers so a failure can still be reported.
	var buf bytes.Buffer
	if err := report.ExportCSV(&buf, records, h.loc); err != nil {
		log.Printf("ERROR: export csv: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.CSVFilename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// --- Helpers ---

// records returns the session ledger when a session is in context, or the
// shared store contents otherwise.
func (h *ReportsHandler) records(r *http.Request) ([]ledger.SaleRecord, error) {
	if s := middleware.SessionFromContext(r.Context()); s != nil {
		return s.Ledger(), nil
	}
	return h.store.LoadAll(r.Context())
}
