package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/kiwari-pos/bar/internal/ledger"
	"github.com/kiwari-pos/bar/internal/service"
	"github.com/shopspring/decimal"
)

type saleRecordResponse struct {
	Timestamp string `json:"timestamp"`
	Drink     string `json:"drink"`
	Price     string `json:"price"`
}

type lineItemResponse struct {
	Index int    `json:"index"`
	Drink string `json:"drink"`
	Price string `json:"price"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// toSaleRecordResponses renders timestamps in loc, whatever zone the store
// returned them in.
func toSaleRecordResponses(records []ledger.SaleRecord, loc *time.Location) []saleRecordResponse {
	resp := make([]saleRecordResponse, len(records))
	for i, rec := range records {
		resp[i] = saleRecordResponse{
			Timestamp: rec.Timestamp.In(loc).Format(ledger.TimestampLayout),
			Drink:     rec.Description,
			Price:     money(rec.Price),
		}
	}
	return resp
}

func toLineItemResponses(items []service.LineItem) []lineItemResponse {
	resp := make([]lineItemResponse, len(items))
	for i, item := range items {
		resp[i] = lineItemResponse{
			Index: i,
			Drink: item.Description,
			Price: money(item.Price),
		}
	}
	return resp
}
