package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/bar/internal/catalog"
)

// CatalogHandler serves the menu the terminals render as buttons.
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// RegisterRoutes registers catalog endpoints on the given Chi router.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/catalog", h.List)
}

type catalogEntryResponse struct {
	Name   string  `json:"name"`
	Price  *string `json:"price"`
	Custom bool    `json:"custom"`
}

// List handles GET /catalog. Entries keep their configured order.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.catalog.Entries()
	resp := make([]catalogEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = catalogEntryResponse{Name: e.Name, Custom: e.IsCustom()}
		if !e.IsCustom() {
			p := money(*e.UnitPrice)
			resp[i].Price = &p
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
