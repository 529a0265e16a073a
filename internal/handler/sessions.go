package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/bar/internal/catalog"
	"github.com/kiwari-pos/bar/internal/enum"
	"github.com/kiwari-pos/bar/internal/middleware"
	"github.com/kiwari-pos/bar/internal/report"
	"github.com/kiwari-pos/bar/internal/service"
	"github.com/kiwari-pos/bar/internal/ws"
	"github.com/shopspring/decimal"
)

// SessionRegistry defines the registry methods needed by session handlers.
// Satisfied by *service.Registry; narrow interface for testability.
type SessionRegistry interface {
	Create(ctx context.Context) (*service.Session, error)
	Delete(id uuid.UUID) error
}

// Broadcaster pushes events to connected dashboards.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(event ws.Event)
}

// SessionHandler handles order-entry endpoints.
type SessionHandler struct {
	registry SessionRegistry
	events   Broadcaster
	loc      *time.Location
}

// NewSessionHandler creates a new SessionHandler. events may be nil.
// Sale timestamps are rendered in loc.
func NewSessionHandler(registry SessionRegistry, events Broadcaster, loc *time.Location) *SessionHandler {
	if loc == nil {
		loc = time.Local
	}
	return &SessionHandler{registry: registry, events: events, loc: loc}
}

// RegisterRoutes registers session creation on the given Chi router.
// Expected to be mounted at /sessions.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
}

// RegisterSessionRoutes registers per-session endpoints.
// Expected to be mounted inside a subrouter using middleware.RequireSession:
// /sessions/{sid}
func (h *SessionHandler) RegisterSessionRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Delete("/", h.Delete)
	r.Post("/items", h.AddItem)
	r.Delete("/items/{index}", h.RemoveItem)
	r.Post("/custom-item", h.AddCustomItem)
	r.Delete("/custom-item", h.CancelCustomItem)
	r.Post("/submit", h.Submit)
	r.Get("/ledger", h.Ledger)
}

// --- Request / Response types ---

type addItemRequest struct {
	Entry string `json:"entry"`
}

type addCustomItemRequest struct {
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

type sessionResponse struct {
	ID          uuid.UUID          `json:"id"`
	State       string             `json:"state"`
	Items       []lineItemResponse `json:"items"`
	Total       string             `json:"total"`
	LedgerCount int                `json:"ledger_count"`
	Warning     string             `json:"warning,omitempty"`
}

type submitResponse struct {
	Records []saleRecordResponse `json:"records"`
	Total   string               `json:"total"`
}

type persistenceFailureResponse struct {
	Error     string             `json:"error"`
	Submitted int                `json:"submitted"`
	Total     int                `json:"total"`
	Remaining []lineItemResponse `json:"remaining"`
}

type ledgerResponse struct {
	Records []saleRecordResponse `json:"records"`
	Total   string               `json:"total"`
}

type saleEventPayload struct {
	Records []saleRecordResponse `json:"records"`
	Total   string               `json:"total"`
}

// --- Handlers ---

// Create handles POST /sessions. A ledger that cannot be loaded is reported
// as a warning; the session is still created with an empty ledger.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Create(r.Context())
	warning := ""
	if err != nil {
		if !errors.Is(err, service.ErrLedgerUnavailable) || s == nil {
			log.Printf("ERROR: create session: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		log.Printf("WARNING: session %s: %v", s.ID(), err)
		warning = service.ErrLedgerUnavailable.Error()
	}

	h.broadcast(enum.EventSessionCreated, s.ID(), map[string]string{"id": s.ID().String()})

	resp := toSessionResponse(s)
	resp.Warning = warning
	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /sessions/{sid}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

// Delete handles DELETE /sessions/{sid}. Any open order is discarded.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())
	if err := h.registry.Delete(s.ID()); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		log.Printf("ERROR: delete session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles POST /sessions/{sid}/items.
func (h *SessionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Entry == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "entry is required"})
		return
	}

	if _, err := s.AddItem(req.Entry); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

// RemoveItem handles DELETE /sessions/{sid}/items/{index}.
func (h *SessionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item index"})
		return
	}

	if err := s.RemoveItem(index); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

// AddCustomItem handles POST /sessions/{sid}/custom-item.
func (h *SessionHandler) AddCustomItem(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())

	var req addCustomItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if _, err := s.AddCustomItem(req.Description, req.Price); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

// CancelCustomItem handles DELETE /sessions/{sid}/custom-item.
func (h *SessionHandler) CancelCustomItem(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())
	s.CancelCustomItem()
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

// Submit handles POST /sessions/{sid}/submit.
// A partial failure answers 502 with how many items made it; whatever did
// make it is still broadcast to dashboards.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())

	result, err := s.SubmitOrder(r.Context())
	if result != nil && len(result.Records) > 0 {
		h.broadcast(enum.EventSaleRecorded, s.ID(), saleEventPayload{
			Records: toSaleRecordResponses(result.Records, h.loc),
			Total:   money(result.Total),
		})
	}

	if err != nil {
		var pErr *service.PersistenceError
		if errors.As(err, &pErr) {
			log.Printf("ERROR: submit order (session %s): %v", s.ID(), err)
			writeJSON(w, http.StatusBadGateway, persistenceFailureResponse{
				Error:     service.ErrPersistenceFailure.Error(),
				Submitted: pErr.Submitted,
				Total:     pErr.Total,
				Remaining: toLineItemResponses(s.Items()),
			})
			return
		}
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Records: toSaleRecordResponses(result.Records, h.loc),
		Total:   money(result.Total),
	})
}

// Ledger handles GET /sessions/{sid}/ledger.
func (h *SessionHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())
	records := s.Ledger()
	writeJSON(w, http.StatusOK, ledgerResponse{
		Records: toSaleRecordResponses(records, h.loc),
		Total:   money(report.TotalRevenue(records)),
	})
}

// --- Helpers ---

func (h *SessionHandler) broadcast(eventType string, sessionID uuid.UUID, payload interface{}) {
	if h.events == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal %s event: %v", eventType, err)
		return
	}
	h.events.Broadcast(ws.Event{Type: eventType, SessionID: sessionID, Payload: data})
}

// writeSessionError maps session errors to HTTP status codes.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrIndexOutOfRange):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, catalog.ErrUnknownEntry) ||
		errors.Is(err, service.ErrInvalidInput) ||
		errors.Is(err, service.ErrNoCustomItemPending) ||
		errors.Is(err, service.ErrEmptyOrder)
}

func toSessionResponse(s *service.Session) sessionResponse {
	return sessionResponse{
		ID:          s.ID(),
		State:       s.State(),
		Items:       toLineItemResponses(s.Items()),
		Total:       money(s.CurrentTotal()),
		LedgerCount: len(s.Ledger()),
	}
}
