package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/bar/internal/service"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionFinder looks up an open session by ID.
// Satisfied by *service.Registry.
type SessionFinder interface {
	Get(id uuid.UUID) (*service.Session, error)
}

// RequireSession resolves the {sid} URL parameter to an open session and
// stores it in the request context.
func RequireSession(sessions SessionFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sidStr := chi.URLParam(r, "sid")
			if sidStr == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session ID"})
				return
			}

			sid, err := uuid.Parse(sidStr)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
				return
			}

			s, err := sessions.Get(sid)
			if err != nil {
				if errors.Is(err, service.ErrSessionNotFound) {
					writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
					return
				}
				log.Printf("ERROR: get session: %v", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session stored by RequireSession, or nil.
func SessionFromContext(ctx context.Context) *service.Session {
	s, _ := ctx.Value(sessionKey).(*service.Session)
	return s
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
