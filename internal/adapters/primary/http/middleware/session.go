package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/caller-panel/internal/infrastructure/logging"
)

// SessionContext copies the {sessionID} route parameter into the request
// context so log lines written further down carry it.
func SessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionID := chi.URLParam(r, "sessionID"); sessionID != "" {
			r = r.WithContext(logging.WithSessionID(r.Context(), sessionID))
		}
		next.ServeHTTP(w, r)
	})
}
