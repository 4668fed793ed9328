// Package mockapi is a local stand-in for the projects backend. It serves
// deterministic fake data with the same routes and payload shapes.
package mockapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
)

// Options configures the mock backend.
type Options struct {
	// Secret enables JWT auth on the projects route when non-empty.
	Secret string
	// Latency delays every projects response, to exercise loading states.
	Latency time.Duration
	// Fixtures overrides generated data for specific user ids.
	Fixtures map[string]UserProjects
}

// NewHandler returns the mock backend's router.
func NewHandler(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Get("/health", handleHealth)
	r.Group(func(r chi.Router) {
		if opts.Secret != "" {
			r.Use(JWTAuth(opts.Secret))
		}
		r.Get("/api/project/user-projects/{userId}", handleUserProjects(opts))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleUserProjects(opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := url.PathUnescape(chi.URLParam(r, "userId"))
		if err != nil || userID == "" {
			writeMessage(w, http.StatusBadRequest, "User id is required")
			return
		}

		if opts.Latency > 0 {
			select {
			case <-time.After(opts.Latency):
			case <-r.Context().Done():
				return
			}
		}

		body, ok := opts.Fixtures[userID]
		if !ok {
			body = Generate(userID)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Warn("mock backend: writing response", "error", err)
		}
	}
}

func writeMessage(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("mock backend request", "method", r.Method, "path", r.URL.Path, "duration_ms", time.Since(start).Milliseconds())
	})
}
