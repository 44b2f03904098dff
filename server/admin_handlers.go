package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-edge-auth/token/keys"
)

const contentTypeJSON = "application/json; charset=utf-8"

// JWKSProvider exposes the session verification keys for the admin listener.
type JWKSProvider interface {
	GetJWKS() (*keys.JWKS, error)
}

// NewAdminRouter builds the ops router: liveness, metrics and the session
// verification key set. None of these are reachable through the gateway
// listener.
func NewAdminRouter(jwks JWKSProvider) http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(requestLogger)
	router.Use(chimiddleware.Recoverer)

	router.Get("/healthz", Healthz())
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	router.Get("/keys", JWKS(jwks))

	return router
}

// Healthz reports process liveness for container probes.
func Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// JWKS returns the JSON Web Key Set used to validate session tokens
func JWKS(provider JWKSProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		jwks, err := provider.GetJWKS()
		if err != nil {
			http.Error(w, "Failed to get JWKS: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		_ = json.NewEncoder(w).Encode(jwks)
	}
}

// requestLogger logs each admin request with its status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		wrapped := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(wrapped, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.Status()).
			Dur("duration", time.Since(started)).
			Msg("admin request")
	})
}
