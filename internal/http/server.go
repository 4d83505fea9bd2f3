package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"paydash/internal/insights"
	"paydash/internal/log"
	"paydash/internal/store"
)

// Server exposes the transaction store and insight service as a JSON API.
type Server struct {
	http.Server
	store       *store.Store
	insights    *insights.Service
	logger      *log.Logger
	structured  *log.StructuredLogger
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. The insight service may be nil when no analyzer is
// configured; the insight routes then answer 503.
func NewServer(addr string, st *store.Store, ins *insights.Service, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:       st,
		insights:    ins,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(),
	}
	s.structured = log.NewStructuredLogger(s.logger)
	s.Server.Handler = log.Middleware(s.logger)(mux)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.api(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.api(s.handleAddTransaction))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.api(s.handleUpdateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.api(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.api(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.api(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.api(s.handleAddCategory))
	mux.HandleFunc("DELETE /api/categories/{name}", s.api(s.handleDeleteCategory))

	mux.HandleFunc("POST /api/import", s.api(s.handleImport))
	mux.HandleFunc("GET /api/export", s.api(s.handleExport))
	mux.HandleFunc("POST /api/clear", s.api(s.handleClear))

	mux.HandleFunc("GET /api/summary", s.api(s.handleSummaryAll))
	mux.HandleFunc("GET /api/summary/{month}", s.api(s.handleSummary))

	mux.HandleFunc("GET /api/insights/{month}", s.api(s.handleGetInsight))
	mux.HandleFunc("POST /api/insights/{month}", s.api(s.handleReanalyze))

	return s
}

// api wraps a handler with security headers, rate limiting, request logging
// and the store readiness gate shared by every /api route.
func (s *Server) api(next http.HandlerFunc) http.HandlerFunc {
	return s.withSecurityHeaders(func(w http.ResponseWriter, r *http.Request) {
		if !s.store.Ready() {
			writeError(w, http.StatusServiceUnavailable, "service initializing")
			return
		}
		next(w, r)
	})
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := r.Context()

		s.structured.LogRequestStart(ctx, r, requestID, clientIP)

		// Rate-limit mutating requests only
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.structured.LogRateLimited(ctx, r, clientIP)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.structured.LogRequestEnd(ctx, r, requestID, rw.statusCode, time.Since(start), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports readiness only once the store has loaded its
// persisted collections.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.store.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("initializing"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
