package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"deskbook/internal/config"
	"deskbook/internal/database"
	"deskbook/internal/export"
	"deskbook/internal/metrics"
	"deskbook/internal/models"
	"deskbook/internal/service"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// HTTPServer exposes the booking collaborator interface over HTTP.
type HTTPServer struct {
	cfg          config.APIConfig
	reservations *service.ReservationService
	identity     *service.IdentityService
	exporter     *export.Exporter
	plan         *models.FloorPlan
	logger       *zerolog.Logger
	server       *http.Server
	limiters     sync.Map // map[string]*rate.Limiter
}

const sessionHeader = "X-Session-Token"

func NewHTTPServer(
	cfg config.APIConfig,
	reservations *service.ReservationService,
	identity *service.IdentityService,
	exporter *export.Exporter,
	plan *models.FloorPlan,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:          cfg,
		reservations: reservations,
		identity:     identity,
		exporter:     exporter,
		plan:         plan,
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/register", srv.handleRegister)
	mux.HandleFunc("/api/v1/login", srv.handleLogin)
	mux.HandleFunc("/api/v1/logout", srv.handleLogout)
	mux.HandleFunc("/api/v1/desks", srv.handleDesks)
	mux.HandleFunc("/api/v1/desks/", srv.handleDesk)
	mux.HandleFunc("/api/v1/reservations", srv.handleReservations)
	mux.HandleFunc("/api/v1/reservations/", srv.handleReservationByID)
	mux.HandleFunc("/api/v1/selection", srv.handleSelection)
	mux.HandleFunc("/api/v1/admin/reservations", srv.handleAdminReservations)
	mux.HandleFunc("/api/v1/admin/users", srv.handleAdminUsers)
	mux.HandleFunc("/api/v1/admin/export", srv.handleAdminExport)

	handler := srv.loggingMiddleware(srv.rateLimitMiddleware(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// requireSession resolves the session token header. On failure it writes the
// error response and returns nil.
func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) *models.Session {
	token := strings.TrimSpace(r.Header.Get(sessionHeader))
	session, err := s.identity.Authenticate(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil
	}
	return session
}

func (s *HTTPServer) requireAdmin(w http.ResponseWriter, r *http.Request) *models.Session {
	session := s.requireSession(w, r)
	if session == nil {
		return nil
	}
	if !session.IsAdmin() {
		writeError(w, http.StatusForbidden, "administrator role required")
		return nil
	}
	return session
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimit.RPS <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		lim := s.getLimiter(clientKey(r))
		if !lim.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey prefers the session token so each logged-in user gets an own
// bucket; anonymous requests fall back to the remote host.
func clientKey(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(sessionHeader)); token != "" {
		return token
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (s *HTTPServer) getLimiter(key string) *rate.Limiter {
	if v, ok := s.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := s.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(s.cfg.RateLimit.RPS), burst)
	actual, loaded := s.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

// writeServiceError maps domain errors onto HTTP statuses. Anything unknown is
// reported as a generic storage failure.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrInvalidRange),
		errors.Is(err, database.ErrUnknownDesk),
		errors.Is(err, service.ErrMissingFields):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrSlotUnavailable),
		errors.Is(err, database.ErrDuplicateKey):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "storage failure")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
