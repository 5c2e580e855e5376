package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"smartturf/internal/config"
	"smartturf/internal/database"
	"smartturf/internal/domain"
	"smartturf/internal/metrics"
	"smartturf/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// HTTPServer exposes the booking API over JSON/HTTP.
type HTTPServer struct {
	cfg      *config.Config
	db       *database.DB
	users    *service.UserService
	bookings *service.BookingService
	matches  *service.MatchService
	catalog  *service.CatalogService
	cache    domain.CacheRepository
	exports  domain.ExportQueue
	tokens   *TokenManager
	limiter  *clientLimiter
	logger   *zerolog.Logger
	server   *http.Server
}

type Services struct {
	Users    *service.UserService
	Bookings *service.BookingService
	Matches  *service.MatchService
	Catalog  *service.CatalogService
}

func NewHTTPServer(cfg *config.Config, db *database.DB, svc Services, cache domain.CacheRepository, exports domain.ExportQueue, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		db:       db,
		users:    svc.Users,
		bookings: svc.Bookings,
		matches:  svc.Matches,
		catalog:  svc.Catalog,
		cache:    cache,
		exports:  exports,
		tokens:   NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLHours),
		limiter:  newClientLimiter(cfg.API.RateLimit),
		logger:   logger,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/register", srv.handleRegister)
	mux.HandleFunc("/api/auth/login", srv.handleLogin)

	mux.HandleFunc("/api/turfs", srv.handleTurfs)
	mux.HandleFunc("/api/kits", srv.handleKits)

	mux.HandleFunc("/api/bookings/slots/", srv.handleSlots)
	mux.HandleFunc("/api/bookings", srv.requireAuth(srv.handleCreateBooking))
	mux.HandleFunc("/api/my-bookings", srv.requireAuth(srv.handleMyBookings))

	mux.HandleFunc("/api/matches", srv.handleMatches)
	mux.HandleFunc("/api/matches/", srv.requireAuth(srv.handleJoinMatch))

	mux.HandleFunc("/api/admin/exports", srv.requireAuth(srv.handleExport))

	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.limiter.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
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

// Handler returns the full middleware chain for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// clientLimiter keeps one token bucket per remote host. A zero RPS disables
// the limiter entirely.
type clientLimiter struct {
	cfg      config.APIRateLimitConfig
	limiters sync.Map // map[string]*rate.Limiter
}

func newClientLimiter(cfg config.APIRateLimitConfig) *clientLimiter {
	return &clientLimiter{cfg: cfg}
}

func (l *clientLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.cfg.RPS <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		if !l.getLimiter(clientKey(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (l *clientLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		dur := time.Since(start)
		metrics.IncHTTP(endpointLabel(r.URL.Path), fmt.Sprintf("%d", recorder.status))
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

// endpointLabel collapses path parameters so metric cardinality stays bounded.
func endpointLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/bookings/slots/"):
		return "/api/bookings/slots/:turf_id"
	case strings.HasPrefix(path, "/api/matches/"):
		return "/api/matches/:id/join"
	}
	return path
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
