// Package server provides the server-rendered admin console for the egresados API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/egresados-admin/internal/ads"
	"github.com/jonathan/egresados-admin/internal/metrics"
	"github.com/jonathan/egresados-admin/internal/notify"
	"github.com/jonathan/egresados-admin/internal/server/middleware"
	"github.com/jonathan/egresados-admin/internal/server/ratelimit"
	"github.com/jonathan/egresados-admin/internal/session"
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	cfg         Config
	log         *zerolog.Logger
	binder      *session.CookieBinder
	tokens      session.Store
	ads         ads.Store
	metrics     *metrics.Metrics
	apiHTTP     *http.Client
	rateLimiter *ratelimit.Limiter
	views       *viewRegistry
	templates   map[string]*template.Template
	now         func() time.Time
}

// Config holds server configuration
type Config struct {
	Port          int
	APIURL        string
	APITimeout    time.Duration
	PageSize      int
	SessionSecret []byte
	CookieSecure  bool
}

// Deps are the collaborators of the server. Nil fields get in-memory defaults.
type Deps struct {
	Logger *zerolog.Logger
	// Tokens stores bearer tokens per browser session.
	Tokens session.Store
	// Ads stores advertisements.
	Ads     ads.Store
	Metrics *metrics.Metrics
	// APIHTTPClient is used for calls to the egresados API.
	APIHTTPClient *http.Client
	// RateLimit defaults to ratelimit.LoadConfig().
	RateLimit *ratelimit.Config
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if cfg.APIURL == "" {
		return nil, &ErrValidation{Field: "api_url", Message: "is required"}
	}
	if len(cfg.SessionSecret) == 0 {
		return nil, &ErrValidation{Field: "session_secret", Message: "is required"}
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		log:       deps.Logger,
		binder:    session.NewCookieBinder(cfg.SessionSecret, cfg.CookieSecure),
		tokens:    deps.Tokens,
		ads:       deps.Ads,
		metrics:   deps.Metrics,
		apiHTTP:   deps.APIHTTPClient,
		templates: tmpl,
		now:       time.Now,
	}
	if s.log == nil {
		nop := zerolog.Nop()
		s.log = &nop
	}
	if s.tokens == nil {
		s.tokens = session.NewMemoryStore()
	}
	if s.ads == nil {
		s.ads = ads.NewMemoryStore()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	rlConfig := deps.RateLimit
	if rlConfig == nil {
		rlConfig = ratelimit.LoadConfig()
	}
	s.rateLimiter = ratelimit.NewLimiter(rlConfig)
	s.views = newViewRegistry(s.newViewState, session.DefaultIdleTTL)

	// Dashboard routes, behind the admin-role guard
	dash := http.NewServeMux()
	dash.HandleFunc("GET /admin/dashboard", s.handleDashboard)
	dash.HandleFunc("GET /admin/dashboard/{$}", s.handleDashboard)
	dash.HandleFunc("GET /admin/dashboard/egresados", s.handleEgresadoList)
	dash.HandleFunc("POST /admin/dashboard/egresados/all/approve", s.handleApproveEgresados)
	dash.HandleFunc("GET /admin/dashboard/egresados/{id}", s.handleEgresadoDetail)
	dash.HandleFunc("POST /admin/dashboard/egresados/{id}/resume", s.handleResumeUpload)
	dash.HandleFunc("GET /egresado/{id}", s.handleEgresadoDetail)
	dash.HandleFunc("GET /admin/dashboard/forms", s.handleFormList)
	dash.HandleFunc("POST /admin/dashboard/forms/all/approve", s.handlePublishForms)
	dash.HandleFunc("GET /admin/dashboard/forms/create", s.handleFormCreatePage)
	dash.HandleFunc("POST /admin/dashboard/forms/create", s.handleFormCreate)
	dash.HandleFunc("GET /admin/dashboard/forms/{id}", s.handleFormDetail)
	dash.HandleFunc("GET /admin/dashboard/forms/{id}/export", s.handleFormExport)
	dash.HandleFunc("GET /admin/dashboard/advertisements", s.handleAdvertisements)
	dash.HandleFunc("POST /admin/dashboard/advertisements", s.handleCreateAdvertisement)
	dash.HandleFunc("GET /admin/dashboard/advertisements/{id}/media", s.handleAdvertisementMedia)
	guarded := middleware.RequireAdmin(s.log)(dash)

	// Browser routes, all bound to a session cookie
	app := http.NewServeMux()
	app.HandleFunc("GET /{$}", s.handleLoginPage)
	app.HandleFunc("POST /{$}", s.handleLogin)
	app.HandleFunc("POST /logout", s.handleLogout)
	app.Handle("/admin/", guarded)
	app.Handle("/egresado/", guarded)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.Handle("/", middleware.WithSession(s.binder, s.tokens, s.log)(app))

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Exports can be large
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the root handler, including logging and rate limiting.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests and blocks until ctx is done or the
// process receives SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Str("api_url", s.cfg.APIURL).Msg("console starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.Close()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	s.log.Info().Msg("shutting down console")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.Close()
	s.log.Info().Msg("console stopped")
	return nil
}

// Close releases background resources. It does not stop a running listener.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		evt := s.log.Info()
		if rec.status >= http.StatusInternalServerError {
			evt = s.log.Error()
		}
		evt.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

// pinger is implemented by backing stores that can report whether they are reachable.
type pinger interface {
	Ping(ctx context.Context) error
}

// handleHealth returns server health status. Stores backed by Postgres or Redis are
// pinged; an unreachable one makes the console report degraded with a 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	status := http.StatusOK

	checks := []struct {
		name  string
		store any
	}{
		{"database", s.ads},
		{"redis", s.tokens},
	}
	for _, c := range checks {
		p, ok := c.store.(pinger)
		if !ok {
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("check", c.name).Msg("health check failed")
			body[c.name] = "unreachable"
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		body[c.name] = "ok"
	}

	s.jsonResponse(w, status, body)
}

const healthTimeout = 2 * time.Second

// handleDashboard sends the dashboard root to the egresados list.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, pathEgresados, http.StatusSeeOther)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response with the status HTTPStatus assigns to err.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	s.jsonResponse(w, HTTPStatus(err), map[string]string{"error": err.Error()})
}

// extractClientID extracts the client identifier (the remote IP) from the request.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response: JSON with the limit
// details for health and metrics, a page for browser routes.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		retry := int(info.RetryAfter.Seconds())
		response["retry_after"] = retry
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retry))
	}

	s.log.Warn().
		Str("path", r.URL.Path).
		Str("client", s.extractClientID(r)).
		Int("limit", info.Limit).
		Time("reset", info.ResetTime).
		Msg("rate limit exceeded")

	if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
		s.jsonResponse(w, http.StatusTooManyRequests, response)
		return
	}
	s.renderRateLimited(w, r, info)
}

// renderRateLimited answers a throttled browser request with a page. A throttled
// login keeps the login form and shows the limit as a notification.
func (s *Server) renderRateLimited(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	retry := max(int(info.RetryAfter.Seconds()), 1)
	n := notify.Invalid(notify.TitleRateLimited, fmt.Sprintf("Too many attempts. Try again in %d seconds.", retry))

	if r.URL.Path == pathLogin {
		email := ""
		if r.Method == http.MethodPost {
			email = strings.TrimSpace(r.PostFormValue("email"))
		}
		s.render(w, r, http.StatusTooManyRequests, "login", page{
			Title:         "Log in",
			Notifications: []notify.Notification{n},
			ActionHref:    pathLogin,
			Data:          loginView{Email: email},
		})
		return
	}

	back := pathLogin
	if r.Method == http.MethodGet {
		back = r.URL.RequestURI()
	}
	s.render(w, r, http.StatusTooManyRequests, "rate_limited", page{
		Title:         "Too many requests",
		Notifications: []notify.Notification{n},
		ActionHref:    back,
		Data:          rateLimitedView{RetryAfter: retry, Back: back},
	})
}

type rateLimitedView struct {
	RetryAfter int
	Back       string
}
