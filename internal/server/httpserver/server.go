// Package httpserver exposes the account flows over HTTP under /api/auth
// and resolves session cookies for downstream handlers.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/clinicdesk/identity/internal/logging"
	"github.com/clinicdesk/identity/internal/server/models"
	"github.com/clinicdesk/identity/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

type AuthService interface {
	Signup(ctx context.Context, email, password, name string) (*services.Session, error)
	VerifyEmail(ctx context.Context, code string) (*models.Profile, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	CheckAuth(ctx context.Context, sessionToken string) (*models.Profile, error)
}

// SessionCookies moves session tokens between requests and responses.
type SessionCookies interface {
	SetCookie(w http.ResponseWriter, token string, expiresAt time.Time)
	ClearCookie(w http.ResponseWriter)
	FromRequest(r *http.Request) string
}

// Options configures a Server. Limiter may be nil to disable rate limiting.
// TrustProxy takes the client address from X-Forwarded-For and friends and
// must only be set behind a proxy that overwrites those headers.
type Options struct {
	Address        string
	AllowedOrigins []string
	Limiter        Counter
	RatePerMinute  int
	TrustProxy     bool
}

type Server struct {
	address  string
	auth     AuthService
	sessions SessionCookies
	logger   logging.Logger
	router   chi.Router
}

func NewServer(opts Options, l logging.Logger, svc AuthService, sessions SessionCookies) *Server {
	s := &Server{
		address:  opts.Address,
		auth:     svc,
		sessions: sessions,
		logger:   l.With("module", "http_server"),
	}
	s.router = s.routes(opts)
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes(opts Options) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.logRequests)
	r.Use(metrics)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	limit := rateLimit(opts.Limiter, opts.RatePerMinute, s.logger)

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/signup", s.handleSignup)
			r.Post("/verify-email", s.handleVerifyEmail)
			r.Post("/login", s.handleLogin)
			r.Post("/forgot-password", s.handleForgotPassword)
			r.Post("/reset-password/{token}", s.handleResetPassword)
		})
		r.Post("/logout", s.handleLogout)
		r.With(s.RequireSession).Get("/check-auth", s.handleCheckAuth)
	})

	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
