// Package server exposes the discovery service over an HTTP JSON API.
//
// Every endpoint returns the uniform Response envelope. Callers identify
// themselves with the X-User-ID header; requests without one act on the
// default local user.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/TysunM/subzero/internal/model"
	"github.com/TysunM/subzero/internal/service"
)

// DefaultUserID is used when a request carries no X-User-ID header.
const DefaultUserID = "default"

const shutdownTimeout = 15 * time.Second

// DiscoveryAPI is the slice of the discovery service the HTTP layer uses.
type DiscoveryAPI interface {
	Status(ctx context.Context, userID string) (*service.AccountStatus, error)
	Discover(ctx context.Context, userID string, opts service.DiscoverOptions) ([]model.DiscoveredSubscription, error)
	SaveDiscovered(ctx context.Context, userID string, cand model.DiscoveredSubscription) (*model.Subscription, error)
	Summary(ctx context.Context, userID string) (*service.SubscriptionSummary, error)
	ListSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error)
	RemoveSubscription(ctx context.Context, id string) error
	LinkToken(ctx context.Context, userID string) (string, error)
	ConnectBank(ctx context.Context, userID, publicToken string) error
}

// GmailConnector starts and completes the Gmail OAuth consent flow.
type GmailConnector interface {
	AuthURL(state string) string
	Connect(ctx context.Context, userID, code string) error
}

// Server is the HTTP API server.
type Server struct {
	svc    DiscoveryAPI
	gmail  GmailConnector
	logger *slog.Logger
	http   *http.Server
}

// Config holds the HTTP server settings.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// New creates a Server listening on cfg.Address.
func New(cfg Config, svc DiscoveryAPI, gmail GmailConnector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Discovery runs dozens of Gmail queries; give them room.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = time.Minute
	}

	s := &Server{
		svc:    svc,
		gmail:  gmail,
		logger: logger,
	}
	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/discovery", func(r chi.Router) {
			r.Post("/run", s.handleDiscoveryRun)
			r.Get("/status", s.handleDiscoveryStatus)
			r.Post("/subscriptions", s.handleSaveDiscovered)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", s.handleListSubscriptions)
			r.Get("/summary", s.handleSummary)
			r.Delete("/{id}", s.handleRemoveSubscription)
		})

		r.Route("/plaid", func(r chi.Router) {
			r.Post("/link-token", s.handleLinkToken)
			r.Post("/exchange", s.handlePlaidExchange)
		})

		r.Route("/gmail", func(r chi.Router) {
			r.Get("/auth-url", s.handleGmailAuthURL)
			r.Get("/callback", s.handleGmailCallback)
		})
	})
	return r
}

// Handler returns the server's HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "address", s.http.Addr)
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down http server")
		return s.http.Shutdown(timeoutCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return DefaultUserID
}
