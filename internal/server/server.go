// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root. New opens the database and builds the chain
// once:
//
//	sqlstore.DB → services (+ validator) → graph.Schema → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, the schema gets services, the handler gets the schema.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/event-logger/internal/auth"
	"github.com/sakif/event-logger/internal/config"
	"github.com/sakif/event-logger/internal/graph"
	"github.com/sakif/event-logger/internal/handler"
	"github.com/sakif/event-logger/internal/middleware"
	"github.com/sakif/event-logger/internal/repository/sqlstore"
	"github.com/sakif/event-logger/internal/service"
	"github.com/sakif/event-logger/internal/validation"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection and closes it when Start returns.
type Server struct {
	router   *chi.Mux
	config   config.Config
	logger   *slog.Logger
	db       *sqlstore.DB
	verifier auth.Verifier
}

// New creates a Server for cfg. Identity tokens are checked with verifier;
// see NewVerifier.
func New(cfg config.Config, logger *slog.Logger, verifier auth.Verifier) (*Server, error) {
	db, err := sqlstore.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		verifier: verifier,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// NewVerifier builds the identity token verifier for cfg: Google ID tokens
// always, plus locally minted development tokens when cfg allows them.
func NewVerifier(ctx context.Context, cfg config.Config, logger *slog.Logger) (auth.Verifier, error) {
	google, err := auth.NewGoogleVerifier(ctx, cfg.GoogleClientID, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return nil, err
	}
	chain := auth.ChainVerifier{google}

	if cfg.DevTokensEnabled() {
		dev, err := auth.NewDevTokens(cfg.DevTokenSecret)
		if err != nil {
			return nil, err
		}
		chain = append(chain, dev)
		logger.Warn("development identity tokens are accepted", slog.String("env", cfg.Env))
	}

	return chain, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTES:
// GET        /          → GraphiQL page (outside production)
// GET|POST   /graphql   → GraphQL endpoint (CORS, metrics, auth context)
// GET        /healthz   → database ping
// GET        /metrics   → prometheus scrape endpoint
//
// MIDDLEWARE ORDER:
// RequestID, then RealIP, then request logging, then Recoverer. Recoverer
// sits inside the logger so a recovered panic is still logged as a 500.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// === Services ===
	validate := validation.New()
	identities := service.NewIdentityService(s.db.Users(), s.logger)
	events := service.NewLoggableEventService(s.db.Events(), s.db.Labels(), validate, s.logger)
	labels := service.NewEventLabelService(s.db.Labels(), s.db.Events(), validate, s.logger)

	schema, err := graph.NewSchema(identities, events, labels, s.logger)
	if err != nil {
		return err
	}

	// === GraphQL ===
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{strings.TrimSuffix(s.config.ClientURL, "/")}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.AllowCredentials(),
	)

	s.router.Group(func(r chi.Router) {
		r.Use(cors)
		r.Use(middleware.Metrics(prometheus.DefaultRegisterer, "graphql"))
		r.Use(auth.Middleware(s.verifier, identities, s.logger))
		r.Handle("/graphql", handler.NewGraphQLHandler(schema, s.logger))
	})

	// === Operations ===
	s.router.Get("/healthz", handler.NewHealthHandler(s.db, s.logger).ServeHTTP)
	s.router.Handle("/metrics", promhttp.Handler())

	// === Development ===
	if !s.config.IsProduction() {
		graphiql, err := handler.NewGraphiQLHandler("/graphql", s.logger)
		if err != nil {
			return fmt.Errorf("creating graphiql handler: %w", err)
		}
		s.router.Get("/", graphiql.ServeHTTP)
	}

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on the way out.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// On SIGINT or SIGTERM it stops accepting connections, gives in-flight
// requests 30 seconds to finish, then closes the database.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("url", fmt.Sprintf("http://localhost:%d/graphql", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
