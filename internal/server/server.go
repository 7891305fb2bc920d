// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the wiring layer — the composition root where the whole
// dependency chain is assembled:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, and nothing below this package knows
// about chi or routing.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/estate/internal/auth"
	"github.com/sakif/estate/internal/handler"
	"github.com/sakif/estate/internal/middleware"
	sqliteRepo "github.com/sakif/estate/internal/repository/sqlite"
	"github.com/sakif/estate/internal/service"
	"github.com/sakif/estate/internal/upload"
)

// Config holds server configuration, loaded from the environment in
// cmd/server.
type Config struct {
	Port      int
	DBPath    string // path to the SQLite database file
	UploadDir string // directory uploaded images are stored in
	JWTSecret string // HMAC secret for access tokens (required)

	// Google OAuth credentials. Optional — when unset, the server-driven
	// /auth/google/* flow is disabled; the POST /api/auth/google profile
	// endpoint still works.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
}

// Server owns the router and the resources that must be released on
// shutdown (the database connection).
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with the full dependency graph wired.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the root handler, used by tests to run the server inside
// httptest without the listener or signal handling.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware, handlers and the route table.
//
// ROUTE STRUCTURE:
//
//	POST   /api/auth/signup          → register (no cookie)
//	POST   /api/auth/signin          → sign in, sets access_token cookie
//	POST   /api/auth/google          → Google profile sign-in, sets cookie
//	GET    /api/auth/signout         → clears cookie
//	POST   /api/auth/upload          → avatar upload (protected)
//	GET    /api/auth/me              → current user (protected)
//	PUT    /api/user/update/{id}     → partial profile update (protected)
//	DELETE /api/user/delete/{id}     → delete own account (protected)
//	GET    /api/user/listings/{id}   → a user's listings (protected)
//	POST   /api/listing/create       → create listing (protected)
//	GET    /api/listing/get/{id}     → one listing (public)
//	PUT    /api/listing/update/{id}  → update own listing (protected)
//	DELETE /api/listing/delete/{id}  → delete own listing (protected)
//	POST   /api/listing/upload       → listing image batch (protected)
//	GET    /auth/google/login        → server-driven OAuth redirect
//	GET    /auth/google/callback     → OAuth callback
//	GET    /uploads/*                → stored images (static)
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var google *auth.GoogleProvider
	if s.config.GoogleClientID != "" && s.config.GoogleClientSecret != "" {
		google = auth.NewGoogleProvider(
			s.config.GoogleClientID,
			s.config.GoogleClientSecret,
			s.config.GoogleCallbackURL,
		)
	} else {
		s.logger.Warn("Google OAuth credentials not set — /auth/google routes disabled")
	}

	uploadStore, err := upload.NewStore(s.config.UploadDir)
	if err != nil {
		return fmt.Errorf("creating upload store: %w", err)
	}

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	userService := service.NewUserService(s.db.Users(), passwords, s.logger)
	listingService := service.NewListingService(s.db.Listings(), s.logger)

	authHandler := handler.NewAuthHandler(authService, google, s.logger)
	userHandler := handler.NewUserHandler(userService, listingService, s.logger)
	listingHandler := handler.NewListingHandler(listingService, s.logger)
	uploadHandler := handler.NewUploadHandler(uploadStore, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.HandleSignUp)
			r.Post("/signin", authHandler.HandleSignIn)
			r.Post("/google", authHandler.HandleGoogle)
			r.Get("/signout", authHandler.HandleSignOut)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/upload", uploadHandler.HandleAvatarUpload)
				r.Get("/me", authHandler.HandleMe(userService))
			})
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(requireAuth)
			r.Put("/update/{id}", userHandler.HandleUpdate)
			r.Delete("/delete/{id}", userHandler.HandleDelete)
			r.Get("/listings/{id}", userHandler.HandleListings)
		})

		r.Route("/listing", func(r chi.Router) {
			r.Get("/get/{id}", listingHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/create", listingHandler.HandleCreate)
				r.Put("/update/{id}", listingHandler.HandleUpdate)
				r.Delete("/delete/{id}", listingHandler.HandleDelete)
				r.Post("/upload", uploadHandler.HandleListingImagesUpload)
			})
		})
	})

	s.router.Get("/auth/google/login", authHandler.HandleGoogleLogin)
	s.router.Get("/auth/google/callback", authHandler.HandleGoogleCallback)

	// Uploaded images are served straight from disk at the same relative
	// path the API hands out ("uploads/<name>").
	fileServer := http.FileServer(http.Dir(uploadStore.Dir()))
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))

	return nil
}

// Start starts the HTTP server and handles graceful shutdown:
// stop accepting connections, give in-flight requests 30 seconds, then
// close the database (flushes the WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
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
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
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
