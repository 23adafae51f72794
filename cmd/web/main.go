package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/averlow/otpgate/internal/auth"
	"github.com/averlow/otpgate/internal/config"
	"github.com/averlow/otpgate/internal/database"
	"github.com/averlow/otpgate/internal/handlers"
	middlewareCustom "github.com/averlow/otpgate/internal/middleware"
	"github.com/averlow/otpgate/internal/repositories"
	"github.com/averlow/otpgate/internal/routes"
	"github.com/averlow/otpgate/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Open database and apply migrations
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Token and TOTP managers
	tokenManager := auth.NewTokenManager(
		cfg.Auth.SessionSecret,
		cfg.Auth.SessionTokenExpiry,
		cfg.Auth.PendingTokenExpiry,
	)

	totpManager, err := auth.NewTOTPManager(cfg.Auth.MFAEncryptionKey, cfg.Auth.Issuer)
	if err != nil {
		logger.Error("failed to initialize TOTP manager", slog.Any("error", err))
		os.Exit(1)
	}

	// Repositories and services
	userRepo := repositories.NewUserRepository(db)
	accountService := services.NewAccountService(userRepo, tokenManager, logger)
	mfaService := services.NewMFAService(userRepo, totpManager, tokenManager, logger)

	// Handlers
	renderer := handlers.NewRenderer(logger)
	cookieConfig := auth.CookieConfig{Secure: cfg.Auth.SecureCookies}
	accountHandler := handlers.NewAccountHandler(accountService, renderer, cookieConfig, cfg.Auth.SessionTokenExpiry, cfg.Auth.PendingTokenExpiry)
	mfaHandler := handlers.NewMFAHandler(mfaService, accountService, renderer, cookieConfig, cfg.Auth.SessionTokenExpiry)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, accountHandler, mfaHandler, tokenManager)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
