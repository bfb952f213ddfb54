package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fotoden/fotoden/internal"
	"github.com/fotoden/fotoden/internal/handler"
	"github.com/fotoden/fotoden/internal/metrics"
	"github.com/fotoden/fotoden/internal/middleware"
	"github.com/fotoden/fotoden/internal/repository"
	"github.com/fotoden/fotoden/internal/service"
	"github.com/fotoden/fotoden/internal/storage"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize blob storage
	store, localBasePath, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Initialize services
	userService := service.NewUserService(repo, logger)
	photoService := service.NewPhotoService(
		repo,
		store,
		service.NewImagingProcessor(cfg.ThumbnailWidth, cfg.ThumbnailQuality),
		service.NewExifExtractor(),
		logger,
		service.PhotoConfig{
			DecodeTimeout: cfg.DecodeTimeout,
			StoreAttempts: uint64(cfg.StoreAttempts),
		},
	)
	galleryService := service.NewGalleryService(repo, store, logger)
	categoryService := service.NewCategoryService(repo, logger)
	tagService := service.NewTagService(repo, logger)

	// Sweep expired sessions in the background
	go pruneSessions(ctx, userService, cfg.SessionPruneInterval, logger)

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, logger, isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	limiter := middleware.NewEndpointRateLimiter(logger)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, logger, isSecure)
	photoHandler := handler.NewPhotoHandler(photoService, galleryService, logger)
	categoryHandler := handler.NewCategoryHandler(categoryService, galleryService, logger)
	tagHandler := handler.NewTagHandler(tagService, galleryService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics, behind basic auth when configured
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Locally stored blobs; production setups serve these from S3/CDN
	if localBasePath != "" {
		filesFS := http.FileServer(http.Dir(localBasePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	// Public routes still resolve the session so private photos are
	// visible to their owners
	public := middleware.Stack(authMw.WithUser, loggingMw.Handler)
	protected := middleware.Stack(authMw.WithUser, loggingMw.Handler, authMw.RequireUser)

	// Auth
	mux.Handle("POST /auth/register", public(limiter.LimitRegister(http.HandlerFunc(authHandler.Register))))
	mux.Handle("POST /auth/login", public(limiter.LimitLogin(http.HandlerFunc(authHandler.Login))))
	mux.Handle("POST /auth/logout", public(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /auth/me", protected(http.HandlerFunc(authHandler.Me)))

	// Gallery
	mux.Handle("GET /gallery", public(http.HandlerFunc(photoHandler.Gallery)))
	mux.Handle("GET /gallery/{slug}", public(http.HandlerFunc(photoHandler.Show)))
	mux.Handle("GET /gallery/{slug}/download", public(http.HandlerFunc(photoHandler.Download)))
	mux.Handle("POST /gallery/{slug}/like", public(http.HandlerFunc(photoHandler.Like)))

	// Photo management
	mux.Handle("POST /photos", protected(limiter.LimitUpload(http.HandlerFunc(photoHandler.Upload))))
	mux.Handle("PATCH /photos/{id}", protected(http.HandlerFunc(photoHandler.Update)))
	mux.Handle("DELETE /photos/{id}", protected(http.HandlerFunc(photoHandler.Delete)))

	// Categories
	mux.Handle("GET /categories", public(http.HandlerFunc(categoryHandler.List)))
	mux.Handle("GET /categories/{id}", public(http.HandlerFunc(categoryHandler.Show)))
	mux.Handle("POST /categories", protected(http.HandlerFunc(categoryHandler.Create)))
	mux.Handle("PATCH /categories/{id}", protected(http.HandlerFunc(categoryHandler.Update)))
	mux.Handle("DELETE /categories/{id}", protected(http.HandlerFunc(categoryHandler.Delete)))

	// Tags
	mux.Handle("GET /tags", public(http.HandlerFunc(tagHandler.List)))
	mux.Handle("GET /tags/{id}", public(http.HandlerFunc(tagHandler.Show)))
	mux.Handle("POST /tags", protected(http.HandlerFunc(tagHandler.Create)))
	mux.Handle("PATCH /tags/{id}", protected(http.HandlerFunc(tagHandler.Update)))
	mux.Handle("DELETE /tags/{id}", protected(http.HandlerFunc(tagHandler.Delete)))

	// Outermost: security headers and request metrics on everything
	root := securityMw.Handler(metrics.Middleware(mux))

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: root,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newStorage builds the configured blob storage backend. The returned base
// path is non-empty only for local storage, where the server itself must
// serve the files.
func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, string, error) {
	switch cfg.StorageProvider {
	case storage.ProviderS3:
		store, err := storage.NewS3Storage(storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			BucketName:      cfg.S3BucketName,
			PublicURL:       cfg.S3PublicURL,
		}, logger)
		return store, "", err
	default:
		store, err := storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
		if err != nil {
			return nil, "", err
		}
		return store, store.BasePath(), nil
	}
}

// pruneSessions deletes expired sessions on a fixed interval.
func pruneSessions(ctx context.Context, users service.UserService, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := users.DeleteExpiredSessions(ctx); err != nil {
				logger.Warn("session prune failed", "error", err)
			}
		}
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
