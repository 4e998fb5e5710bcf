//	@title			Gallery API
//	@version		1.0
//	@description	Image upload gateway backed by S3-compatible object storage.
//
//	@host		localhost:8080
//	@BasePath	/api/v1

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/gallery/service/internal/access"
	"github.com/gallery/service/internal/catalog"
	"github.com/gallery/service/internal/config"
	"github.com/gallery/service/internal/gallery"
	"github.com/gallery/service/internal/logging"
	appMiddleware "github.com/gallery/service/internal/middleware"
	"github.com/gallery/service/internal/metrics"
	"github.com/gallery/service/internal/response"
	"github.com/gallery/service/internal/storage"

	_ "github.com/gallery/service/docs/swagger"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("startup configuration error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := storage.Open(ctx, cfg.StorageOptions(), logger)
	if err != nil {
		cancel()
		logger.Fatal("object storage init failed", zap.Error(err))
	}

	// Probe the backend once; a container we cannot reach or create is fatal.
	if _, err := store.EnsureContainer(ctx); err != nil {
		cancel()
		logger.Fatal("object storage unreachable, check the storage settings in .env", zap.Error(err))
	}
	cancel()
	logger.Info("connected to object storage",
		zap.String("driver", cfg.StorageDriver),
		zap.String("container", cfg.StorageContainer),
		zap.Bool("public", cfg.StoragePublic),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		logger.Fatal("metrics init failed", zap.Error(err))
	}

	// Wire dependencies: store → resolver → catalog → service → handler
	resolver := access.NewResolver(cfg.AccessPolicy(), m, logger)
	builder := catalog.NewBuilder(store, resolver, logger)
	gallerySvc := gallery.NewService(store, builder, m, logger)
	galleryHandler := gallery.NewHandler(gallerySvc, logger)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(logger))
	r.Use(appMiddleware.Recoverer(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "not found")
	})

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	if !cfg.IsProduction() {
		// Swagger UI at http://localhost:8080/swagger/
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/images", func(r chi.Router) {
			r.Get("/", galleryHandler.List)
			r.Post("/", galleryHandler.Upload)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
