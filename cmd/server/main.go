package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"langsite/config"
	"langsite/internal/authapi"
	"langsite/internal/handlers"
	"langsite/internal/i18n"
	"langsite/internal/langroute"
	"langsite/internal/logger"
	"langsite/internal/metrics"
	"langsite/internal/validation"
	"langsite/internal/version"
	"langsite/middleware"
)

const maxFormBytes = 64 << 10

func main() {
	cfg, configError := config.Load()

	// Initialize structured logger from config
	logger.Init(cfg.LogOptions())
	log := logger.Get()

	if configError != nil {
		log.Fatal().Err(configError).Msg("Invalid configuration")
	}

	log.Info().
		Str("version", version.Version).
		Msg("langsite starting")

	log.Info().
		Str("env", string(cfg.Env)).
		Str("log_level", cfg.LogLevel).
		Str("log_format", cfg.LogFormat).
		Str("storage_backend", cfg.Storage.Backend).
		Str("default_language", cfg.DefaultLanguage).
		Msg("Configuration loaded")

	catalog, catalogError := i18n.Load(i18n.Language(cfg.DefaultLanguage))
	if catalogError != nil {
		log.Fatal().Err(catalogError).Msg("Failed to load translations")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	backend, storageError := openStorage(ctx, cfg.Storage)
	if storageError != nil {
		log.Fatal().Err(storageError).
			Str("backend", cfg.Storage.Backend).
			Msg("Failed to initialize storage")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	recorder := metrics.NewRecorder(registry)
	registry.MustRegister(metrics.NewSiteCollector(catalog, backend.sizer))

	authClient := authapi.NewHTTPClient(cfg.Auth.URL, cfg.Auth.Timeout, authapi.WithObserver(recorder))
	log.Info().
		Str("auth_url", cfg.Auth.URL).
		Dur("auth_timeout", cfg.Auth.Timeout).
		Msg("Auth client initialized")

	webFS, fsError := fs.Sub(embeddedWeb, "web")
	if fsError != nil {
		log.Fatal().Err(fsError).
			Msg("Failed to initialize embedded web filesystem")
	}

	r, routerError := buildRouter(cfg, catalog, authClient, backend, recorder, registry, webFS)
	if routerError != nil {
		log.Fatal().Err(routerError).Msg("Failed to build router")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	stop()
	if err := backend.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close storage")
	}

	log.Info().Msg("Server stopped")
}

// buildRouter wires middleware, the JSON API, metrics, static assets and the localized pages.
func buildRouter(
	cfg config.Config,
	catalog *i18n.Catalog,
	authClient authapi.Client,
	backend storageBackend,
	recorder *metrics.Recorder,
	registry *prometheus.Registry,
	webFS fs.FS,
) (chi.Router, error) {
	languages, err := langroute.New(catalog, recorder)
	if err != nil {
		return nil, err
	}
	assetsFS, err := fs.Sub(webFS, "assets")
	if err != nil {
		return nil, fmt.Errorf("assets filesystem: %w", err)
	}

	r := chi.NewRouter()

	// Middleware must be registered before any routes
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CSRFProtection)
	r.Use(middleware.BodyLimit(maxFormBytes))

	staticHandler := http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS)))
	r.Handle("/assets/*", staticHandler)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = cfg.CORS.AllowedOrigins
	}
	corsConfig.AllowCredentials = cfg.CORS.AllowCredentials
	corsConfig.AllowedMethods = []string{http.MethodGet, http.MethodOptions}

	r.Group(func(api chi.Router) {
		api.Use(middleware.CORS(corsConfig))
		api.Get("/api/health", handlers.HealthCheck)
		api.Get("/api/ready", handlers.ReadinessCheck(backend.probes))
		api.Get("/api/version", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(version.Info())
		})
		api.Get("/api/config", handlers.GetConfig(cfg, catalog, validation.MinPasswordLength, validation.MinNameLength))
		handlers.RegisterI18nRoutes(api, catalog)
	})
	r.Get("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP)

	limitConfig := middleware.AuthRateLimitConfig()
	limitConfig.TrustProxy = cfg.TrustProxy
	err = handlers.RegisterSiteRoutes(r, handlers.SiteDeps{
		Catalog:          catalog,
		Router:           languages,
		Auth:             authClient,
		Storage:          backend.provider,
		WebFS:            webFS,
		TrustProxy:       cfg.TrustProxy,
		OnSessionCorrupt: recorder.SessionCorrupt,
		AuthLimiter:      middleware.RateLimit(limitConfig),
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
