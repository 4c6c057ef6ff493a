// Package main is the entry point for the hpn-text-optimizer server.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hpn/hpn-text-optimizer/internal/config"
	"github.com/hpn/hpn-text-optimizer/internal/dispatch"
	"github.com/hpn/hpn-text-optimizer/internal/domain"
	"github.com/hpn/hpn-text-optimizer/internal/handler"
	"github.com/hpn/hpn-text-optimizer/internal/security"
	"github.com/hpn/hpn-text-optimizer/internal/ui"
	"github.com/joho/godotenv"
)

func main() {
	// =========================================================================
	// 1. Load .env (optional) and setup structured logger
	// =========================================================================
	envErr := godotenv.Load()

	logger := setupLogger(os.Stdout, os.Getenv("TEXTOPT_LOGGING_LEVEL"), os.Getenv("TEXTOPT_LOGGING_FORMAT"))
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("failed to load .env", slog.String("error", envErr.Error()))
	}

	ui.PrintBanner()
	logger.Info("starting hpn-text-optimizer")

	// =========================================================================
	// 2. Load configuration (Singleton); TEXTOPT_CONFIG names an explicit file
	// =========================================================================
	cfg, err := config.GetConfigWithPath(os.Getenv("TEXTOPT_CONFIG"))
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger = setupLogger(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded",
		slog.String("address", cfg.Addr()),
		slog.String("settings_path", cfg.Settings.Path),
		slog.Duration("request_timeout", cfg.RequestTimeout()),
		slog.Duration("cache_ttl", cfg.CacheTTL()),
	)

	// =========================================================================
	// 3. Open the settings store
	// =========================================================================
	store, err := config.NewSettingsStore(cfg.Settings.Path, config.WithSettingsLogger(logger))
	if err != nil {
		logger.Error("failed to open settings", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// =========================================================================
	// 4. Build the engine and the router
	// =========================================================================
	console := ui.NewConsole(nil)
	engine := newEngine(cfg, store, logger, console)
	defer engine.Close()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(engine, logger, console)

	// =========================================================================
	// 5. Start HTTP server with graceful shutdown
	// =========================================================================
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	current, err := store.Get(context.Background())
	if err != nil {
		logger.Warn("failed to read settings for startup info", slog.String("error", err.Error()))
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", slog.String("address", srv.Addr))
		console.PrintStartupInfo(ui.StartupInfo{
			Addr:         srv.Addr,
			Provider:     string(current.Provider()),
			Model:        startupModel(engine, current),
			SettingsPath: store.Path(),
		})

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// =========================================================================
	// 6. Graceful shutdown on SIGTERM/SIGINT
	// =========================================================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	console.PrintShutdown()

	// Create shutdown context with timeout
	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
		return
	}

	logger.Info("server stopped gracefully")
	console.PrintGoodbye()
}

// newEngine wires the dispatch engine from configuration.
func newEngine(cfg *config.Configuration, store *config.SettingsStore, logger *slog.Logger, observer dispatch.Observer) *dispatch.Engine {
	cache := dispatch.NewResponseCache(
		dispatch.WithCacheTTL(cfg.CacheTTL()),
		dispatch.WithSweepInterval(cfg.SweepInterval()),
		dispatch.WithCacheLogger(logger),
	)

	return dispatch.NewEngine(store,
		dispatch.WithCache(cache),
		dispatch.WithLogger(logger),
		dispatch.WithObserver(observer),
		dispatch.WithRequestTimeout(cfg.RequestTimeout()),
		dispatch.WithTestTimeout(cfg.TestTimeout()),
		dispatch.WithMinInputLength(cfg.Dispatch.MinInputLength),
		dispatch.WithMaxResponseBytes(cfg.Dispatch.MaxResponseBytes),
		dispatch.WithTemplateFallback(cfg.Dispatch.AllowTemplateFallback),
	)
}

// startupModel is the model optimize calls will use: the stored variant, or
// the selected provider's default.
func startupModel(engine *dispatch.Engine, current domain.Settings) string {
	if current.ModelVariant != "" {
		return current.ModelVariant
	}
	for _, p := range engine.Providers() {
		if p.ID != current.Provider() {
			continue
		}
		if override := current.APIConfigFor(p.ID).Model; override != "" {
			return override
		}
		return p.DefaultModel
	}
	return ""
}

// newRouter builds the gin router with middleware and boundary routes.
// A nil printer disables console request lines.
func newRouter(engine handler.Engine, logger *slog.Logger, printer handler.RequestPrinter) *gin.Engine {
	router := gin.New()

	// Apply middleware
	router.Use(handler.RecoveryMiddleware(logger))
	router.Use(handler.RequestIDMiddleware())
	router.Use(handler.CORSMiddleware())
	router.Use(handler.LoggingMiddleware(logger, printer))

	handler.NewMessageHandler(engine, handler.WithLogger(logger)).RegisterRoutes(router)

	return router
}

// setupLogger creates a structured logger whose output never carries API keys.
func setupLogger(w io.Writer, levelName, format string) *slog.Logger {
	level := slog.LevelInfo
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var inner slog.Handler
	if format == "text" {
		inner = slog.NewTextHandler(w, opts)
	} else {
		inner = slog.NewJSONHandler(w, opts)
	}
	logger := slog.New(security.NewRedactedHandler(inner))

	// Set as default logger
	slog.SetDefault(logger)

	return logger
}
