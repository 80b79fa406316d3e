package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snapstream/internal/analysis"
	"snapstream/internal/handlers"
	"snapstream/internal/logging"
	"snapstream/internal/middleware"
	"snapstream/internal/pipeline"
	"snapstream/internal/startup"
	"snapstream/internal/store"
	"snapstream/internal/thumbnail"
	"snapstream/internal/workers"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// Persistence: remote API first, local cache when it is unreachable.
	remote := store.NewRemoteStore(config.APIBase, config.APITimeout)
	local := store.NewLocalStore(config.CacheFile, config.UserCacheFile)
	gateway := store.NewGateway(remote, local)

	// Analysis: remote provider when credentials are configured,
	// deterministic simulation otherwise.
	provider := analysis.NewRemoteProvider(config.AnalysisURL, config.AnalysisAPIKey, config.AnalysisTimeout)
	if provider == nil {
		logging.Info("No analysis credentials configured, using local simulation")
	}
	analyzer := analysis.NewAnalyzer(provider)

	thumbs := thumbnail.New(config.ThumbnailTimeout)
	notifier := pipeline.NewMemoryNotifier(256)

	workerCount := workers.ForMixed(12)
	logging.Info("Upload pipeline using %d workers", workerCount)
	pipe := pipeline.New(gateway, analyzer, thumbs, notifier, workerCount)

	h := handlers.New(gateway, pipe, notifier, thumbs, config)
	router := h.Router()
	if config.MetricsEnabled {
		router.Handle("/metrics", h.MetricsHandler())
	}

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // uploads and media streaming can run long
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv)

	logging.Info("snapstream app listening on :%s (started in %s)", config.Port, time.Since(startTime).Round(time.Millisecond))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func handleShutdown(srv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logging.Info("Received %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}
	logging.Info("Shutdown complete")
}
