package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/lucent/lucent/core-go/internal/config"
	"github.com/lucent/lucent/core-go/internal/export"
	mw "github.com/lucent/lucent/core-go/internal/middleware"
	"github.com/lucent/lucent/core-go/internal/session"
	"github.com/lucent/lucent/core-go/internal/texcache"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := session.NewRegistry(logger,
		session.WithHistoryLimit(cfg.HistoryLimit),
		session.WithCacheOptions(
			texcache.WithScale(cfg.RasterScale),
			texcache.WithPadding(cfg.RasterPadding),
			texcache.WithMaxSize(cfg.MaxTextureSize),
		),
	)

	hub := session.NewHub(logger)
	go hub.Run(ctx)

	sessionHandler := session.NewHandler(registry, hub, cfg.Origins(), cfg.SampleDocument, logger)
	exportHandler := export.NewHandler(registry, logger)

	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	sessionHandler.Routes(r)
	r.HandleFunc("/api/sessions/{sessionId}/export.png", exportHandler.ExportPNG).Methods("GET")

	// Global middleware, outside the router so preflight requests reach CORS.
	handler := mw.Recovery(mw.Logger(mw.CORS(cfg.Origins())(r)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "sample", cfg.SampleDocument)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
