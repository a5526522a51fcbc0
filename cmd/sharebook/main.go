package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dmelo/sharebook/internal/config"
	"github.com/dmelo/sharebook/internal/domain"
	"github.com/dmelo/sharebook/internal/engine"
	"github.com/dmelo/sharebook/internal/handler"
	"github.com/dmelo/sharebook/internal/ledger"
	"github.com/dmelo/sharebook/internal/service"
	"github.com/dmelo/sharebook/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load .env if present, then configuration from the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Stores.
	instrumentStore := store.NewInstrumentStore()
	orderStore := store.NewOrderStore()
	tradeStore := store.NewTradeStore()
	webhookStore := store.NewWebhookStore()

	// Ledgers.
	ownership := ledger.NewOwnership()
	tokens := ledger.NewMemoryTokenLedger(cfg.TokenReserve)

	// Notifiers: webhooks plus the websocket event stream.
	webhookSvc := service.NewWebhookService(webhookStore, cfg.WebhookTimeout)
	hub := handler.NewHub(logger)
	notifier := domain.MultiNotifier{webhookSvc, hub}

	// Engine.
	book := engine.NewOrderBook()
	eng := engine.New(book, instrumentStore, orderStore, tradeStore, ownership, tokens, notifier)

	// Services.
	instrumentSvc := service.NewInstrumentService(eng, instrumentStore)
	orderSvc := service.NewOrderService(eng, orderStore)
	marketSvc := service.NewMarketService(instrumentStore, book, tradeStore, ownership, tokens)

	// Router.
	router := handler.NewRouter(instrumentSvc, orderSvc, marketSvc, webhookSvc, hub, logger)

	// Start the stream hub with a cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops the hub).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
