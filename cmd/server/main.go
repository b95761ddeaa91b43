package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/signaldesk/signaldesk/internal/api"
	"github.com/signaldesk/signaldesk/internal/app"
	"github.com/signaldesk/signaldesk/internal/auth"
	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/metrics"
	"github.com/signaldesk/signaldesk/internal/server"
	"github.com/signaldesk/signaldesk/internal/toolsession"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging, "service", "signaldesk")
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting signaldesk")

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	dialer := toolsession.SSEDialer{
		ClientName:    cfg.Providers.ClientName,
		ClientVersion: cfg.Providers.ClientVersion,
	}
	services, err := app.Build(&cfg, dialer, collector, logger)
	if err != nil {
		logger.Error("failed to build services", "error", err)
		os.Exit(1)
	}
	logger.Info("providers configured",
		"market_url", cfg.Providers.MarketURL,
		"sentiment_url", cfg.Providers.SentimentURL,
		"requests_per_second", cfg.Providers.RequestsPerSecond)

	var authenticator *auth.Authenticator
	if cfg.Auth.JWTSecret != "" {
		authenticator, err = auth.NewAuthenticator(auth.Config{
			JWTSecret:     cfg.Auth.JWTSecret,
			AdminPassword: cfg.Auth.AdminPassword,
			TokenDuration: cfg.Auth.TokenDuration,
		})
		if err != nil {
			logger.Error("failed to init authenticator", "error", err)
			os.Exit(1)
		}
	}

	handler := api.NewHandler(api.HandlerDeps{
		Analyzer:  services.Analyzer,
		Sentiment: services.Sentiment,
		Market:    services.Market,
		InCurrency: func(currency string) api.MarketService {
			return services.Market.InCurrency(currency)
		},
		Comparables: services.Comparables,
		Health:      services.Monitor,
		Logger:      logger,
	})

	mux := http.NewServeMux()
	api.SetupRoutes(mux, api.RouterDeps{
		Handler:        handler,
		Sessions:       services.Sessions,
		Authenticator:  authenticator,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger,
	})
	mux.Handle("GET /metrics", collector.Handler())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go services.Monitor.Start(ctx)

	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	services.Close()
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
}
