package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/signaldesk/signaldesk/internal/app"
	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/logging"
	httpserver "github.com/signaldesk/signaldesk/internal/server"
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

	logger, err := logging.New(cfg.Logging, "service", "signaldesk-mcp")
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting signaldesk MCP server")

	dialer := toolsession.SSEDialer{
		ClientName:    cfg.Providers.ClientName,
		ClientVersion: cfg.Providers.ClientVersion,
	}
	services, err := app.Build(&cfg, dialer, nil, logger)
	if err != nil {
		logger.Error("failed to build services", "error", err)
		os.Exit(1)
	}

	mcpServer := newMCPServer(services, cfg.Providers.ClientVersion, logger)
	sse := server.NewSSEServer(mcpServer)

	mux := http.NewServeMux()
	mux.Handle("/sse", sse)
	mux.Handle("/message", sse)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// SSE streams are long-lived; no write deadline.
	serverCfg := cfg.Server
	serverCfg.Port = cfg.MCPServer.Port
	serverCfg.WriteTimeout = 0
	srv := httpserver.New(serverCfg, logger, mux)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("MCP server listening", "port", serverCfg.Port, "sse_path", "/sse")

	waitForSignal(logger)

	logger.Info("shutting down")
	if err := sse.Shutdown(context.Background()); err != nil {
		logger.Error("sse shutdown error", "error", err)
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	services.Close()
}

// newMCPServer registers the consumer-facing tools.
func newMCPServer(services *app.Services, version string, logger *slog.Logger) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"signaldesk",
		version,
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createGetSentimentTool(), handleGetSentiment(services.Sentiment, logger))
	mcpServer.AddTool(createGetMarketSnapshotsTool(), handleGetMarketSnapshots(services.Market, logger))
	mcpServer.AddTool(createGetComparablesTool(), handleGetComparables(services.Comparables, services.Market, logger))
	return mcpServer
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
}
