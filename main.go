package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"viz-agent/agent"
	"viz-agent/config"
	"viz-agent/llmclient"
	"viz-agent/sandbox"
	"viz-agent/web"
	"viz-agent/web/session"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Load config (which includes log level setting)
	cfg := config.Load(tempLogger)

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to re-initialize logger with configured level: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()

	if cfg.LLMAPIKey == "" {
		logger.Warn("LLM_API_KEY is not set; analysis requests will fail authentication")
	}

	llm := llmclient.New(cfg, logger)
	executor := sandbox.New(cfg, logger)
	vizAgent := agent.New(cfg, llm, executor, logger)

	sessions := session.NewStore(cfg.CacheSize)
	webServer := web.NewServer(vizAgent, sessions, logger, cfg)

	// Create context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go web.StartSessionCleanup(ctx, cfg, sessions, webServer.RateLimiter(), logger)

	port := fmt.Sprintf(":%d", cfg.WebPort)
	logger.Info("Starting Viz Agent web server", zap.String("port", port))
	if err := webServer.Start(ctx, port); err != nil {
		logger.Error("Web server error", zap.Error(err))
		os.Exit(1)
	}
}
