// Concierge assistant server — serves the chat and agent streaming
// endpoints, the file sandbox API, and WebSocket event delivery.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/brightpath-labs/concierge/pkg/api"
	"github.com/brightpath-labs/concierge/pkg/cleanup"
	"github.com/brightpath-labs/concierge/pkg/config"
	"github.com/brightpath-labs/concierge/pkg/database"
	"github.com/brightpath-labs/concierge/pkg/events"
	"github.com/brightpath-labs/concierge/pkg/llm"
	"github.com/brightpath-labs/concierge/pkg/services"
	"github.com/brightpath-labs/concierge/pkg/tools"
	"github.com/brightpath-labs/concierge/pkg/tools/casestudy"
	"github.com/brightpath-labs/concierge/pkg/tools/files"
	"github.com/brightpath-labs/concierge/pkg/tools/websearch"
	"github.com/brightpath-labs/concierge/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		logger.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	}

	logger.Info("Starting concierge", "version", version.Full(), "config_dir", *configDir)

	if err := run(logger, *configDir); err != nil {
		logger.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configDir string) error {
	ctx := context.Background()

	cfg, err := config.Initialize(configDir)
	if err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	// Database and migrations.
	dbConfig := database.LoadConfigFromEnv()
	dbClient, err := database.NewClient(ctx, dbConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logger.Error("Error closing database client", "error", err)
		}
	}()

	turnService := services.NewTurnService(dbClient.DB())
	stepService := services.NewStepService(dbClient.DB())
	eventService := services.NewEventService(dbClient.DB())

	// Streaming infrastructure: publisher writes events, the listener's
	// dedicated connection feeds the WebSocket fan-out.
	publisher := events.NewPublisher(dbClient.DB(), logger)
	var connManager *events.ConnectionManager
	notifyListener := events.NewNotifyListener(dbConfig.DSN(), func(channel, payload string) {
		connManager.HandleNotification(channel, payload)
	}, logger)
	connManager = events.NewConnectionManager(notifyListener, eventService, logger)

	if err := notifyListener.Start(ctx); err != nil {
		return fmt.Errorf("failed to start notification listener: %w", err)
	}
	defer notifyListener.Stop()

	retention := cleanup.NewService(cfg.Retention, eventService, logger)
	retention.Start(ctx)
	defer retention.Stop()

	// LLM client.
	llmClient := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey(),
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})

	// Tool registry. Search-backed tools are only offered when a Brave
	// key is present; the file tools always are.
	registry := tools.NewRegistry()

	fileService, err := files.NewService(cfg.Files.KnowledgeBasePath, cfg.Files.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to initialize file sandbox: %w", err)
	}
	if err := files.RegisterTools(registry, fileService); err != nil {
		return fmt.Errorf("failed to register file tools: %w", err)
	}

	if braveKey := cfg.Search.APIKey(); braveKey != "" {
		searchClient := websearch.NewClient(braveKey)
		searchTool := websearch.NewTool(searchClient)
		if err := registry.Register(searchTool); err != nil {
			return fmt.Errorf("failed to register web search tool: %w", err)
		}
		caseStudyTool := casestudy.NewTool(searchTool, llmClient)
		if err := registry.Register(caseStudyTool); err != nil {
			return fmt.Errorf("failed to register case study tool: %w", err)
		}
	} else {
		logger.Warn("Search API key not set, web search tools disabled",
			"env", cfg.Search.APIKeyEnv)
	}
	logger.Info("Tools registered", "tools", registry.Names())

	// HTTP server.
	server := api.NewServer(api.Deps{
		Config:    cfg,
		Logger:    logger,
		LLMClient: llmClient,
		Registry:  registry,
		FileSvc:   fileService,
		DBClient:  dbClient,
		TurnSvc:   turnService,
		StepSvc:   stepService,
		EventSvc:  eventService,
		Publisher: publisher,
		ConnMgr:   connManager,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("Shutdown complete")
	return nil
}
