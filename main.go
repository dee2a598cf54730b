package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/config"
	"github.com/psylab-io/psy-engine/pkg/handlers"
	"github.com/psylab-io/psy-engine/pkg/llm"
	"github.com/psylab-io/psy-engine/pkg/logging"
	"github.com/psylab-io/psy-engine/pkg/mcp"
	"github.com/psylab-io/psy-engine/pkg/mcp/tools"
	"github.com/psylab-io/psy-engine/pkg/middleware"
	"github.com/psylab-io/psy-engine/pkg/repositories"
	"github.com/psylab-io/psy-engine/pkg/seed"
	"github.com/psylab-io/psy-engine/pkg/services"
	"github.com/psylab-io/psy-engine/pkg/store"
	"github.com/psylab-io/psy-engine/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("database", cfg.Storage.DatabasePath()))

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	st, err := store.Open(cfg.Storage.DatabasePath())
	if err != nil {
		logger.Fatal("Failed to open document store", zap.Error(err))
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	if err := seed.Apply(ctx, st, logger); err != nil {
		logger.Fatal("Failed to seed defaults", zap.Error(err))
	}

	// Repositories
	ontologyRepo := repositories.NewOntologyRepository(st, logger)
	knowledgeRepo := repositories.NewKnowledgeRepository(st, logger)
	promptRepo := repositories.NewPromptRepository(st, logger)
	modelRepo := repositories.NewModelRepository(st, logger)

	// Services
	tester := llm.NewTester(logger)
	ontologyService := services.NewOntologyService(ontologyRepo, logger)
	knowledgeService := services.NewKnowledgeService(knowledgeRepo, ontologyRepo, logger)
	promptService := services.NewPromptService(promptRepo, tester, logger)
	modelService := services.NewModelService(modelRepo, tester, logger)

	mux := http.NewServeMux()

	// Handlers
	handlers.NewHealthHandler(cfg, st, logger).RegisterRoutes(mux)
	handlers.NewOntologyHandler(ontologyService, logger).RegisterRoutes(mux)
	handlers.NewKnowledgeHandler(knowledgeService, logger).RegisterRoutes(mux)
	handlers.NewPromptHandler(promptService, logger).RegisterRoutes(mux)
	handlers.NewModelHandler(modelService, logger).RegisterRoutes(mux)

	// MCP server with read-only modeling tools
	mcpServer := mcp.NewServer("psy-engine", cfg.Version, logger)
	tools.Register(mcpServer.MCP(), &tools.Deps{
		OntologyService:  ontologyService,
		KnowledgeService: knowledgeService,
		PromptService:    promptService,
		Logger:           logger,
	})
	mux.Handle("/mcp", mcpServer.NewStreamableHTTPServer())

	// Console bundle: a directory override for local development, the
	// embedded build otherwise.
	var uiFS fs.FS = ui.DistFS()
	if cfg.UIDir != "" {
		uiFS = os.DirFS(cfg.UIDir)
	}
	mux.Handle("/", http.FileServerFS(uiFS))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting psy-engine",
			zap.String("addr", cfg.Addr()),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
