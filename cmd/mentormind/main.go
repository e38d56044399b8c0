// MentorMind orchestrator server - runs the HTTP API and the background
// judge worker pool that scores learner evaluations against an LLM judge.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/mentormind/mentormind/pkg/api"
	"github.com/mentormind/mentormind/pkg/chat"
	"github.com/mentormind/mentormind/pkg/config"
	"github.com/mentormind/mentormind/pkg/database"
	"github.com/mentormind/mentormind/pkg/evidence"
	"github.com/mentormind/mentormind/pkg/judge"
	"github.com/mentormind/mentormind/pkg/llmgateway"
	"github.com/mentormind/mentormind/pkg/queue"
	"github.com/mentormind/mentormind/pkg/snapshot"
	"github.com/mentormind/mentormind/pkg/vectormemory"
)

// embeddingDimension is the vector size produced by every embedding
// provider this module supports (OpenAI's text-embedding-3-small/large
// family), and therefore the dimension Qdrant's collection is created with.
const embeddingDimension = 1536

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

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	} else {
		slog.Info("loaded environment file", "path", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	slog.Info("starting mentormind", "http_port", httpPort, "config_dir", *configDir)

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("failed to load database config", "error", err)
		os.Exit(1)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("error closing database client", "error", err)
		}
	}()
	slog.Info("connected to postgresql, schema migrated")

	usageSink, err := llmgateway.NewUsageSink(cfg.Defaults.LLMLogPath)
	if err != nil {
		slog.Error("failed to open llm usage log", "path", cfg.Defaults.LLMLogPath, "error", err)
		os.Exit(1)
	}

	judgeGateway, err := newGateway(cfg, cfg.Defaults.JudgeModel, usageSink)
	if err != nil {
		slog.Error("failed to configure judge model gateway", "error", err)
		os.Exit(1)
	}
	coachGateway, err := newGateway(cfg, cfg.Defaults.CoachModel, usageSink)
	if err != nil {
		slog.Error("failed to configure coach model gateway", "error", err)
		os.Exit(1)
	}
	embedder, err := newEmbeddingGateway(cfg, cfg.Defaults.EmbeddingModel, usageSink)
	if err != nil {
		slog.Error("failed to configure embedding model gateway", "error", err)
		os.Exit(1)
	}

	var memory *vectormemory.Store
	if cfg.VectorStore != nil {
		memory, err = vectormemory.New(ctx, cfg.VectorStore.Address, cfg.VectorStore.CollectionName, embeddingDimension)
		if err != nil {
			slog.Error("failed to connect to vector memory store", "error", err)
			os.Exit(1)
		}
		slog.Info("connected to qdrant vector memory", "address", cfg.VectorStore.Address, "collection", cfg.VectorStore.CollectionName)
	} else {
		slog.Warn("no vector_store configured, judge runs will skip past-mistake context")
	}

	evidenceOpts := evidence.Options{
		AnchorLen:    cfg.Defaults.EvidenceAnchorLen,
		SearchWindow: cfg.Defaults.EvidenceSearchWindow,
	}

	snapshotService := snapshot.NewService(dbClient.Client)
	orchestrator := judge.NewOrchestrator(
		dbClient.Client,
		judgeGateway,
		embedder,
		memory,
		snapshotService,
		evidenceOpts,
		cfg.Defaults.JudgeModel,
		cfg.Defaults.JudgeStageTimeout,
		cfg.Defaults.MaxChatTurns,
	)

	podID := getEnv("POD_ID", hostnameOrRandom())
	workerPool := queue.NewWorkerPool(podID, dbClient.Client, cfg.Queue, orchestrator)
	workerPool.Start(ctx)
	slog.Info("judge worker pool started", "pod_id", podID, "worker_count", cfg.Queue.WorkerCount)

	chatEngine := chat.NewEngine(dbClient.Client, coachGateway, cfg.Defaults.ChatHistoryWindow)

	server := api.NewServer(cfg, dbClient, chatEngine, snapshotService, workerPool)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "port", httpPort)
		if err := server.Start(":" + httpPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received, draining in-flight work", "signal", sig.String())
	case err := <-errCh:
		slog.Error("http server failed", "error", err)
	}

	workerPool.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("error shutting down http server", "error", err)
	}

	slog.Info("mentormind stopped")
}

func newGateway(cfg *config.Config, modelName string, sink *llmgateway.UsageSink) (*llmgateway.Gateway, error) {
	providerCfg, err := cfg.GetLLMProvider(modelName)
	if err != nil {
		return nil, fmt.Errorf("resolve provider %q: %w", modelName, err)
	}
	apiKey := os.Getenv(providerCfg.APIKeyEnv)
	return llmgateway.New(modelName, providerCfg, apiKey, sink), nil
}

func newEmbeddingGateway(cfg *config.Config, modelName string, sink *llmgateway.UsageSink) (*llmgateway.EmbeddingGateway, error) {
	providerCfg, err := cfg.GetLLMProvider(modelName)
	if err != nil {
		return nil, fmt.Errorf("resolve provider %q: %w", modelName, err)
	}
	apiKey := os.Getenv(providerCfg.APIKeyEnv)
	return llmgateway.NewEmbeddingGateway(modelName, providerCfg, apiKey, sink), nil
}

func hostnameOrRandom() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return uuid.New().String()
}
