package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/jwebster45206/husky-snow/internal/config"
	"github.com/jwebster45206/husky-snow/internal/logger"
	"github.com/jwebster45206/husky-snow/internal/orchestrator"
	"github.com/jwebster45206/husky-snow/internal/services"
	"github.com/jwebster45206/husky-snow/internal/store"
)

// The host daemon runs the storyteller loop for one session without a
// terminal UI attached. Players connect with the console client using
// the join code printed at startup.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Husky's Snow host",
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider)

	var llmService services.LLMService
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		llmService = services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiSummModel)
		log.Info("Using Gemini LLM provider", "model", cfg.GeminiModel)
	case config.ProviderOpenAI:
		llmService = services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		log.Info("Using OpenAI LLM provider", "model", cfg.OpenAIModel)
	}

	sessionStore := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, log)

	storeCtx, storeCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storeCancel()
	if err := sessionStore.WaitForConnection(storeCtx); err != nil {
		logger.WithError(log, err).Error("Failed to connect to storage")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessionID := os.Getenv("SESSION_ID")
	if sessionID == "" {
		hostID := os.Getenv("HOST_USER_ID")
		if hostID == "" {
			hostID = uuid.NewString()
		}
		sess, err := sessionStore.CreateSession(ctx, hostID)
		if err != nil {
			log.Error("Failed to create session", "error", err)
			os.Exit(1)
		}
		sessionID = sess.ID
		log.Info("Session created", "session_id", sessionID, "host_id", hostID)
	} else {
		sess, err := sessionStore.GetSession(ctx, sessionID)
		if err != nil || sess == nil {
			log.Error("Session not found", "session_id", sessionID, "error", err)
			os.Exit(1)
		}
		log.Info("Attached to session", "session_id", sessionID)
	}

	orch := orchestrator.New(sessionStore, llmService, log)
	if err := orch.Run(ctx, sessionID); err != nil && err != context.Canceled {
		log.Error("Orchestrator stopped", "error", err)
	}

	log.Info("Host is shutting down...")
	if err := sessionStore.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	log.Info("Host exited")
}
