package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/jwebster45206/husky-snow/internal/config"
	"github.com/jwebster45206/husky-snow/internal/services"
	"github.com/jwebster45206/husky-snow/internal/store"
)

const appDirName = ".husky-snow"

func main() {
	_ = godotenv.Load()

	// The store and orchestrator log through slog. Send that to a file
	// so it cannot corrupt the alt-screen UI.
	setupFileLogging()

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	redisPassword := getEnv("REDIS_PASSWORD", "")

	sessionStore := store.NewRedisStore(redisAddr, redisPassword, nil)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sessionStore.Ping(pingCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Could not connect to Redis at %s.\nPlease ensure it is running, e.g.: docker-compose up -d\n", redisAddr)
		os.Exit(1)
	}

	// The LLM is only needed when hosting. Guests can join without keys.
	llm := buildLLMService()

	userID, err := loadIdentity()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load identity: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(sessionStore, llm, userID),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// buildLLMService constructs the provider from the environment, or nil
// when no usable key is configured.
func buildLLMService() services.LLMService {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", config.ProviderGemini))
	switch provider {
	case config.ProviderGemini:
		key := getEnv("GEMINI_API_KEY", "")
		if key == "" {
			return nil
		}
		return services.NewGeminiService(key,
			getEnv("GEMINI_MODEL", "gemini-2.5-pro"),
			getEnv("GEMINI_SUMMARIZER_MODEL", "gemini-2.5-flash"))
	case config.ProviderOpenAI:
		key := getEnv("OPENAI_API_KEY", "")
		if key == "" {
			return nil
		}
		return services.NewOpenAIService(key,
			getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			getEnv("OPENAI_BASE_URL", ""))
	default:
		return nil
	}
}

func setupFileLogging() {
	handler := slog.NewTextHandler(io.Discard, nil)
	if dir, err := appDir(); err == nil {
		f, err := os.OpenFile(filepath.Join(dir, "console.log"),
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err == nil {
			handler = slog.NewTextHandler(f, nil)
		}
	}
	slog.SetDefault(slog.New(handler))
}

func appDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	dir := filepath.Join(home, appDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create app directory: %w", err)
	}
	return dir, nil
}

// loadIdentity returns the persisted local user id, creating one on
// first run.
func loadIdentity() (string, error) {
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "identity")

	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	}

	id := uuid.NewString()
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("failed to persist identity: %w", err)
	}
	return id, nil
}

// sessionPointerPath is the file holding the last-used session id so
// the console can offer to resume it.
func sessionPointerPath() (string, error) {
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session"), nil
}

func loadSessionPointer() string {
	path, err := sessionPointerPath()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveSessionPointer(id string) {
	path, err := sessionPointerPath()
	if err != nil {
		return
	}
	_ = os.WriteFile(path, []byte(id+"\n"), 0o600)
}

func clearSessionPointer() {
	path, err := sessionPointerPath()
	if err != nil {
		return
	}
	_ = os.Remove(path)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
