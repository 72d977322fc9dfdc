package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const DefaultChatEndpoint = "https://api.sarvam.ai/v1/chat/completions"

// Config is built once at startup and handed to the components that need it.
type Config struct {
	Port         string
	APIKey       string
	ChatEndpoint string
	FrontendDir  string
	SystemPrompt string // empty disables the system message
	LogDBPath    string // empty disables the relay log
	RunnerLog    string

	Generation GenerationLimits
	Timeouts   StreamTimeouts
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	apiKey := os.Getenv("SARVAM_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("SARVAM_API_KEY not set. Check your .env file")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	endpoint := os.Getenv("SARVAM_CHAT_ENDPOINT")
	if endpoint == "" {
		endpoint = DefaultChatEndpoint
	}

	frontendDir := os.Getenv("FRONTEND_DIR")
	if frontendDir == "" {
		frontendDir = "frontend"
	}

	systemPrompt, ok := os.LookupEnv("SYSTEM_PROMPT")
	switch {
	case !ok || systemPrompt == "":
		systemPrompt = DefaultSystemPrompt
	case systemPrompt == "none":
		systemPrompt = ""
	}

	runnerLog := os.Getenv("RUNNER_LOG")
	if runnerLog == "" {
		runnerLog = "runner.log"
	}

	var err error
	timeouts := DefaultStreamTimeouts()
	if timeouts.StreamIdle, err = durationEnv("STREAM_IDLE_TIMEOUT", timeouts.StreamIdle); err != nil {
		return nil, err
	}
	if timeouts.UpstreamHeaders, err = durationEnv("UPSTREAM_HEADER_TIMEOUT", timeouts.UpstreamHeaders); err != nil {
		return nil, err
	}

	return &Config{
		Port:         port,
		APIKey:       apiKey,
		ChatEndpoint: endpoint,
		FrontendDir:  frontendDir,
		SystemPrompt: systemPrompt,
		LogDBPath:    os.Getenv("CHAT_LOG_DB"),
		RunnerLog:    runnerLog,
		Generation:   DefaultGenerationLimits(),
		Timeouts:     timeouts,
	}, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, raw)
	}
	return d, nil
}
