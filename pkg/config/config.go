package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	BackendURL  string
	FrontendURL string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	TokenEncryptionKey string

	// Pub/Sub push notifications
	GoogleProjectID   string
	GooglePubSubTopic string
	GoogleCredentials string

	// Oracle
	AIProvider          string
	OpenAIAPIKey        string
	OpenAIClassifyModel string
	OpenAISummaryModel  string
	OpenAIMeetingModel  string
	GeminiApiKey        string
	GeminiModel         string
	OllamaBaseURL       string
	OllamaModel         string
	OracleTimeout       time.Duration

	// Sync
	PollInterval       time.Duration
	MaxMessagesPerPoll int64
	SyncWorkers        int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	backendURL := getEnv("BACKEND_URL", "http://localhost:8080")

	openAIKey := getEnv("RIPPLE_OPENAI_API_KEY", getEnv("OPENAI_API_KEY", ""))
	classifyModel := getEnv("OPENAI_CLASSIFY_MODEL", "gpt-4.1-mini")
	summaryModel := getEnv("OPENAI_SUMMARY_MODEL", classifyModel)
	meetingModel := getEnv("OPENAI_MEETING_MODEL", summaryModel)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "sqlite://data/ripple_networking.db"),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		BackendURL:  backendURL,
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		GoogleClientID:     getEnv("GOOGLE_OAUTH_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_OAUTH_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_OAUTH_REDIRECT_URI", backendURL+"/api/gmail/oauth/callback"),
		TokenEncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),

		GoogleProjectID:   getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic: getEnv("GOOGLE_PUBSUB_TOPIC", "gmail-updates"),
		GoogleCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		AIProvider:          getEnv("AI_PROVIDER", "auto"),
		OpenAIAPIKey:        openAIKey,
		OpenAIClassifyModel: classifyModel,
		OpenAISummaryModel:  summaryModel,
		OpenAIMeetingModel:  meetingModel,
		GeminiApiKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:         getEnv("OLLAMA_MODEL", "llama3"),
		OracleTimeout:       getDuration("ORACLE_TIMEOUT", 30*time.Second),

		PollInterval:       getDuration("POLL_INTERVAL", 5*time.Minute),
		MaxMessagesPerPoll: int64(getInt("MAX_MESSAGES_PER_POLL", 10)),
		SyncWorkers:        getInt("SYNC_WORKERS", 3),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
