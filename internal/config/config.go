package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Service configuration
	ServiceName string
	Port        int

	// Redis configuration (cache tier + sessions)
	RedisURL     string
	RedisTimeout time.Duration

	// MongoDB configuration (durable tier)
	MongoURL      string
	MongoDatabase string
	MongoTimeout  time.Duration

	// Main backend (identity verification)
	MainBackendURL     string
	MainBackendTimeout time.Duration

	// OpenAI configuration
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAITimeout time.Duration

	// NATS configuration
	NatsURL         string
	NatsChatSubject string

	// Chat configuration
	MaxContextMessages int
	MaxMessageLength   int
	SessionTimeout     time.Duration
}

func Load() *Config {
	return &Config{
		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "pfi-chat-service"),
		Port:        getIntEnv("PORT", 8081),

		// Redis settings
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTimeout: getDurationEnv("REDIS_TIMEOUT", 5*time.Second),

		// MongoDB settings
		MongoURL:      getEnv("MONGODB_URL", ""),
		MongoDatabase: getEnv("MONGODB_DATABASE", "MervalDB"),
		MongoTimeout:  getDurationEnv("MONGODB_TIMEOUT", 5*time.Second),

		// Main backend settings
		MainBackendURL:     getEnv("MAIN_BACKEND_URL", "http://localhost:8080"),
		MainBackendTimeout: getDurationEnv("MAIN_BACKEND_TIMEOUT", 30*time.Second),

		// OpenAI settings
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4-turbo-preview"),
		OpenAITimeout: getDurationEnv("OPENAI_TIMEOUT", 30*time.Second),

		// NATS settings (empty URL disables the NATS transport)
		NatsURL:         getEnv("NATS_URL", ""),
		NatsChatSubject: getEnv("NATS_CHAT_SUBJECT", "chat.message"),

		// Chat settings
		MaxContextMessages: getIntEnv("MAX_CONTEXT_MESSAGES", 20),
		MaxMessageLength:   getIntEnv("MAX_MESSAGE_LENGTH", 2000),
		SessionTimeout:     getDurationEnv("SESSION_TIMEOUT", time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
