package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/merval-inteligente/pfi-chat-service/internal/auth"
	"github.com/merval-inteligente/pfi-chat-service/internal/chat"
	"github.com/merval-inteligente/pfi-chat-service/internal/config"
	"github.com/merval-inteligente/pfi-chat-service/internal/handlers"
	"github.com/merval-inteligente/pfi-chat-service/internal/llm"
	"github.com/merval-inteligente/pfi-chat-service/internal/memory"
	"github.com/merval-inteligente/pfi-chat-service/internal/session"
	"github.com/merval-inteligente/pfi-chat-service/internal/transport"
)

func main() {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("Starting MERVAL chat service...")

	cfg := config.Load()
	log.Printf("Service: %s", cfg.ServiceName)
	log.Printf("Main backend: %s", cfg.MainBackendURL)

	// Cache tier. A failed connection degrades the service instead of
	// stopping it; the durable tier or the local fallback still accept
	// writes.
	var cacheTier memory.Tier
	var redisClient *redis.Client
	redisTier, err := memory.NewRedisTier(cfg.RedisURL, cfg.RedisTimeout)
	if err != nil {
		log.Printf("Redis unavailable, cache tier disabled: %v", err)
	} else {
		cacheTier = redisTier
		redisClient = redisTier.Client()
		defer redisTier.Close()
		log.Println("Redis connected")
	}

	// Durable tier, also optional.
	var durableTier memory.Tier
	if cfg.MongoURL != "" {
		mongoTier, err := memory.NewMongoTier(cfg.MongoURL, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			log.Printf("MongoDB unavailable, durable tier disabled: %v", err)
		} else {
			durableTier = mongoTier
			defer mongoTier.Close(context.Background())
			log.Printf("MongoDB connected to %s", cfg.MongoDatabase)
		}
	}

	orchestrator := memory.NewOrchestrator(cacheTier, durableTier, memory.Options{
		MaxContextMessages: cfg.MaxContextMessages,
		SessionTTL:         cfg.SessionTimeout,
		CallTimeout:        cfg.RedisTimeout,
	})

	sessions := session.NewManager(redisClient, cfg.SessionTimeout, orchestrator)
	orchestrator.SetSessions(sessions)

	assembler := memory.NewAssembler(orchestrator, cfg.MaxContextMessages)

	// Model provider: OpenAI when a key is configured, demo tables
	// otherwise.
	var provider llm.Provider
	if cfg.OpenAIAPIKey != "" {
		openaiProvider, err := llm.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			log.Fatalf("Failed to initialize OpenAI provider: %v", err)
		}
		provider = openaiProvider
		log.Printf("Using OpenAI model %s", cfg.OpenAIModel)
	} else {
		provider = llm.NewDemoProvider()
		log.Println("OPENAI_API_KEY not set, running in demo mode")
	}

	verifier := auth.NewBackendVerifier(cfg.MainBackendURL, cfg.MainBackendTimeout)
	turns := chat.NewService(orchestrator, assembler, provider, cfg.MaxMessageLength)

	// HTTP surface
	router := gin.Default()
	handler := handlers.NewChatHandler(verifier, turns, orchestrator, sessions, provider.Name())
	handler.RegisterRoutes(router)
	handler.RegisterWebSocket(router)

	// NATS surface (optional)
	if cfg.NatsURL != "" {
		natsTransport, err := transport.NewNATSTransport(
			cfg.NatsURL, cfg.NatsChatSubject, cfg.ServiceName,
			cfg.MainBackendTimeout, verifier, turns,
		)
		if err != nil {
			log.Fatalf("Failed to initialize NATS transport: %v", err)
		}
		defer natsTransport.Close()

		if err := natsTransport.Start(); err != nil {
			log.Fatalf("Failed to start NATS transport: %v", err)
		}
		log.Printf("Listening on subject: %s", cfg.NatsChatSubject)
	}

	srv := newHTTPServer(router, fmt.Sprintf(":%d", cfg.Port))
	go func() {
		log.Printf("HTTP server listening on %s", srv.addr())
		if err := srv.run(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("Received signal: %v", sig)
	log.Println("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	log.Println("MERVAL chat service stopped")
}
