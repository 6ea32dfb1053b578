package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spiritus-backend/internal/config"
	"spiritus-backend/internal/database"
	"spiritus-backend/internal/handlers"
	"spiritus-backend/internal/middleware"
	"spiritus-backend/internal/router"
	"spiritus-backend/internal/services"
)

func main() {
	log.Println("🚀 Starting Spiritus relay...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("✗ Logger setup failed: %v", err)
	}
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Gemini Client ────
	// A missing key is not fatal: /api/chat answers 500 until it is set.
	var generator services.TextGenerator
	if cfg.GeminiAPIKey != "" {
		geminiService, err := services.NewGeminiService(
			cfg.GeminiAPIKey,
			cfg.GeminiChatModel,
			cfg.GeminiConcurrentReqs,
			logger,
		)
		if err != nil {
			log.Fatalf("✗ Gemini client initialization failed: %v", err)
		}
		defer geminiService.Close()
		generator = geminiService
		log.Printf("✓ Gemini client initialized (%s)", cfg.GeminiChatModel)
	} else {
		logger.Error("API key not configured", "env", "GEMINI_API_KEY")
		log.Println("✗ GEMINI_API_KEY missing, chat requests will fail")
	}

	// ──── Step 3: Initialize Rate Limit Store ────
	var store middleware.WindowStore
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClient.Close()
		store = middleware.NewRedisStore(redisClient)
		log.Println("✓ Redis connected (shared rate limits)")
	} else {
		memStore := middleware.NewMemoryStore(time.Minute)
		defer memStore.Close()
		store = memStore
		log.Println("✓ In-memory rate limits")
	}
	if cfg.IsProduction() && cfg.RateLimitPerMinute <= 0 {
		log.Println("✗ Rate limiting disabled in production")
	}
	chatLimiter := middleware.NewRateLimiter(store, cfg.RateLimitPerMinute, time.Minute, logger)

	// ──── Initialize Handlers ────
	relayService := services.NewRelayService(generator, logger)
	chatHandler := handlers.NewChatHandler(relayService, logger)
	healthHandler := handlers.NewHealthHandler(relayService.Configured)

	// ──── Step 4: Start HTTP Server ────
	r := router.New(chatHandler, healthHandler, chatLimiter, cfg.CORSOrigin)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Spiritus relay ready on http://localhost:%s", cfg.Port)
	log.Printf("  Chat:   http://localhost:%s/api/chat", cfg.Port)
	log.Printf("  Health: http://localhost:%s/health", cfg.Port)
	logger.Info("relay listening", "port", cfg.Port, "env", cfg.Env, "rate_limit_per_minute", cfg.RateLimitPerMinute)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
