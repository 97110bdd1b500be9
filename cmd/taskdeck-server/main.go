package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/server"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := logger.Init(logger.Config{
		Level:   logger.ParseLevel(getEnv("LOG_LEVEL", "info")),
		Console: true,
	}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Close() }()

	port := getEnv("PORT", "8080")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo server.SnapshotRepo
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pg, err := server.OpenPostgres(ctx, dbURL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		repo = pg
	} else {
		logger.Warn("DATABASE_URL not set, tasks are kept in memory")
		repo = server.NewMemoryRepo()
	}

	opts := server.Options{
		Repo:         repo,
		SuggestRate:  getFloat("SUGGEST_RATE", 1),
		SuggestBurst: 5,
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		chat, err := server.NewChatModel(ctx, server.LLMConfig{
			Provider: provider,
			Model:    os.Getenv("LLM_MODEL"),
			APIKey:   os.Getenv("LLM_API_KEY"),
			BaseURL:  os.Getenv("LLM_BASE_URL"),
			Timeout:  60 * time.Second,
		})
		if err != nil {
			log.Fatalf("Failed to create chat model: %v", err)
		}
		opts.Suggester = server.NewGenerator(chat)
	} else {
		logger.Warn("LLM_PROVIDER not set, suggestions are disabled")
	}

	srv := server.New(opts)
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Error closing server", logger.F("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", logger.F("error", err))
		}
	}()

	logger.Info("taskdeck server starting", logger.F("port", port))
	if err := srv.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", logger.F("error", err))
		os.Exit(1)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}
