package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bargain-bites/internal/app"
	"bargain-bites/internal/config"
	"bargain-bites/internal/database"
	"bargain-bites/internal/llm"
	"bargain-bites/internal/logging"
	"bargain-bites/internal/metrics"
	"bargain-bites/internal/planner"
	"bargain-bites/internal/server"
	"bargain-bites/internal/shopping"
	"bargain-bites/internal/telegram"

	"github.com/joho/godotenv"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to load .env", "error", err)
		}
	}

	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		slog.Error("invalid server config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	// 2. Initialize Infrastructure
	textGen, closer, err := llm.NewTextGenerator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", cfg.LLMProvider, err)
	}
	if closer != nil {
		defer closer.Close()
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	planRepo := planner.NewPlanRepository(db.SQL)
	itemRepo := shopping.NewRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	// 3. Initialize Services
	mealPlanner := planner.NewPlanner(textGen, logger)
	lists := shopping.NewService(planRepo, itemRepo, logger)
	application := app.NewApp(mealPlanner, planRepo, lists, metricsStore, logger)

	opts := server.Options{
		JWTSecret:    []byte(cfg.JWTSecret),
		DatabasePath: cfg.DatabasePath,
	}

	// 4. Optional Telegram Bot
	var bot *telegram.Bot
	if cfg.TelegramBotToken != "" {
		sessions := telegram.NewSessionRepository(db.SQL)
		bot, err = telegram.NewBot(cfg, application, lists, planRepo, sessions, metricsStore, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram bot: %w", err)
		}
		application.OnBloat = func(meta llm.AgentMeta) {
			bot.SendAdminAlert(fmt.Sprintf("⚠️ %s prompt used %d tokens", meta.AgentName, meta.Usage.PromptTokens))
		}
		opts.Webhook = bot

		go cleanupSessions(ctx, sessions, logger)
	}

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(lists, application, planRepo, opts, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "telegram", bot != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if bot != nil {
		bot.Wait()
	}

	logger.Info("server exiting")
	return nil
}

func cleanupSessions(ctx context.Context, sessions *telegram.SessionRepository, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := sessions.CleanupExpired(ctx, now)
			if err != nil {
				logger.Warn("failed to clean up sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
