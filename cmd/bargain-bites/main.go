package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
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
	"bargain-bites/internal/storage"

	"github.com/joho/godotenv"
)

const defaultUser = "cli"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to load .env", "error", err)
		}
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel)

	ctx := context.Background()
	switch os.Args[1] {
	case "generate":
		err = runGenerate(ctx, cfg, logger, os.Args[2:])
	case "list":
		err = runList(ctx, cfg, logger, os.Args[2:])
	case "metrics-cleanup":
		err = runMetricsCleanup(ctx, cfg, os.Args[2:])
	case "token":
		err = runToken(cfg, os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error(os.Args[1]+" failed", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: bargain-bites <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  generate [-user ID] [-week DATE] \"<request>\"   Plan a week and print its grocery list")
	fmt.Println("  list [-user ID] [-week DATE] [-archive DIR]    Print the grocery list for a week")
	fmt.Println("  metrics-cleanup [-days N]                      Remove old metric records")
	fmt.Println("  token [-user ID] [-ttl DURATION]               Issue an API token (needs JWT_SECRET)")
}

func openDB(cfg *config.Config) (*database.DB, error) {
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

func resolveWeek(value string, next bool) (time.Time, error) {
	now := time.Now()
	if value == "" && next {
		return planner.NextWeekStart(now), nil
	}
	return planner.ParseWeek(value, now)
}

func runGenerate(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	user := fs.String("user", defaultUser, "User the plan belongs to")
	week := fs.String("week", "", "Any date in the week to plan (default: next week)")
	budget := fs.String("budget", "", "Weekly budget, e.g. $80")
	household := fs.Int("household", 1, "Number of people")
	fs.Parse(args)

	request := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if request == "" {
		return errors.New("a request is required, e.g. generate \"cheap vegetarian week\"")
	}
	weekStart, err := resolveWeek(*week, true)
	if err != nil {
		return err
	}

	textGen, closer, err := llm.NewTextGenerator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", cfg.LLMProvider, err)
	}
	if closer != nil {
		defer closer.Close()
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	planRepo := planner.NewPlanRepository(db.SQL)
	lists := shopping.NewService(planRepo, shopping.NewRepository(db.SQL), logger)
	application := app.NewApp(planner.NewPlanner(textGen, logger), planRepo, lists, metrics.NewStore(db.SQL), logger)
	application.OnBloat = func(meta llm.AgentMeta) {
		logger.Warn("prompt is getting large", "agent", meta.AgentName, "prompt_tokens", meta.Usage.PromptTokens)
	}

	prefs := planner.Preferences{Budget: *budget, HouseholdSize: *household}
	plan, list, err := application.PlanWeek(ctx, *user, request, prefs, weekStart)
	if err != nil {
		return err
	}

	fmt.Printf("Meal plan saved for the week of %s\n\n", plan.WeekStart.Format("Jan 2, 2006"))
	return shopping.WriteReceipt(os.Stdout, list)
}

func runList(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	user := fs.String("user", defaultUser, "User whose list to print")
	week := fs.String("week", "", "Any date in the week (default: this week)")
	archiveDir := fs.String("archive", "", "Directory to keep a JSON snapshot of the list in")
	fs.Parse(args)

	weekStart, err := resolveWeek(*week, false)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	planRepo := planner.NewPlanRepository(db.SQL)
	lists := shopping.NewService(planRepo, shopping.NewRepository(db.SQL), logger)
	application := app.NewApp(nil, planRepo, lists, nil, logger)
	if *archiveDir != "" {
		archive, err := storage.NewListArchive(*archiveDir)
		if err != nil {
			return err
		}
		application.Archive = archive
	}
	return application.PrintShoppingList(ctx, os.Stdout, *user, weekStart)
}

func runMetricsCleanup(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
	days := fs.Int("days", 30, "Keep records for the last N days")
	fs.Parse(args)

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	affected, err := metrics.NewStore(db.SQL).Cleanup(ctx, *days)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Printf("Successfully removed %d old metric records.\n", affected)
	return nil
}

func runToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	user := fs.String("user", defaultUser, "Token subject")
	ttl := fs.Duration("ttl", 30*24*time.Hour, "Token lifetime")
	fs.Parse(args)

	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	token, err := server.IssueToken([]byte(cfg.JWTSecret), *user, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
