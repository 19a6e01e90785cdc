package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"bargain-bites/internal/llm"
	"bargain-bites/internal/planner"
	"bargain-bites/internal/shopping"
)

// PlanGenerator produces a draft meal plan.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, userID, request string, prefs planner.Preferences, weekStart time.Time) (*planner.MealPlan, []llm.AgentMeta, error)
}

// PlanSaver persists meal plans.
type PlanSaver interface {
	Save(ctx context.Context, plan *planner.MealPlan) (int64, error)
}

// ListBuilder builds weekly shopping lists.
type ListBuilder interface {
	BuildList(ctx context.Context, userID string, week time.Time) (*shopping.List, error)
}

// UsageRecorder stores LLM token usage.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta llm.AgentMeta) error
}

// ListArchiver keeps snapshots of printed shopping lists.
type ListArchiver interface {
	Save(userID string, list *shopping.List, savedAt time.Time) (string, error)
}

// App holds the application's dependencies and the flows shared by the
// CLI, the HTTP API and the Telegram bot.
type App struct {
	mealPlanner PlanGenerator
	planRepo    PlanSaver
	lists       ListBuilder
	usage       UsageRecorder
	logger      *slog.Logger

	// PromptTokenAlert is the prompt size above which OnBloat is called.
	PromptTokenAlert int
	OnBloat          func(meta llm.AgentMeta)

	// Archive, when set, receives a snapshot of every printed list.
	Archive ListArchiver
}

// NewApp creates and initializes a new App instance.
func NewApp(
	mealPlanner PlanGenerator,
	planRepo PlanSaver,
	lists ListBuilder,
	usage UsageRecorder,
	logger *slog.Logger,
) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		mealPlanner:      mealPlanner,
		planRepo:         planRepo,
		lists:            lists,
		usage:            usage,
		logger:           logger.With("component", "app"),
		PromptTokenAlert: 4000,
	}
}

// PlanWeek generates a plan for the week containing week, stores it in
// place of any existing plan for that week and returns it with its
// shopping list. Token usage is recorded even when generation fails.
func (a *App) PlanWeek(
	ctx context.Context,
	userID string,
	request string,
	prefs planner.Preferences,
	week time.Time,
) (*planner.MealPlan, *shopping.List, error) {
	plan, metas, err := a.mealPlanner.GeneratePlan(ctx, userID, request, prefs, week)
	a.recordUsage(ctx, metas)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	if _, err := a.planRepo.Save(ctx, plan); err != nil {
		return nil, nil, fmt.Errorf("failed to save plan: %w", err)
	}

	list, err := a.lists.BuildList(ctx, userID, plan.WeekStart)
	if err != nil {
		return plan, nil, fmt.Errorf("failed to build shopping list: %w", err)
	}
	return plan, list, nil
}

// PrintShoppingList writes the receipt for the user's week to w.
func (a *App) PrintShoppingList(ctx context.Context, w io.Writer, userID string, week time.Time) error {
	list, err := a.lists.BuildList(ctx, userID, week)
	if err != nil {
		return err
	}
	if err := shopping.WriteReceipt(w, list); err != nil {
		return err
	}

	if a.Archive != nil {
		path, err := a.Archive.Save(userID, list, time.Now())
		if err != nil {
			return fmt.Errorf("failed to archive shopping list: %w", err)
		}
		a.logger.Info("shopping list archived", "path", path)
	}
	return nil
}

func (a *App) recordUsage(ctx context.Context, metas []llm.AgentMeta) {
	for _, m := range metas {
		if err := a.usage.RecordMeta(ctx, m); err != nil {
			a.logger.Warn("failed to record metrics", "agent", m.AgentName, "error", err)
		}
		if a.OnBloat != nil && a.PromptTokenAlert > 0 && m.Usage.PromptTokens > a.PromptTokenAlert {
			a.OnBloat(m)
		}
	}
}
