package planner

import (
	"context"
	"testing"
	"time"

	"bargain-bites/internal/config"
	"bargain-bites/internal/grocery"
	"bargain-bites/internal/llm"
)

// TestGenerator_LiveEval makes a real LLM call and checks that the plan
// follows the ingredient grammar well enough to produce a priced list.
// Run with: go test -v ./internal/planner -run TestGenerator_LiveEval
func TestGenerator_LiveEval(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping live eval in short mode")
	}

	ctx := context.Background()
	cfg, err := config.NewFromEnv()
	if err != nil {
		t.Skip("Skipping: No API keys found in environment")
	}

	textGen, closer, err := llm.NewTextGenerator(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create text generator: %v", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	p := NewPlanner(textGen, nil)
	prefs := Preferences{
		Budget:        "$90",
		HouseholdSize: 2,
		SplitMeals:    true,
		Deals: []Deal{
			{Item: "Chicken thighs", Price: "$6.49", Store: "Zehrs"},
			{Item: "Broccoli", Price: "$1.99", Store: "Metro"},
		},
	}
	week := time.Date(2024, 3, 17, 0, 0, 0, 0, time.Local)

	plan, metas, err := p.GeneratePlan(ctx, "eval", "Cheap weeknight dinners, reuse leftovers for lunch.", prefs, week)
	if err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}
	for _, m := range metas {
		t.Logf("%s used %d prompt / %d completion tokens", m.AgentName, m.Usage.PromptTokens, m.Usage.CompletionTokens)
	}

	list, err := grocery.AggregateJSON(plan.Days, plan.WeekStart)
	if err != nil {
		t.Fatalf("Generated plan is not aggregatable: %v", err)
	}
	if len(list.Items) < 5 {
		t.Errorf("Expected a realistic grocery list, got %d items", len(list.Items))
	}

	sales, reused := 0, 0
	for _, item := range list.Items {
		if item.IsOnSale {
			sales++
		}
		if item.IsReused {
			reused++
		}
	}
	t.Logf("%d items, %d on sale, %d reused", len(list.Items), sales, reused)
	if sales == 0 {
		t.Error("Expected the plan to use at least one supplied deal")
	}
}
