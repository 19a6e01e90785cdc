package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"bargain-bites/internal/llm"
	"bargain-bites/internal/planner"
	"bargain-bites/internal/shopping"
)

type mockGenerator struct {
	plan  *planner.MealPlan
	metas []llm.AgentMeta
	err   error
}

func (m *mockGenerator) GeneratePlan(ctx context.Context, userID, request string, prefs planner.Preferences, weekStart time.Time) (*planner.MealPlan, []llm.AgentMeta, error) {
	return m.plan, m.metas, m.err
}

type mockSaver struct{ saved []*planner.MealPlan }

func (m *mockSaver) Save(ctx context.Context, plan *planner.MealPlan) (int64, error) {
	m.saved = append(m.saved, plan)
	return int64(len(m.saved)), nil
}

type mockLists struct {
	list *shopping.List
	week time.Time
}

func (m *mockLists) BuildList(ctx context.Context, userID string, week time.Time) (*shopping.List, error) {
	m.week = week
	return m.list, nil
}

type mockUsage struct {
	recorded []llm.AgentMeta
	err      error
}

func (m *mockUsage) RecordMeta(ctx context.Context, meta llm.AgentMeta) error {
	m.recorded = append(m.recorded, meta)
	return m.err
}

func TestPlanWeek(t *testing.T) {
	ctx := context.Background()
	week := time.Date(2024, 3, 10, 0, 0, 0, 0, time.Local)
	bigMeta := llm.AgentMeta{AgentName: "Generator", Usage: llm.TokenUsage{PromptTokens: 5000}}

	t.Run("Success", func(t *testing.T) {
		plan := &planner.MealPlan{UserID: "u", WeekStart: week, Days: json.RawMessage(`{}`)}
		saver := &mockSaver{}
		lists := &mockLists{list: &shopping.List{Total: "$1.00"}}
		usage := &mockUsage{err: errors.New("db locked")}
		a := NewApp(&mockGenerator{plan: plan, metas: []llm.AgentMeta{bigMeta}}, saver, lists, usage, nil)

		var alerts int
		a.OnBloat = func(llm.AgentMeta) { alerts++ }

		gotPlan, list, err := a.PlanWeek(ctx, "u", "cheap", planner.Preferences{}, week.AddDate(0, 0, 3))
		if err != nil {
			t.Fatalf("PlanWeek failed: %v", err)
		}
		if gotPlan != plan || list.Total != "$1.00" {
			t.Errorf("unexpected result: %+v %+v", gotPlan, list)
		}
		if len(saver.saved) != 1 {
			t.Errorf("plan should be saved once, got %d", len(saver.saved))
		}
		if !lists.week.Equal(week) {
			t.Errorf("list built for %v, want %v", lists.week, week)
		}
		if len(usage.recorded) != 1 || alerts != 1 {
			t.Errorf("usage recorded %d times, %d alerts; want 1 and 1", len(usage.recorded), alerts)
		}
	})

	t.Run("GenerationFailureStillRecordsUsage", func(t *testing.T) {
		saver := &mockSaver{}
		usage := &mockUsage{}
		a := NewApp(&mockGenerator{metas: []llm.AgentMeta{bigMeta}, err: errors.New("bad json")}, saver, &mockLists{}, usage, nil)

		if _, _, err := a.PlanWeek(ctx, "u", "cheap", planner.Preferences{}, week); err == nil {
			t.Fatal("expected error")
		}
		if len(usage.recorded) != 1 {
			t.Errorf("usage should be recorded on failure")
		}
		if len(saver.saved) != 0 {
			t.Errorf("nothing should be saved on failure")
		}
	})
}

type mockArchive struct {
	userID string
	list   *shopping.List
}

func (m *mockArchive) Save(userID string, list *shopping.List, savedAt time.Time) (string, error) {
	m.userID, m.list = userID, list
	return "/tmp/" + userID + ".json", nil
}

func TestPrintShoppingList(t *testing.T) {
	lists := &mockLists{list: &shopping.List{WeekStart: time.Date(2024, 3, 10, 0, 0, 0, 0, time.Local), Total: "$0.00"}}
	a := NewApp(&mockGenerator{}, &mockSaver{}, lists, &mockUsage{}, nil)

	var sb strings.Builder
	if err := a.PrintShoppingList(context.Background(), &sb, "u", time.Now()); err != nil {
		t.Fatalf("PrintShoppingList failed: %v", err)
	}
	if !strings.Contains(sb.String(), "week of Mar 10, 2024") {
		t.Errorf("unexpected receipt:\n%s", sb.String())
	}
}

func TestPrintShoppingListArchives(t *testing.T) {
	list := &shopping.List{WeekStart: time.Date(2024, 3, 10, 0, 0, 0, 0, time.Local), Total: "$0.00"}
	a := NewApp(&mockGenerator{}, &mockSaver{}, &mockLists{list: list}, &mockUsage{}, nil)
	archive := &mockArchive{}
	a.Archive = archive

	var sb strings.Builder
	if err := a.PrintShoppingList(context.Background(), &sb, "u", time.Now()); err != nil {
		t.Fatalf("PrintShoppingList failed: %v", err)
	}
	if archive.userID != "u" || archive.list != list {
		t.Errorf("list was not archived: %+v", archive)
	}
}
