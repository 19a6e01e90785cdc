package shopping

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bargain-bites/internal/grocery"
	"bargain-bites/internal/planner"
)

type mockPlanStore struct {
	plan *planner.MealPlan
	err  error
	week time.Time
}

func (m *mockPlanStore) GetByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) (*planner.MealPlan, error) {
	m.week = weekStart
	return m.plan, m.err
}

type mockItemStore struct {
	items []Item
	added []*Item
}

func (m *mockItemStore) Add(ctx context.Context, item *Item) error {
	item.ID = "generated-id"
	m.added = append(m.added, item)
	return nil
}

func (m *mockItemStore) ListByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) ([]Item, error) {
	return m.items, nil
}

func (m *mockItemStore) SetChecked(ctx context.Context, userID, id string, checked bool) error {
	return ErrItemNotFound
}

func (m *mockItemStore) Delete(ctx context.Context, userID, id string) error {
	return nil
}

const samplePlan = `{
	"monday": {"ingredients": ["Chicken breast [SALE:Zehrs] - $8.99", "Rice - $3.49", "Onion - $2.49"]},
	"tuesday": {
		"lunch": {"ingredients": ["Eggs - $3.99"]},
		"dinner": {"ingredients": ["Salmon - $12.99", "Rice [REUSED]"]}
	},
	"wednesday": {"ingredients": ["Onion - $2.49", "Whole wheat bread"]}
}`

func TestBuildList(t *testing.T) {
	ctx := context.Background()
	thursday := time.Date(2024, 3, 14, 18, 0, 0, 0, time.Local)

	plans := &mockPlanStore{plan: &planner.MealPlan{ID: 7, Days: json.RawMessage(samplePlan)}}
	items := &mockItemStore{items: []Item{
		{ID: "u1", Name: "chicken breasts", Price: "$9.50", Category: grocery.Meat, Checked: true},
		{ID: "u2", Name: "Paper towels", Price: "$6.99", Category: grocery.Pantry},
		{ID: "u3", Name: "Apples", Category: ""},
	}}
	svc := NewService(plans, items, nil)

	list, err := svc.BuildList(ctx, "user-1", thursday)
	if err != nil {
		t.Fatalf("BuildList failed: %v", err)
	}

	if got := plans.week.Format("2006-01-02"); got != "2024-03-10" {
		t.Errorf("plan looked up for week %s, want 2024-03-10", got)
	}
	if !list.HasPlan {
		t.Error("HasPlan should be true")
	}

	wantNames := []string{"Onion", "Apples", "Eggs", "Chicken breast", "Salmon", "Rice", "Paper towels", "Whole wheat bread"}
	if len(list.Items) != len(wantNames) {
		t.Fatalf("got %d items, want %d: %+v", len(list.Items), len(wantNames), list.Items)
	}
	for i, name := range wantNames {
		if list.Items[i].Name != name {
			t.Errorf("item %d = %q, want %q", i, list.Items[i].Name, name)
		}
	}

	// "chicken breasts" is a near duplicate of the generated entry.
	chicken := list.Items[3]
	if chicken.Source != SourcePlan || chicken.ID != "u1" || !chicken.Checked {
		t.Errorf("generated chicken should adopt the user item, got %+v", chicken)
	}

	apples := list.Items[1]
	if apples.Source != SourceUser || apples.Category != grocery.Produce || apples.Price != "$3.99" {
		t.Errorf("user apples should be classified and priced, got %+v", apples)
	}

	// Tuesday's reused rice repeats Monday's and is dropped.
	if list.Items[5].IsReused || list.Items[5].Day != "monday" {
		t.Errorf("rice entry should be Monday's purchase, got %+v", list.Items[5])
	}

	wantSubtotals := map[grocery.Category]string{
		grocery.Produce: "$6.48",
		grocery.Dairy:   "$3.99",
		grocery.Meat:    "$21.98",
		grocery.Pantry:  "$10.48",
		grocery.Bakery:  "$2.99",
	}
	for cat, want := range wantSubtotals {
		if got := list.Subtotals[cat]; got != want {
			t.Errorf("subtotal %s = %s, want %s", cat, got, want)
		}
	}
	if list.Total != "$45.92" {
		t.Errorf("Total = %s, want $45.92", list.Total)
	}
	if list.SaleCount != 1 {
		t.Errorf("SaleCount = %d, want 1", list.SaleCount)
	}
	if len(list.Sections) != 5 || list.Sections[0].Category != grocery.Produce {
		t.Errorf("unexpected sections: %+v", list.Sections)
	}
}

func TestBuildListReusedItemsAreFree(t *testing.T) {
	plans := &mockPlanStore{plan: &planner.MealPlan{Days: json.RawMessage(`{
		"monday": {"ingredients": ["Quinoa [REUSED] - $3.49", "Olive oil - $5.99"]}
	}`)}}
	svc := NewService(plans, &mockItemStore{}, nil)

	list, err := svc.BuildList(context.Background(), "user-1", time.Now())
	if err != nil {
		t.Fatalf("BuildList failed: %v", err)
	}
	if list.Total != "$5.99" {
		t.Errorf("Total = %s, want $5.99", list.Total)
	}
	if len(list.Items) != 2 {
		t.Errorf("reused items should still be listed, got %d items", len(list.Items))
	}
}

func TestBuildListWithoutPlan(t *testing.T) {
	svc := NewService(&mockPlanStore{}, &mockItemStore{items: []Item{
		{ID: "u1", Name: "Milk", Price: "$4.29", Category: grocery.Dairy},
	}}, nil)

	list, err := svc.BuildList(context.Background(), "user-1", time.Now())
	if err != nil {
		t.Fatalf("BuildList failed: %v", err)
	}
	if list.HasPlan {
		t.Error("HasPlan should be false")
	}
	if len(list.Items) != 1 || list.Total != "$4.29" {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestBuildListEmpty(t *testing.T) {
	svc := NewService(&mockPlanStore{}, &mockItemStore{}, nil)
	list, err := svc.BuildList(context.Background(), "user-1", time.Now())
	if err != nil {
		t.Fatalf("BuildList failed: %v", err)
	}
	if list.Items == nil || len(list.Items) != 0 || list.Total != "$0.00" {
		t.Errorf("unexpected empty list: %+v", list)
	}
}

func TestBuildListErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("CorruptPlan", func(t *testing.T) {
		svc := NewService(&mockPlanStore{plan: &planner.MealPlan{Days: json.RawMessage(`not json`)}}, &mockItemStore{}, nil)
		if _, err := svc.BuildList(ctx, "user-1", time.Now()); err == nil {
			t.Error("expected error for corrupt plan JSON")
		}
	})

	t.Run("StoreFailure", func(t *testing.T) {
		svc := NewService(&mockPlanStore{err: errors.New("disk full")}, &mockItemStore{}, nil)
		if _, err := svc.BuildList(ctx, "user-1", time.Now()); err == nil {
			t.Error("expected error when the plan store fails")
		}
	})
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	items := &mockItemStore{}
	svc := NewService(&mockPlanStore{}, items, nil)
	week := time.Date(2024, 3, 14, 0, 0, 0, 0, time.Local)

	tests := []struct {
		name     string
		in       NewItem
		wantName string
		price    string
		category grocery.Category
	}{
		{"EstimatedAndClassified", NewItem{Name: "  Greek   yogurt "}, "Greek yogurt", "$4.29", grocery.Dairy},
		{"ExplicitPrice", NewItem{Name: "Bagels", Price: "3.5"}, "Bagels", "$3.50", grocery.Bakery},
		{"PriceInName", NewItem{Name: "Steak - $15"}, "Steak", "$15.00", grocery.Meat},
		{"ExplicitCategory", NewItem{Name: "Tofu", Category: "produce"}, "Tofu", "$3.99", grocery.Produce},
		{"UnknownCategoryIsClassified", NewItem{Name: "Tofu", Category: "frozen"}, "Tofu", "$3.99", grocery.Pantry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := svc.AddItem(ctx, "user-1", week, tt.in)
			if err != nil {
				t.Fatalf("AddItem failed: %v", err)
			}
			if item.Name != tt.wantName || item.Price != tt.price || item.Category != tt.category {
				t.Errorf("AddItem = %+v, want %s %s %s", item, tt.wantName, tt.price, tt.category)
			}
			if item.ID == "" || item.UserID != "user-1" {
				t.Errorf("item not stored for user: %+v", item)
			}
		})
	}

	if _, err := svc.AddItem(ctx, "user-1", week, NewItem{Name: "[REUSED]"}); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("expected ErrInvalidItem, got %v", err)
	}
}

func TestNameDistanceRatio(t *testing.T) {
	if r := nameDistanceRatio("onion", "onion"); r != 0 {
		t.Errorf("identical names ratio = %v", r)
	}
	if r := nameDistanceRatio("onion", "onions"); r > duplicateRatio {
		t.Errorf("plural should count as duplicate, ratio = %v", r)
	}
	if r := nameDistanceRatio("milk", "silk tofu"); r <= duplicateRatio {
		t.Errorf("different items should not count as duplicates, ratio = %v", r)
	}
}
