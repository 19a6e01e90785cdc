package grocery

import (
	"testing"
	"time"
)

func TestAggregateJSON(t *testing.T) {
	weekStart := time.Date(2024, 3, 10, 0, 0, 0, 0, time.Local)
	plan := []byte(`{
		"monday": {
			"ingredients": [
				"Chicken breast [SALE:Zehrs] - $8.99",
				"Rice [REUSED]",
				"Onion - $1.29"
			]
		},
		"tuesday": {
			"lunch": {"ingredients": ["Whole wheat bread - $2.99"]},
			"dinner": {"ingredients": ["mac and cheese - $2.00", "Spinach"]},
			"ingredients": ["Ignored flat line"]
		},
		"wednesday": {
			"ingredients": ["Onion - $0.99", "Milk"]
		}
	}`)

	list, err := AggregateJSON(plan, weekStart)
	if err != nil {
		t.Fatalf("AggregateJSON returned error: %v", err)
	}
	if !list.WeekStart.Equal(weekStart) {
		t.Errorf("WeekStart = %v, want %v", list.WeekStart, weekStart)
	}

	want := []struct {
		name     string
		price    string
		category Category
		day      string
	}{
		{"Onion", "$1.29", Produce, "monday"},
		{"Spinach", "$2.99", Produce, "tuesday"},
		{"mac and cheese", "$2.00", Dairy, "tuesday"},
		{"Milk", "$4.29", Dairy, "wednesday"},
		{"Chicken breast", "$8.99", Meat, "monday"},
		{"Rice", "$3.49", Pantry, "monday"},
		{"Whole wheat bread", "$2.99", Bakery, "tuesday"},
	}
	if len(list.Items) != len(want) {
		t.Fatalf("got %d items, want %d: %+v", len(list.Items), len(want), list.Items)
	}
	for i, w := range want {
		got := list.Items[i]
		if got.Name != w.name || got.Price != w.price || got.Category != w.category || got.Day != w.day {
			t.Errorf("item %d = {%s %s %s %s}, want {%s %s %s %s}",
				i, got.Name, got.Price, got.Category, got.Day, w.name, w.price, w.category, w.day)
		}
	}

	chicken := list.Items[4]
	if !chicken.IsOnSale || chicken.Store != "Zehrs" {
		t.Errorf("chicken sale flags = %v %q, want true Zehrs", chicken.IsOnSale, chicken.Store)
	}
	if !list.Items[5].IsReused {
		t.Error("rice should be marked reused")
	}
}

func TestAggregateSkipsMalformedInput(t *testing.T) {
	plan := map[string]any{
		"monday":    "not an object",
		"tuesday":   map[string]any{"ingredients": []any{42, nil, "  ", "Eggs"}},
		"wednesday": map[string]any{"ingredients": "not an array"},
		"thursday":  map[string]any{"lunch": map[string]any{"ingredients": []any{"Apples"}}},
		"notes":     map[string]any{"ingredients": []any{"Should not appear"}},
	}

	list := Aggregate(plan, time.Time{})
	if len(list.Items) != 1 || list.Items[0].Name != "Eggs" {
		t.Fatalf("items = %+v, want only Eggs", list.Items)
	}
}

func TestAggregateEmptyPlan(t *testing.T) {
	list := Aggregate(map[string]any{}, time.Time{})
	if list.Items == nil {
		t.Fatal("Items should be an empty slice, not nil")
	}
	if len(list.Items) != 0 {
		t.Errorf("got %d items, want 0", len(list.Items))
	}
}

func TestAggregateJSONRejectsNonObject(t *testing.T) {
	if _, err := AggregateJSON([]byte(`["monday"]`), time.Time{}); err == nil {
		t.Error("expected error for a JSON array plan")
	}
	if _, err := AggregateJSON([]byte(`{not json`), time.Time{}); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestAggregateInvariants(t *testing.T) {
	plan := map[string]any{}
	lines := []any{
		"Chicken breast - $8.99", "chicken breast", "Chicken breast [SALE:Metro] - $6.99",
		"Tomatoes", "Cheddar cheese", "Bagels", "Soy sauce", "Salmon [REUSED]",
	}
	for _, day := range Weekdays {
		plan[day] = map[string]any{"ingredients": lines}
	}

	list := Aggregate(plan, time.Time{})

	seen := map[Category]map[string]bool{}
	lastOrder := -1
	for _, item := range list.Items {
		if !item.Category.Valid() {
			t.Errorf("item %q has unknown category %q", item.Name, item.Category)
		}
		if item.Price == "" {
			t.Errorf("item %q has no price", item.Name)
		}
		if seen[item.Category] == nil {
			seen[item.Category] = map[string]bool{}
		}
		if seen[item.Category][item.Name] {
			t.Errorf("duplicate item %q in %s", item.Name, item.Category)
		}
		seen[item.Category][item.Name] = true

		order := categoryIndex(item.Category)
		if order < lastOrder {
			t.Errorf("item %q out of section order", item.Name)
		}
		lastOrder = order
		if item.Day != "monday" {
			t.Errorf("item %q kept day %q, want first occurrence monday", item.Name, item.Day)
		}
	}

	// Name comparison is exact, so the lowercase variant is kept separately.
	if !seen[Meat]["Chicken breast"] || !seen[Meat]["chicken breast"] {
		t.Errorf("expected both chicken breast spellings, got %v", seen[Meat])
	}
}

func categoryIndex(c Category) int {
	for i, known := range CategoryOrder {
		if known == c {
			return i
		}
	}
	return -1
}
