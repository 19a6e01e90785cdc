package grocery

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Weekdays lists the meal plan day keys in the order they are walked.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// CategorizedIngredient is a parsed, priced ingredient placed in a section.
type CategorizedIngredient struct {
	ParsedIngredient
	Category Category `json:"category"`
	Day      string   `json:"day"`
}

// IngredientList is the deduplicated, categorised ingredient list for a week.
type IngredientList struct {
	WeekStart time.Time               `json:"week_start"`
	Items     []CategorizedIngredient `json:"items"`
}

// Aggregate walks a decoded meal plan (weekday name -> day object) and
// builds the week's shopping ingredients. A day object either carries an
// "ingredients" array or "lunch" and "dinner" objects that each carry one.
//
// Items keep the first occurrence per (category, name); output is grouped
// in CategoryOrder. Malformed days and non-string lines are skipped.
func Aggregate(plan map[string]any, weekStart time.Time) IngredientList {
	buckets := make(map[Category][]CategorizedIngredient, len(CategoryOrder))
	seen := make(map[Category]map[string]struct{}, len(CategoryOrder))

	for _, day := range Weekdays {
		dayObj, ok := plan[day].(map[string]any)
		if !ok {
			continue
		}

		for _, line := range dayIngredients(dayObj) {
			raw, ok := line.(string)
			if !ok {
				continue
			}

			p := Parse(raw)
			if p.Name == "" {
				continue
			}
			if p.Price == "" {
				p.Price = EstimatePrice(strings.ToLower(p.Name))
			}

			cat := Classify(p.Name)
			if seen[cat] == nil {
				seen[cat] = make(map[string]struct{})
			}
			if _, dup := seen[cat][p.Name]; dup {
				continue
			}
			seen[cat][p.Name] = struct{}{}

			buckets[cat] = append(buckets[cat], CategorizedIngredient{
				ParsedIngredient: p,
				Category:         cat,
				Day:              day,
			})
		}
	}

	items := []CategorizedIngredient{}
	for _, cat := range CategoryOrder {
		items = append(items, buckets[cat]...)
	}

	return IngredientList{WeekStart: weekStart, Items: items}
}

// AggregateJSON decodes a stored meal plan and aggregates it. Only a
// document that is not a JSON object is an error.
func AggregateJSON(data []byte, weekStart time.Time) (IngredientList, error) {
	var plan map[string]any
	if err := json.Unmarshal(data, &plan); err != nil {
		return IngredientList{WeekStart: weekStart, Items: []CategorizedIngredient{}},
			fmt.Errorf("failed to decode meal plan: %w", err)
	}
	return Aggregate(plan, weekStart), nil
}

// dayIngredients prefers lunch+dinner when both carry ingredient arrays and
// falls back to the day's flat ingredient array.
func dayIngredients(day map[string]any) []any {
	lunch, lunchOK := mealIngredients(day["lunch"])
	dinner, dinnerOK := mealIngredients(day["dinner"])
	if lunchOK && dinnerOK {
		lines := make([]any, 0, len(lunch)+len(dinner))
		lines = append(lines, lunch...)
		return append(lines, dinner...)
	}

	if flat, ok := day["ingredients"].([]any); ok {
		return flat
	}
	return nil
}

func mealIngredients(meal any) ([]any, bool) {
	m, ok := meal.(map[string]any)
	if !ok {
		return nil, false
	}
	lines, ok := m["ingredients"].([]any)
	return lines, ok
}
