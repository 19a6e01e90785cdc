package grocery

import "strings"

// Category is a shopping list section.
type Category string

const (
	Produce Category = "Produce"
	Dairy   Category = "Dairy"
	Meat    Category = "Meat"
	Pantry  Category = "Pantry"
	Bakery  Category = "Bakery"
)

// DefaultCategory is assigned to names that match no keyword.
const DefaultCategory = Pantry

// CategoryOrder is the order sections are emitted in.
var CategoryOrder = []Category{Produce, Dairy, Meat, Pantry, Bakery}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range CategoryOrder {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, bool) {
	for _, known := range CategoryOrder {
		if strings.EqualFold(strings.TrimSpace(s), string(known)) {
			return known, true
		}
	}
	return "", false
}

type categoryRule struct {
	category Category
	keywords []string
}

// Checked in order. Produce comes first so a name matching several groups
// always resolves the same way.
var categoryRules = []categoryRule{
	{Produce, []string{"lettuce", "tomato", "onion", "carrot", "spinach", "potato", "banana", "apple", "orange", "cucumber", "bell pepper", "mushroom"}},
	{Dairy, []string{"milk", "cheese", "yogurt", "butter", "cream", "egg"}},
	{Meat, []string{"chicken", "beef", "pork", "fish", "turkey", "salmon", "ground", "steak"}},
	{Bakery, []string{"bread", "bun", "bagel", "croissant", "muffin"}},
}

// Classify returns the category for an ingredient name by substring match.
func Classify(name string) Category {
	n := strings.ToLower(name)
	for _, r := range categoryRules {
		if containsAny(r.keywords...)(n) {
			return r.category
		}
	}
	return DefaultCategory
}
