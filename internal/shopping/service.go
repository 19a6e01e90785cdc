package shopping

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"bargain-bites/internal/grocery"
	"bargain-bites/internal/planner"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
)

// duplicateRatio is the largest edit distance, relative to the longer name,
// at which a user item counts as already on the generated list.
const duplicateRatio = 0.2

// PlanStore loads stored meal plans.
type PlanStore interface {
	GetByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) (*planner.MealPlan, error)
}

// ItemStore persists user-added grocery items.
type ItemStore interface {
	Add(ctx context.Context, item *Item) error
	ListByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) ([]Item, error)
	SetChecked(ctx context.Context, userID, id string, checked bool) error
	Delete(ctx context.Context, userID, id string) error
}

// Service builds weekly shopping lists from stored plans and user items.
type Service struct {
	plans  PlanStore
	items  ItemStore
	logger *slog.Logger
}

// NewService creates a new shopping list service.
func NewService(plans PlanStore, items ItemStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{plans: plans, items: items, logger: logger.With("component", "shopping")}
}

// NewItem describes a grocery item a user wants to add. Price and Category
// are optional.
type NewItem struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
}

// AddItem stores a user item for the week containing week, estimating the
// price and classifying it when those are missing or unrecognised.
func (s *Service) AddItem(ctx context.Context, userID string, week time.Time, in NewItem) (*Item, error) {
	parsed := grocery.Parse(in.Name)
	if parsed.Name == "" {
		return nil, ErrInvalidItem
	}

	price := parsed.Price
	if strings.TrimSpace(in.Price) != "" {
		price = grocery.FormatPrice(in.Price)
	}
	if price == "" {
		price = grocery.EstimatePrice(parsed.Name)
	}

	category, ok := grocery.ParseCategory(in.Category)
	if !ok {
		category = grocery.Classify(parsed.Name)
	}

	item := &Item{
		UserID:    userID,
		WeekStart: week,
		Name:      parsed.Name,
		Price:     price,
		Category:  category,
	}
	if err := s.items.Add(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// SetChecked ticks or unticks a user item.
func (s *Service) SetChecked(ctx context.Context, userID, id string, checked bool) error {
	return s.items.SetChecked(ctx, userID, id, checked)
}

// DeleteItem removes a user item.
func (s *Service) DeleteItem(ctx context.Context, userID, id string) error {
	return s.items.Delete(ctx, userID, id)
}

// BuildList returns the shopping list for the week containing week: the
// ingredients of the stored plan, if any, merged with the user's own items.
func (s *Service) BuildList(ctx context.Context, userID string, week time.Time) (*List, error) {
	weekStart := planner.WeekStart(week)

	plan, err := s.plans.GetByUserAndWeek(ctx, userID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load meal plan: %w", err)
	}

	var generated []grocery.CategorizedIngredient
	if plan != nil {
		ingredients, err := grocery.AggregateJSON(plan.Days, weekStart)
		if err != nil {
			return nil, fmt.Errorf("stored meal plan %d is corrupt: %w", plan.ID, err)
		}
		generated = ingredients.Items
	}

	userItems, err := s.items.ListByUserAndWeek(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}

	list := assemble(weekStart, generated, userItems)
	list.HasPlan = plan != nil
	s.logger.Debug("shopping list built",
		"user_id", userID,
		"week", planner.WeekKey(weekStart),
		"items", len(list.Items),
		"total", list.Total,
	)
	return list, nil
}

func assemble(weekStart time.Time, generated []grocery.CategorizedIngredient, userItems []Item) *List {
	buckets := make(map[grocery.Category][]ListItem, len(grocery.CategoryOrder))
	for _, ing := range generated {
		buckets[ing.Category] = append(buckets[ing.Category], ListItem{
			CategorizedIngredient: ing,
			Source:                SourcePlan,
		})
	}

	for _, it := range userItems {
		category := it.Category
		if !category.Valid() {
			category = grocery.Classify(it.Name)
		}
		price := it.Price
		if price == "" {
			price = grocery.EstimatePrice(it.Name)
		}

		if idx := findDuplicate(buckets[category], it.Name); idx >= 0 {
			// The generated entry takes over the user's tick and ID.
			dup := &buckets[category][idx]
			if dup.ID == "" {
				dup.ID = it.ID
				dup.Checked = it.Checked
			}
			continue
		}

		buckets[category] = append(buckets[category], ListItem{
			CategorizedIngredient: grocery.CategorizedIngredient{
				ParsedIngredient: grocery.ParsedIngredient{Name: it.Name, Price: price},
				Category:         category,
			},
			ID:      it.ID,
			Source:  SourceUser,
			Checked: it.Checked,
		})
	}

	list := &List{
		WeekStart: weekStart,
		Items:     []ListItem{},
		Sections:  []Section{},
		Subtotals: make(map[grocery.Category]string),
	}

	total := decimal.Zero
	for _, category := range grocery.CategoryOrder {
		items := buckets[category]
		if len(items) == 0 {
			continue
		}

		subtotal := decimal.Zero
		for _, it := range items {
			if it.IsOnSale {
				list.SaleCount++
			}
			if it.IsReused {
				continue
			}
			subtotal = subtotal.Add(parseMoney(it.Price))
		}

		list.Sections = append(list.Sections, Section{Category: category, Items: items})
		list.Items = append(list.Items, items...)
		list.Subtotals[category] = FormatMoney(subtotal)
		total = total.Add(subtotal)
	}
	list.Total = FormatMoney(total)
	return list
}

// findDuplicate returns the index of the entry whose name is within
// duplicateRatio of name, or -1.
func findDuplicate(items []ListItem, name string) int {
	target := strings.ToLower(strings.TrimSpace(name))
	for i, it := range items {
		if it.Source != SourcePlan {
			continue
		}
		if nameDistanceRatio(target, strings.ToLower(it.Name)) <= duplicateRatio {
			return i
		}
	}
	return -1
}

func nameDistanceRatio(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}

// parseMoney reads "$X.XX"; anything unreadable counts as zero.
func parseMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatMoney renders d as "$X.XX".
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
