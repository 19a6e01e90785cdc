package shopping

import (
	"errors"
	"time"

	"bargain-bites/internal/grocery"
)

// ErrItemNotFound is returned when a user item does not exist for the user.
var ErrItemNotFound = errors.New("grocery item not found")

// ErrInvalidItem is returned for user items without a name.
var ErrInvalidItem = errors.New("grocery item name is required")

// Item is a grocery item a user added by hand for a week.
type Item struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	WeekStart time.Time        `json:"week_start"`
	Name      string           `json:"name"`
	Price     string           `json:"price"`
	Category  grocery.Category `json:"category"`
	Checked   bool             `json:"checked"`
	CreatedAt time.Time        `json:"created_at"`
}

// Source tells where a list entry came from.
type Source string

const (
	SourcePlan Source = "plan"
	SourceUser Source = "user"
)

// ListItem is one line of the weekly shopping list.
type ListItem struct {
	grocery.CategorizedIngredient
	ID      string `json:"id,omitempty"`
	Source  Source `json:"source"`
	Checked bool   `json:"checked"`
}

// Section groups the list items of one category.
type Section struct {
	Category grocery.Category `json:"category"`
	Items    []ListItem       `json:"items"`
}

// List is the merged, priced shopping list for one week. Reused items are
// listed but never counted in Subtotals or Total.
type List struct {
	WeekStart time.Time                   `json:"week_start"`
	HasPlan   bool                        `json:"has_plan"`
	Items     []ListItem                  `json:"items"`
	Sections  []Section                   `json:"sections"`
	Subtotals map[grocery.Category]string `json:"subtotals"`
	Total     string                      `json:"total"`
	SaleCount int                         `json:"sale_count"`
}
