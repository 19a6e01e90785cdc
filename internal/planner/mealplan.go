package planner

import (
	"encoding/json"
	"time"
)

// PlanStatus represents the lifecycle state of a meal plan.
type PlanStatus string

const (
	StatusDraft PlanStatus = "DRAFT"
	StatusFinal PlanStatus = "FINAL"
)

// Deal is a current flyer deal the generator may build meals around.
type Deal struct {
	Item  string `json:"item"`
	Price string `json:"price"`
	Store string `json:"store"`
}

// Preferences are the household's planning constraints.
type Preferences struct {
	Budget              string   `json:"budget"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	Allergies           []string `json:"allergies"`
	HouseholdSize       int      `json:"household_size"`
	Store               string   `json:"store"`
	SplitMeals          bool     `json:"split_meals"`
	Deals               []Deal   `json:"deals"`
}

// MealPlan is one user's plan for one week. Days holds the generated JSON
// object keyed by lowercase weekday.
type MealPlan struct {
	ID        int64           `json:"id,omitempty"`
	UserID    string          `json:"user_id"`
	WeekStart time.Time       `json:"week_start"`
	Status    PlanStatus      `json:"status"`
	Request   string          `json:"request,omitempty"`
	Days      json.RawMessage `json:"days"`
	CreatedAt time.Time       `json:"created_at"`
}
