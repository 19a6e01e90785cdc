package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"bargain-bites/internal/planner"
	"bargain-bites/internal/shopping"
)

// Lists is the shopping list service behind the grocery endpoints.
type Lists interface {
	BuildList(ctx context.Context, userID string, week time.Time) (*shopping.List, error)
	AddItem(ctx context.Context, userID string, week time.Time, in shopping.NewItem) (*shopping.Item, error)
	SetChecked(ctx context.Context, userID, id string, checked bool) error
	DeleteItem(ctx context.Context, userID, id string) error
}

// WeekPlanner generates and stores a week's plan.
type WeekPlanner interface {
	PlanWeek(ctx context.Context, userID, request string, prefs planner.Preferences, week time.Time) (*planner.MealPlan, *shopping.List, error)
}

// PlanReader loads stored plans.
type PlanReader interface {
	GetByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) (*planner.MealPlan, error)
}

// Options configures the HTTP API.
type Options struct {
	JWTSecret    []byte
	DatabasePath string
	// Webhook, when set, receives Telegram updates at /telegram/webhook.
	Webhook http.Handler
}

// Server serves the JSON API.
type Server struct {
	lists   Lists
	planner WeekPlanner
	plans   PlanReader
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
}

// New creates the API server.
func New(lists Lists, weekPlanner WeekPlanner, plans PlanReader, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		lists:   lists,
		planner: weekPlanner,
		plans:   plans,
		opts:    opts,
		logger:  logger.With("component", "http"),
		now:     time.Now,
	}
}

// Handler returns the routed and wrapped http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	auth := RequireAuth(s.opts.JWTSecret)
	mux.Handle("GET /api/grocery-list", auth(http.HandlerFunc(s.handleGroceryList)))
	mux.Handle("POST /api/grocery-items", auth(http.HandlerFunc(s.handleAddItem)))
	mux.Handle("PATCH /api/grocery-items/{id}", auth(http.HandlerFunc(s.handleCheckItem)))
	mux.Handle("DELETE /api/grocery-items/{id}", auth(http.HandlerFunc(s.handleDeleteItem)))
	mux.Handle("POST /api/meal-plans", auth(http.HandlerFunc(s.handleCreatePlan)))
	mux.Handle("GET /api/meal-plans", auth(http.HandlerFunc(s.handleGetPlan)))

	if s.opts.Webhook != nil {
		mux.Handle("POST /telegram/webhook", s.opts.Webhook)
	}

	return RequestLogger(s.logger)(Recoverer(s.logger)(mux))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
