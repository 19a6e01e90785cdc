package planner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bargain-bites/internal/database"
)

// PlanRepository is a database-backed repository for meal plans. There is
// at most one plan per user and week.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Save stores plan, replacing any plan the user already has for that week,
// and returns its ID.
func (r *PlanRepository) Save(ctx context.Context, plan *MealPlan) (int64, error) {
	createdAt := plan.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	status := plan.Status
	if status == "" {
		status = StatusDraft
	}
	week := WeekKey(plan.WeekStart)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (user_id, week_start, status, request, plan_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, week_start) DO UPDATE SET
		     status = excluded.status,
		     request = excluded.request,
		     plan_data = excluded.plan_data,
		     created_at = excluded.created_at`,
		plan.UserID, week, string(status), plan.Request, string(plan.Days), database.FormatTime(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save meal plan for user %s: %w", plan.UserID, err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM meal_plans WHERE user_id = ? AND week_start = ?`, plan.UserID, week,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to read saved meal plan id: %w", err)
	}
	plan.ID = id
	return id, nil
}

// GetByUserAndWeek returns the user's plan for the week containing
// weekStart, or nil when there is none.
func (r *PlanRepository) GetByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) (*MealPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, week_start, status, request, plan_data, created_at
		 FROM meal_plans WHERE user_id = ? AND week_start = ?`,
		userID, WeekKey(weekStart),
	)
	plan, err := scanPlan(row, weekStart.Location())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal plan for user %s: %w", userID, err)
	}
	return plan, nil
}

// ExistsForWeek reports whether the user already has a plan for the week.
func (r *PlanRepository) ExistsForWeek(ctx context.Context, userID string, weekStart time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM meal_plans WHERE user_id = ? AND week_start = ?)`,
		userID, WeekKey(weekStart),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check meal plan for user %s: %w", userID, err)
	}
	return exists, nil
}

// ListRecentByUserID retrieves the N most recent meal plans for a given user.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]MealPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, week_start, status, request, plan_data, created_at
		 FROM meal_plans WHERE user_id = ?
		 ORDER BY week_start DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	var mealPlans []MealPlan
	for rows.Next() {
		plan, err := scanPlan(rows, time.Local)
		if err != nil {
			return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
		}
		mealPlans = append(mealPlans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
	}
	return mealPlans, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(s scanner, loc *time.Location) (*MealPlan, error) {
	var (
		plan      MealPlan
		week      string
		status    string
		data      string
		createdAt string
	)
	if err := s.Scan(&plan.ID, &plan.UserID, &week, &status, &plan.Request, &data, &createdAt); err != nil {
		return nil, err
	}

	ws, err := time.ParseInLocation(database.DateLayout, week, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse week_start %q: %w", week, err)
	}
	ca, err := database.ParseTime(createdAt)
	if err != nil {
		return nil, err
	}

	plan.WeekStart = ws
	plan.Status = PlanStatus(status)
	plan.Days = []byte(data)
	plan.CreatedAt = ca
	return &plan, nil
}
