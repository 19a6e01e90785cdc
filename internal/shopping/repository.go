package shopping

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bargain-bites/internal/database"
	"bargain-bites/internal/grocery"
	"bargain-bites/internal/planner"

	"github.com/google/uuid"
)

// Repository handles persistence of user-added grocery items.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new grocery item repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Add stores item under a fresh ID. WeekStart is normalised to its week.
func (r *Repository) Add(ctx context.Context, item *Item) error {
	item.ID = uuid.NewString()
	item.WeekStart = planner.WeekStart(item.WeekStart)
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO grocery_items (id, user_id, week_start, name, price, category, checked, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, planner.WeekKey(item.WeekStart), item.Name, item.Price,
		string(item.Category), item.Checked, database.FormatTime(item.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert grocery item: %w", err)
	}
	return nil
}

// ListByUserAndWeek returns the user's items for the week containing
// weekStart, oldest first.
func (r *Repository) ListByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, price, category, checked, created_at
		 FROM grocery_items
		 WHERE user_id = ? AND week_start = ?
		 ORDER BY created_at, id`,
		userID, planner.WeekKey(weekStart),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list grocery items: %w", err)
	}
	defer rows.Close()

	week := planner.WeekStart(weekStart)
	items := []Item{}
	for rows.Next() {
		var (
			it        Item
			category  string
			createdAt string
		)
		if err := rows.Scan(&it.ID, &it.UserID, &it.Name, &it.Price, &category, &it.Checked, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan grocery item: %w", err)
		}
		it.CreatedAt, err = database.ParseTime(createdAt)
		if err != nil {
			return nil, err
		}
		it.Category = grocery.Category(category)
		it.WeekStart = week
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list grocery items: %w", err)
	}
	return items, nil
}

// SetChecked ticks or unticks one of the user's items.
func (r *Repository) SetChecked(ctx context.Context, userID, id string, checked bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE grocery_items SET checked = ? WHERE id = ? AND user_id = ?`, checked, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update grocery item: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes one of the user's items.
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM grocery_items WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete grocery item: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}
