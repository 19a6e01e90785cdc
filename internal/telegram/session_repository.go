package telegram

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bargain-bites/internal/database"
)

// SessionPendingPlan marks a plan request waiting for the user to choose
// which week it is for.
const SessionPendingPlan = "pending_plan"

// Session represents an active user session (e.g., awaiting a week choice)
type Session struct {
	ID          int64
	UserID      string
	SessionType string
	State       string
	ContextData string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// SessionContextData holds structured data stored in the context_data JSON field
type SessionContextData struct {
	Request   string `json:"request"`
	WeekStart string `json:"week_start"`
}

// SessionRepository provides access to session persistence operations
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository instance
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session and returns its ID
func (sr *SessionRepository) Create(ctx context.Context, userID, sessionType, state string, contextData SessionContextData, ttl time.Duration) (int64, error) {
	jsonData, err := json.Marshal(contextData)
	if err != nil {
		return 0, fmt.Errorf("failed to encode session data: %w", err)
	}

	now := time.Now()
	res, err := sr.db.ExecContext(ctx,
		`INSERT INTO telegram_sessions (user_id, session_type, state, context_data, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, sessionType, state, string(jsonData), database.FormatTime(now.Add(ttl)), database.FormatTime(now),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	return res.LastInsertId()
}

// GetActive retrieves the most recent active session for a user (non-expired)
func (sr *SessionRepository) GetActive(ctx context.Context, userID string, now time.Time) (*Session, error) {
	var (
		s         Session
		expiresAt string
		createdAt string
	)
	err := sr.db.QueryRowContext(ctx,
		`SELECT id, user_id, session_type, state, context_data, expires_at, created_at
		 FROM telegram_sessions
		 WHERE user_id = ? AND expires_at > ?
		 ORDER BY id DESC LIMIT 1`,
		userID, database.FormatTime(now),
	).Scan(&s.ID, &s.UserID, &s.SessionType, &s.State, &s.ContextData, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}

	if s.ExpiresAt, err = database.ParseTime(expiresAt); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetContextData unmarshals the context_data JSON field
func (s *Session) GetContextData() (SessionContextData, error) {
	var data SessionContextData
	err := json.Unmarshal([]byte(s.ContextData), &data)
	return data, err
}

// Delete removes a session
func (sr *SessionRepository) Delete(ctx context.Context, sessionID int64) error {
	if _, err := sr.db.ExecContext(ctx, `DELETE FROM telegram_sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpired removes all expired sessions and reports how many went.
func (sr *SessionRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := sr.db.ExecContext(ctx, `DELETE FROM telegram_sessions WHERE expires_at <= ?`, database.FormatTime(now))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	return res.RowsAffected()
}
