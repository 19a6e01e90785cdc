package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bargain-bites/internal/database"
	"bargain-bites/internal/llm"
)

// ExecutionMetric records metadata for a single agent execution.
type ExecutionMetric struct {
	AgentName        string
	Model            string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Timestamp        time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m ExecutionMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO execution_metrics (agent_name, model, prompt_tokens, completion_tokens, latency_ms, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.AgentName, m.Model, m.PromptTokens, m.CompletionTokens, m.LatencyMS, database.FormatTime(ts),
	)
	if err != nil {
		return fmt.Errorf("failed to record execution metric: %w", err)
	}
	return nil
}

// RecordMeta records metrics directly from llm.AgentMeta. Executions that
// consumed no tokens are not stored.
func (s *Store) RecordMeta(ctx context.Context, meta llm.AgentMeta) error {
	if meta.Usage.PromptTokens == 0 && meta.Usage.CompletionTokens == 0 {
		return nil
	}
	m := MapUsage(meta.AgentName, meta.Usage, meta.Latency)
	m.Timestamp = s.now()
	return s.Record(ctx, m)
}

// DailyUsage represents token totals for a single day.
type DailyUsage struct {
	Date            string
	TotalPrompt     int
	TotalCompletion int
	TotalExecution  int
}

// GetDailyUsage retrieves usage for the last N days, newest first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := database.FormatTime(s.now().AddDate(0, 0, -days))
	rows, err := s.db.QueryContext(ctx,
		`SELECT substr(timestamp, 1, 10) AS day,
		        COALESCE(SUM(prompt_tokens), 0),
		        COALESCE(SUM(completion_tokens), 0),
		        COUNT(*)
		 FROM execution_metrics
		 WHERE timestamp >= ?
		 GROUP BY day
		 ORDER BY day DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Date, &u.TotalPrompt, &u.TotalCompletion, &u.TotalExecution); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		results = append(results, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily usage: %w", err)
	}
	return results, nil
}

// Cleanup removes records older than the specified number of days and
// reports how many were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := database.FormatTime(s.now().AddDate(0, 0, -olderThanDays))
	res, err := s.db.ExecContext(ctx, `DELETE FROM execution_metrics WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up execution metrics: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count removed metrics: %w", err)
	}
	return n, nil
}

// MapUsage helper to convert llm.TokenUsage to ExecutionMetric.
func MapUsage(agentName string, usage llm.TokenUsage, latency time.Duration) ExecutionMetric {
	return ExecutionMetric{
		AgentName:        agentName,
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		LatencyMS:        latency.Milliseconds(),
	}
}
