package planner

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"text/template"
	"time"

	"bargain-bites/internal/grocery"
	"bargain-bites/internal/llm"
)

//go:embed generator_prompt.md
var generatorPrompt string

var generatorTemplate = template.Must(
	template.New("generator").Funcs(template.FuncMap{"join": strings.Join}).Parse(generatorPrompt),
)

const generatorAgentName = "Generator"

type generatorPromptData struct {
	Preferences
	Request string
}

// Planner handles the generation of meal plans.
type Planner struct {
	textGen llm.TextGenerator
	logger  *slog.Logger
	now     func() time.Time
}

// NewPlanner creates a new Planner instance.
func NewPlanner(textGen llm.TextGenerator, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		textGen: textGen,
		logger:  logger.With("component", "planner"),
		now:     time.Now,
	}
}

// GeneratePlan asks the model for a week of meals and returns it as a DRAFT
// plan for the week containing weekStart. The agent metadata is returned
// even when the response is unusable so token usage can still be recorded.
func (p *Planner) GeneratePlan(
	ctx context.Context,
	userID string,
	request string,
	prefs Preferences,
	weekStart time.Time,
) (*MealPlan, []llm.AgentMeta, error) {
	if prefs.HouseholdSize <= 0 {
		prefs.HouseholdSize = 1
	}

	prompt, err := buildGeneratorPrompt(generatorPromptData{Preferences: prefs, Request: request})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build generator prompt: %w", err)
	}

	start := time.Now()
	resp, err := p.textGen.GenerateContent(ctx, prompt)
	meta := llm.AgentMeta{
		AgentName: generatorAgentName,
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}
	metas := []llm.AgentMeta{meta}
	if err != nil {
		return nil, metas, fmt.Errorf("failed to generate meal plan from LLM: %w", err)
	}

	days, err := normalizeDays(resp.Content)
	if err != nil {
		p.logger.Warn("unusable meal plan response", "user_id", userID, "error", err)
		return nil, metas, err
	}

	week := WeekStart(weekStart)
	p.logger.Info("meal plan generated",
		"user_id", userID,
		"week", week.Format("2006-01-02"),
		"prompt_tokens", meta.Usage.PromptTokens,
		"completion_tokens", meta.Usage.CompletionTokens,
		"latency", meta.Latency,
	)

	return &MealPlan{
		UserID:    userID,
		WeekStart: week,
		Status:    StatusDraft,
		Request:   request,
		Days:      days,
		CreatedAt: p.now(),
	}, metas, nil
}

// normalizeDays strips code fences, checks the response is a JSON object
// with at least one weekday and lowercases its keys. When keys collide after
// lowercasing, a key already in lowercase wins, then the first key in sorted
// order.
func normalizeDays(content string) (json.RawMessage, error) {
	cleaned := llm.CleanJSON(content)
	if cleaned == "" {
		return nil, fmt.Errorf("failed to parse meal plan: empty response")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse meal plan JSON: %w. Response: %s", err, cleaned)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	days := make(map[string]json.RawMessage, len(raw))
	canonical := make(map[string]bool, len(raw))
	for _, k := range keys {
		norm := strings.ToLower(strings.TrimSpace(k))
		if _, seen := days[norm]; seen && (canonical[norm] || k != norm) {
			continue
		}
		days[norm] = raw[k]
		canonical[norm] = k == norm
	}

	found := false
	for _, day := range grocery.Weekdays {
		if _, ok := days[day]; ok {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("failed to parse meal plan: no weekday in response")
	}

	out, err := json.Marshal(days)
	if err != nil {
		return nil, fmt.Errorf("failed to encode meal plan: %w", err)
	}
	return out, nil
}

func buildGeneratorPrompt(data generatorPromptData) (string, error) {
	var buf bytes.Buffer
	if err := generatorTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
