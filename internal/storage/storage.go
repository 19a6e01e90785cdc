package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bargain-bites/internal/planner"
	"bargain-bites/internal/shopping"
)

const snapshotLayout = "20060102T150405Z"

var unsafeChars = strings.NewReplacer(":", "-", "/", "-", "\\", "-", "*", "-", "?", "-", "[", "-", "]", "-", "_", "-")

// ListArchive keeps JSON snapshots of weekly shopping lists on disk. Only
// the latest snapshot of a user's week is kept.
type ListArchive struct {
	basePath string
}

// NewListArchive creates a ListArchive and ensures the base directory exists.
func NewListArchive(basePath string) (*ListArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory %s: %w", basePath, err)
	}
	return &ListArchive{basePath: basePath}, nil
}

func (a *ListArchive) prefix(userID string, weekStart time.Time) string {
	return fmt.Sprintf("%s_%s_", unsafeChars.Replace(userID), planner.WeekKey(weekStart))
}

func (a *ListArchive) matches(userID string, weekStart time.Time) ([]string, error) {
	pattern := filepath.Join(a.basePath, a.prefix(userID, weekStart)+"*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob snapshots: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Save writes list as the user's snapshot for its week and returns the
// file path.
func (a *ListArchive) Save(userID string, list *shopping.List, savedAt time.Time) (string, error) {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal shopping list: %w", err)
	}

	if err := a.RemoveStaleVersions(userID, list.WeekStart); err != nil {
		return "", err
	}

	name := a.prefix(userID, list.WeekStart) + savedAt.UTC().Format(snapshotLayout) + ".json"
	path := filepath.Join(a.basePath, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	return path, nil
}

// Latest loads the newest snapshot of the user's week. The error wraps
// os.ErrNotExist when there is none.
func (a *ListArchive) Latest(userID string, weekStart time.Time) (*shopping.List, error) {
	matches, err := a.matches(userID, weekStart)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no snapshot for %s week %s: %w", userID, planner.WeekKey(weekStart), os.ErrNotExist)
	}

	data, err := os.ReadFile(matches[len(matches)-1])
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var list shopping.List
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &list, nil
}

// Exists reports whether the user's week has a snapshot.
func (a *ListArchive) Exists(userID string, weekStart time.Time) bool {
	matches, err := a.matches(userID, weekStart)
	return err == nil && len(matches) > 0
}

// RemoveStaleVersions removes every snapshot of the user's week.
func (a *ListArchive) RemoveStaleVersions(userID string, weekStart time.Time) error {
	matches, err := a.matches(userID, weekStart)
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("failed to remove stale snapshot %s: %w", match, err)
		}
	}
	return nil
}
