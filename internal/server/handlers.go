package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"bargain-bites/internal/metrics"
	"bargain-bites/internal/planner"
	"bargain-bites/internal/shopping"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.opts.DatabasePath != "" {
		resp["system"] = metrics.GetSysHealth(s.opts.DatabasePath)
	}
	writeJSON(w, http.StatusOK, resp)
}

// weekParam resolves the "week" query value, writing a 400 when it is invalid.
func (s *Server) weekParam(w http.ResponseWriter, value string) (time.Time, bool) {
	week, err := planner.ParseWeek(value, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return time.Time{}, false
	}
	return week, true
}

func (s *Server) handleGroceryList(w http.ResponseWriter, r *http.Request) {
	week, ok := s.weekParam(w, r.URL.Query().Get("week"))
	if !ok {
		return
	}

	list, err := s.lists.BuildList(r.Context(), UserID(r.Context()), week)
	if err != nil {
		s.logger.Error("failed to build grocery list", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build grocery list")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type addItemRequest struct {
	shopping.NewItem
	Week string `json:"week"`
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	week, ok := s.weekParam(w, req.Week)
	if !ok {
		return
	}

	item, err := s.lists.AddItem(r.Context(), UserID(r.Context()), week, req.NewItem)
	if err != nil {
		s.writeItemError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleCheckItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Checked *bool `json:"checked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Checked == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"checked\": true|false}")
		return
	}

	id := r.PathValue("id")
	if err := s.lists.SetChecked(r.Context(), UserID(r.Context()), id, *req.Checked); err != nil {
		s.writeItemError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "checked": *req.Checked})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.lists.DeleteItem(r.Context(), UserID(r.Context()), r.PathValue("id")); err != nil {
		s.writeItemError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeItemError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shopping.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shopping.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("grocery item operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type createPlanRequest struct {
	Request     string              `json:"request"`
	Preferences planner.Preferences `json:"preferences"`
	Week        string              `json:"week"`
}

type planResponse struct {
	Plan        *planner.MealPlan `json:"plan"`
	GroceryList *shopping.List    `json:"grocery_list,omitempty"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Request = strings.TrimSpace(req.Request)
	if req.Request == "" {
		writeError(w, http.StatusBadRequest, "request is required")
		return
	}
	week, ok := s.weekParam(w, req.Week)
	if !ok {
		return
	}

	plan, list, err := s.planner.PlanWeek(r.Context(), UserID(r.Context()), req.Request, req.Preferences, week)
	if err != nil {
		s.logger.Error("failed to plan week", "week", planner.WeekKey(week), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to plan week")
		return
	}
	writeJSON(w, http.StatusCreated, planResponse{Plan: plan, GroceryList: list})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	week, ok := s.weekParam(w, r.URL.Query().Get("week"))
	if !ok {
		return
	}

	plan, err := s.plans.GetByUserAndWeek(r.Context(), UserID(r.Context()), week)
	if err != nil {
		s.logger.Error("failed to load meal plan", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load meal plan")
		return
	}
	if plan == nil {
		writeError(w, http.StatusNotFound, "no meal plan for this week")
		return
	}
	writeJSON(w, http.StatusOK, planResponse{Plan: plan})
}
