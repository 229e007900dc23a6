package http

import (
	"net/http"

	"fintrack/internal/domain/goal"
	"fintrack/internal/domain/tracker"
)

type GoalHandler struct {
	svc *tracker.Service
}

func NewGoalHandler(svc *tracker.Service) *GoalHandler {
	return &GoalHandler{svc: svc}
}

func (h *GoalHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	overview, err := h.svc.GoalsOverview(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "list goals", err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *GoalHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var p goal.Params
	if !decodeJSON(w, r, &p) {
		return
	}

	g, err := h.svc.CreateGoal(r.Context(), userID, p)
	if err != nil {
		writeServiceError(w, "create goal", err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *GoalHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var p goal.Params
	if !decodeJSON(w, r, &p) {
		return
	}

	g, err := h.svc.EditGoal(r.Context(), userID, r.PathValue("id"), p)
	if err != nil {
		writeServiceError(w, "edit goal", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *GoalHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteGoal(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, "delete goal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleContributions lists a goal's deposits, newest first.
func (h *GoalHandler) HandleContributions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	contributions, err := h.svc.GoalContributions(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "goal contributions", err)
		return
	}
	writeJSON(w, http.StatusOK, contributions)
}

// HandleAddMoney moves money from the available balance into a goal.
func (h *GoalHandler) HandleAddMoney(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	amount, ok := readAmount(w, r)
	if !ok {
		return
	}

	deposit, err := h.svc.AddMoneyToGoal(r.Context(), userID, r.PathValue("id"), amount)
	if err != nil {
		writeServiceError(w, "add money to goal", err)
		return
	}
	writeJSON(w, http.StatusCreated, deposit)
}
