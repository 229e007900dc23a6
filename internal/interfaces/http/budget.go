package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/budget"
	"fintrack/internal/domain/tracker"
)

type BudgetHandler struct {
	svc *tracker.Service
}

func NewBudgetHandler(svc *tracker.Service) *BudgetHandler {
	return &BudgetHandler{svc: svc}
}

type AmountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type LockResponse struct {
	budget.LockStatus
	RemainingText string `json:"remaining"`
	CanUpdate     bool   `json:"canUpdate"`
}

type MonthlyBudgetResponse struct {
	*tracker.MonthlyBudgetResult
	Message string `json:"message"`
}

type CategoryBudgetResponse struct {
	Category   string                     `json:"category"`
	Amount     decimal.Decimal            `json:"amount"`
	Categories map[string]decimal.Decimal `json:"categories"`
}

func readAmount(w http.ResponseWriter, r *http.Request) (decimal.Decimal, bool) {
	var req AmountRequest
	if !decodeJSON(w, r, &req) {
		return decimal.Decimal{}, false
	}
	if req.Amount == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "amount is required", Field: "amount"})
		return decimal.Decimal{}, false
	}
	return *req.Amount, true
}

// HandleOverview returns the budget page view model.
func (h *BudgetHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	overview, err := h.svc.BudgetOverview(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "budget overview", err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *BudgetHandler) HandleLockStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	status, err := h.svc.LockStatus(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "lock status", err)
		return
	}
	writeJSON(w, http.StatusOK, LockResponse{
		LockStatus:    status,
		RemainingText: status.RemainingText(),
		CanUpdate:     !status.Locked,
	})
}

// HandleSetMonthly changes the monthly limit. A locked budget answers 423.
func (h *BudgetHandler) HandleSetMonthly(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	amount, ok := readAmount(w, r)
	if !ok {
		return
	}

	res, err := h.svc.SetMonthlyBudget(r.Context(), userID, amount)
	if err != nil {
		writeServiceError(w, "set monthly budget", err)
		return
	}
	msg := "Budget updated. Updates are now locked for " + res.NextLockDuration + "."
	if res.NextLock.Bypassed {
		msg = "Budget updated."
	}
	writeJSON(w, http.StatusOK, MonthlyBudgetResponse{MonthlyBudgetResult: res, Message: msg})
}

// HandleSetCategory changes one category limit. Category limits ignore the
// lock.
func (h *BudgetHandler) HandleSetCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	amount, ok := readAmount(w, r)
	if !ok {
		return
	}

	category := r.PathValue("category")
	limits, err := h.svc.SetCategoryBudget(r.Context(), userID, category, amount)
	if err != nil {
		writeServiceError(w, "set category budget", err)
		return
	}
	writeJSON(w, http.StatusOK, CategoryBudgetResponse{Category: category, Amount: amount, Categories: limits})
}
