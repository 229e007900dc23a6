package http

import (
	"net/http"

	"fintrack/internal/domain/tracker"
	"fintrack/internal/domain/user"
)

type DashboardHandler struct {
	svc *tracker.Service
}

func NewDashboardHandler(svc *tracker.Service) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

type JournalRequest struct {
	Content string `json:"content"`
}

// HandleDashboard returns balances, summaries and the filtered ledger.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	d, err := h.svc.Dashboard(r.Context(), userID, filterFromQuery(r))
	if err != nil {
		writeServiceError(w, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DashboardHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleUpdateSettings replaces all settings; omitted toggles become false.
func (h *DashboardHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var settings user.Settings
	if !decodeJSON(w, r, &settings) {
		return
	}

	saved, err := h.svc.UpdateSettings(r.Context(), userID, settings)
	if err != nil {
		writeServiceError(w, "update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *DashboardHandler) HandleAddJournal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req JournalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.svc.AddJournalEntry(r.Context(), userID, req.Content)
	if err != nil {
		writeServiceError(w, "add journal entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
