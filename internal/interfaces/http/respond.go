package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"fintrack/internal/domain/budget"
	"fintrack/internal/domain/goal"
	"fintrack/internal/domain/ledger"
	"fintrack/internal/domain/tracker"
	"fintrack/internal/domain/user"
	"fintrack/internal/domain/validation"
	"fintrack/internal/shared/auth"
	"fintrack/internal/shared/middleware"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`

	// Set on 423 responses.
	Lock          *budget.LockStatus `json:"lock,omitempty"`
	LockRemaining string             `json:"lockRemaining,omitempty"`

	// Set on 422 budget rejections.
	Budget *budget.ExceededError `json:"budget,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// decodeJSON reads a request body into v, rejecting unknown shapes with 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// requireUser returns the authenticated user ID or writes 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}

// writeServiceError maps domain errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var (
		verr     *validation.Error
		locked   *budget.LockedError
		exceeded *budget.ExceededError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Message, Field: verr.Field})
	case errors.As(err, &locked):
		writeJSON(w, http.StatusLocked, ErrorResponse{
			Error:         "Budget updates are locked: " + locked.Status.Reason,
			Lock:          &locked.Status,
			LockRemaining: locked.Status.RemainingText(),
		})
	case errors.As(err, &exceeded):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: exceeded.Error(), Budget: exceeded})
	case errors.Is(err, goal.ErrInsufficientBalance), errors.Is(err, goal.ErrExceedsTarget):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, goal.ErrNotFound):
		writeError(w, http.StatusNotFound, "Goal not found")
	case errors.Is(err, auth.ErrEmailInUse):
		writeError(w, http.StatusConflict, "An account with this email already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, user.ErrStore):
		log.Printf("Store error during %s: %v", op, err)
		writeError(w, http.StatusBadGateway, "Storage backend unavailable")
	case errors.Is(err, tracker.ErrNoIdentityProvider):
		writeError(w, http.StatusNotImplemented, "Registration is not available")
	default:
		log.Printf("Error during %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
