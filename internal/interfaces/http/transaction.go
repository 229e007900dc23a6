package http

import (
	"net/http"

	"fintrack/internal/domain/ledger"
	"fintrack/internal/domain/tracker"
)

type TransactionHandler struct {
	svc *tracker.Service
}

func NewTransactionHandler(svc *tracker.Service) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

// filterFromQuery reads the dashboard and list filters.
func filterFromQuery(r *http.Request) ledger.Filter {
	q := r.URL.Query()
	return ledger.ParseFilter(q.Get("filter_category"), q.Get("filter_type"), q.Get("start_date"), q.Get("end_date"))
}

// HandleList returns the user's transactions, newest first.
func (h *TransactionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	txs, err := h.svc.ListTransactions(r.Context(), userID, filterFromQuery(r))
	if err != nil {
		writeServiceError(w, "list transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// HandleCreate records a transaction after the budget check. Rejections
// answer 422 and leave the ledger unchanged.
func (h *TransactionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in ledger.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	res, err := h.svc.AddTransaction(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, "add transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *TransactionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	tx, err := h.svc.GetTransaction(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "get transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *TransactionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in ledger.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	tx, err := h.svc.EditTransaction(r.Context(), userID, r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, "edit transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *TransactionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if _, err := h.svc.DeleteTransaction(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, "delete transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
