package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/budget"
	"fintrack/internal/domain/goal"
	"fintrack/internal/domain/ledger"
	"fintrack/internal/domain/tracker"
	"fintrack/internal/domain/user"
	"fintrack/internal/infrastructure/memory"
	"fintrack/internal/shared/auth"
	"fintrack/internal/shared/middleware"
)

var testNow = time.Date(2024, time.June, 15, 14, 0, 0, 0, time.Local)

// MockUserRepo implements user.Repository for testing
type MockUserRepo struct {
	GetFunc func(ctx context.Context, userID string) (*user.Record, error)
	PutFunc func(ctx context.Context, rec *user.Record) error
}

func (m *MockUserRepo) Get(ctx context.Context, userID string) (*user.Record, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return nil, user.ErrNotFound
}

func (m *MockUserRepo) Put(ctx context.Context, rec *user.Record) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, rec)
	}
	return nil
}

func newService(repo user.Repository) *tracker.Service {
	svc := tracker.NewService(repo, budget.NewLockEngine(false))
	svc.SetClock(func() time.Time { return testNow })
	return svc
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	if s, ok := v.(string); ok {
		return bytes.NewReader([]byte(s))
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(b)
}

// newRequest builds a request authenticated as userID ("" for anonymous).
func newRequest(t *testing.T, method, target string, body any, userID string) *http.Request {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	return req
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
}

func expenseBody(amount float64, category string) map[string]any {
	return map[string]any{
		"transactionDate": "2024-06-10",
		"description":     "Groceries",
		"amount":          amount,
		"type":            "expense",
		"category":        category,
	}
}

func TestTransactionHandler_BudgetRejection(t *testing.T) {
	svc := newService(memory.NewUserRepository())
	budgets := NewBudgetHandler(svc)
	txs := NewTransactionHandler(svc)

	rr := httptest.NewRecorder()
	budgets.HandleSetMonthly(rr, newRequest(t, http.MethodPut, "/api/budgets/monthly", map[string]any{"amount": 1000}, "u1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("set monthly status = %d, want 200 (body %s)", rr.Code, rr.Body)
	}

	rr = httptest.NewRecorder()
	txs.HandleCreate(rr, newRequest(t, http.MethodPost, "/api/transactions", expenseBody(950, "Food"), "u1"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("first expense status = %d, want 201 (body %s)", rr.Code, rr.Body)
	}
	var added tracker.AddResult
	decodeResponse(t, rr, &added)
	if len(added.Warnings) == 0 {
		t.Error("expected a usage warning at 95% of the monthly budget")
	}

	rr = httptest.NewRecorder()
	txs.HandleCreate(rr, newRequest(t, http.MethodPost, "/api/transactions", expenseBody(100, "Food"), "u1"))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("second expense status = %d, want 422", rr.Code)
	}
	var errResp ErrorResponse
	decodeResponse(t, rr, &errResp)
	if errResp.Budget == nil || errResp.Budget.Reason != budget.ReasonMonthlyExceeded {
		t.Fatalf("budget detail = %+v, want monthly_exceeded", errResp.Budget)
	}
	if !errResp.Budget.Remaining.Equal(decimal.NewFromInt(50)) || !errResp.Budget.Overflow.Equal(decimal.NewFromInt(50)) {
		t.Errorf("remaining/overflow = %s/%s, want 50/50", errResp.Budget.Remaining, errResp.Budget.Overflow)
	}

	rr = httptest.NewRecorder()
	txs.HandleList(rr, newRequest(t, http.MethodGet, "/api/transactions", nil, "u1"))
	var list []ledger.Transaction
	decodeResponse(t, rr, &list)
	if len(list) != 1 {
		t.Errorf("transactions = %d, want 1 after rejection", len(list))
	}
}

func TestTransactionHandler_CRUD(t *testing.T) {
	svc := newService(memory.NewUserRepository())
	h := NewTransactionHandler(svc)

	rr := httptest.NewRecorder()
	h.HandleCreate(rr, newRequest(t, http.MethodPost, "/api/transactions", expenseBody(25.5, "Transport"), "u1"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d (body %s)", rr.Code, rr.Body)
	}
	var created tracker.AddResult
	decodeResponse(t, rr, &created)
	id := created.Transaction.ID

	req := newRequest(t, http.MethodGet, "/api/transactions/"+id, nil, "u1")
	req.SetPathValue("id", id)
	rr = httptest.NewRecorder()
	h.HandleGet(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}

	update := expenseBody(30, "Transport")
	update["description"] = "Taxi"
	req = newRequest(t, http.MethodPut, "/api/transactions/"+id, update, "u1")
	req.SetPathValue("id", id)
	rr = httptest.NewRecorder()
	h.HandleUpdate(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d (body %s)", rr.Code, rr.Body)
	}
	var updated ledger.Transaction
	decodeResponse(t, rr, &updated)
	if updated.Description != "Taxi" || !updated.Amount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("updated = %+v", updated)
	}

	req = newRequest(t, http.MethodDelete, "/api/transactions/"+id, nil, "u1")
	req.SetPathValue("id", id)
	rr = httptest.NewRecorder()
	h.HandleDelete(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}

	req = newRequest(t, http.MethodDelete, "/api/transactions/"+id, nil, "u1")
	req.SetPathValue("id", id)
	rr = httptest.NewRecorder()
	h.HandleDelete(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rr.Code)
	}
}

func TestTransactionHandler_Errors(t *testing.T) {
	future := expenseBody(10, "Food")
	future["transactionDate"] = "2024-07-01"

	storeDown := &MockUserRepo{
		GetFunc: func(ctx context.Context, userID string) (*user.Record, error) {
			return nil, &user.StoreError{Op: "get", UserID: userID, Err: errors.New("unavailable")}
		},
	}

	tests := []struct {
		name           string
		repo           user.Repository
		body           any
		userID         string
		expectedStatus int
		expectedField  string
	}{
		{"Unauthorized", memory.NewUserRepository(), expenseBody(10, "Food"), "", http.StatusUnauthorized, ""},
		{"Invalid JSON", memory.NewUserRepository(), "{not json", "u1", http.StatusBadRequest, ""},
		{"Future Date", memory.NewUserRepository(), future, "u1", http.StatusBadRequest, "transactionDate"},
		{"Store Failure", storeDown, expenseBody(10, "Food"), "u1", http.StatusBadGateway, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTransactionHandler(newService(tt.repo))

			rr := httptest.NewRecorder()
			h.HandleCreate(rr, newRequest(t, http.MethodPost, "/api/transactions", tt.body, tt.userID))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.expectedStatus, rr.Body)
			}
			if tt.expectedField != "" {
				var resp ErrorResponse
				decodeResponse(t, rr, &resp)
				if resp.Field != tt.expectedField {
					t.Errorf("field = %q, want %q", resp.Field, tt.expectedField)
				}
			}
		})
	}
}

func TestBudgetHandler_LockAfterChange(t *testing.T) {
	h := NewBudgetHandler(newService(memory.NewUserRepository()))

	rr := httptest.NewRecorder()
	h.HandleSetMonthly(rr, newRequest(t, http.MethodPut, "/api/budgets/monthly", map[string]any{"amount": "1000"}, "u1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("first change status = %d (body %s)", rr.Code, rr.Body)
	}
	var first MonthlyBudgetResponse
	decodeResponse(t, rr, &first)
	if !strings.Contains(first.Message, "locked for") {
		t.Errorf("message = %q, want lock notice", first.Message)
	}

	rr = httptest.NewRecorder()
	h.HandleSetMonthly(rr, newRequest(t, http.MethodPut, "/api/budgets/monthly", map[string]any{"amount": "1200"}, "u1"))
	if rr.Code != http.StatusLocked {
		t.Fatalf("second change status = %d, want 423", rr.Code)
	}
	var errResp ErrorResponse
	decodeResponse(t, rr, &errResp)
	if errResp.Lock == nil || errResp.Lock.Level != 2 {
		t.Errorf("lock = %+v, want level 2", errResp.Lock)
	}
	if errResp.LockRemaining == "" {
		t.Error("lockRemaining should be set")
	}

	rr = httptest.NewRecorder()
	h.HandleLockStatus(rr, newRequest(t, http.MethodGet, "/api/budgets/lock", nil, "u1"))
	var lock LockResponse
	decodeResponse(t, rr, &lock)
	if !lock.Locked || lock.CanUpdate {
		t.Errorf("lock response = %+v, want locked", lock)
	}

	// Category limits ignore the lock.
	req := newRequest(t, http.MethodPut, "/api/budgets/categories/Food", map[string]any{"amount": 300}, "u1")
	req.SetPathValue("category", "Food")
	rr = httptest.NewRecorder()
	h.HandleSetCategory(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("category change status = %d, want 200 (body %s)", rr.Code, rr.Body)
	}
	var cat CategoryBudgetResponse
	decodeResponse(t, rr, &cat)
	if !cat.Categories["Food"].Equal(decimal.NewFromInt(300)) {
		t.Errorf("categories = %v", cat.Categories)
	}
}

func TestBudgetHandler_Validation(t *testing.T) {
	tests := []struct {
		name     string
		category string
		body     any
	}{
		{"Missing Amount", "Food", map[string]any{}},
		{"Negative Amount", "Food", map[string]any{"amount": -5}},
		{"Unknown Category", "Yachts", map[string]any{"amount": 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBudgetHandler(newService(memory.NewUserRepository()))
			req := newRequest(t, http.MethodPut, "/api/budgets/categories/"+tt.category, tt.body, "u1")
			req.SetPathValue("category", tt.category)
			rr := httptest.NewRecorder()
			h.HandleSetCategory(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestBudgetHandler_Overview(t *testing.T) {
	svc := newService(memory.NewUserRepository())
	h := NewBudgetHandler(svc)

	rr := httptest.NewRecorder()
	h.HandleOverview(rr, newRequest(t, http.MethodGet, "/api/budgets", nil, "fresh-user"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var overview tracker.BudgetOverview
	decodeResponse(t, rr, &overview)
	if !overview.CanUpdate || overview.Lock.Level != 1 {
		t.Errorf("fresh user overview lock = %+v canUpdate=%v", overview.Lock, overview.CanUpdate)
	}
}

func TestGoalHandler_Flow(t *testing.T) {
	svc := newService(memory.NewUserRepository())
	goals := NewGoalHandler(svc)
	txs := NewTransactionHandler(svc)

	rr := httptest.NewRecorder()
	goals.HandleCreate(rr, newRequest(t, http.MethodPost, "/api/goals", map[string]any{
		"title": "Laptop", "targetAmount": 500, "category": "Technology",
	}, "u1"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d (body %s)", rr.Code, rr.Body)
	}
	var g goal.Goal
	decodeResponse(t, rr, &g)

	deposit := func(amount int) *httptest.ResponseRecorder {
		req := newRequest(t, http.MethodPost, "/api/goals/"+g.ID+"/contributions", map[string]any{"amount": amount}, "u1")
		req.SetPathValue("id", g.ID)
		rr := httptest.NewRecorder()
		goals.HandleAddMoney(rr, req)
		return rr
	}

	if rr := deposit(100); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("deposit without balance status = %d, want 422", rr.Code)
	}

	rr = httptest.NewRecorder()
	txs.HandleCreate(rr, newRequest(t, http.MethodPost, "/api/transactions", map[string]any{
		"transactionDate": "2024-06-01", "description": "Salary", "amount": 1000, "type": "income", "category": "Salary",
	}, "u1"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("income status = %d (body %s)", rr.Code, rr.Body)
	}

	if rr := deposit(600); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("deposit over target status = %d, want 422", rr.Code)
	}

	rr = deposit(500)
	if rr.Code != http.StatusCreated {
		t.Fatalf("deposit status = %d (body %s)", rr.Code, rr.Body)
	}
	var d tracker.Deposit
	decodeResponse(t, rr, &d)
	if !d.Completed {
		t.Error("goal should be completed")
	}

	req := newRequest(t, http.MethodGet, "/api/goals/"+g.ID+"/contributions", nil, "u1")
	req.SetPathValue("id", g.ID)
	rr = httptest.NewRecorder()
	goals.HandleContributions(rr, req)
	var contributions []goal.Contribution
	decodeResponse(t, rr, &contributions)
	if len(contributions) != 1 {
		t.Errorf("contributions = %d, want 1", len(contributions))
	}

	rr = httptest.NewRecorder()
	goals.HandleList(rr, newRequest(t, http.MethodGet, "/api/goals", nil, "u1"))
	var overview tracker.GoalsOverview
	decodeResponse(t, rr, &overview)
	if !overview.Available.Equal(decimal.NewFromInt(500)) {
		t.Errorf("available = %s, want 500", overview.Available)
	}

	req = newRequest(t, http.MethodDelete, "/api/goals/missing", nil, "u1")
	req.SetPathValue("id", "missing")
	rr = httptest.NewRecorder()
	goals.HandleDelete(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("delete missing status = %d, want 404", rr.Code)
	}
}

func TestDashboardHandler_ProfileAndJournal(t *testing.T) {
	svc := newService(memory.NewUserRepository())
	h := NewDashboardHandler(svc)

	rr := httptest.NewRecorder()
	h.HandleAddJournal(rr, newRequest(t, http.MethodPost, "/api/profile/journal", JournalRequest{Content: "   "}, "u1"))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty journal status = %d, want 400", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.HandleAddJournal(rr, newRequest(t, http.MethodPost, "/api/profile/journal", JournalRequest{Content: "Skipped takeout"}, "u1"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("journal status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.HandleUpdateSettings(rr, newRequest(t, http.MethodPut, "/api/profile/settings", map[string]any{"show_presets": true}, "u1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("settings status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.HandleProfile(rr, newRequest(t, http.MethodGet, "/api/profile", nil, "u1"))
	var p tracker.Profile
	decodeResponse(t, rr, &p)
	if len(p.JournalEntries) != 1 || !p.Settings.ShowPresets || p.Settings.SmartSuggestions {
		t.Errorf("profile = %+v", p)
	}
	if p.TopCategory != "None" {
		t.Errorf("top category = %q, want None", p.TopCategory)
	}

	rr = httptest.NewRecorder()
	h.HandleDashboard(rr, newRequest(t, http.MethodGet, "/api/dashboard?filter_type=expense", nil, "u1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rr.Code)
	}
	var d tracker.Dashboard
	decodeResponse(t, rr, &d)
	if d.Filter.Type != ledger.TypeExpense {
		t.Errorf("filter type = %q, want expense", d.Filter.Type)
	}
}

// externalProvider stands in for an identity provider without password sign-in.
type externalProvider struct{}

func (externalProvider) Verify(ctx context.Context, token string) (string, error) {
	return "", auth.ErrInvalidToken
}

func (externalProvider) Create(ctx context.Context, email, password string) (string, error) {
	return "ext-1", nil
}

func TestAuthHandler_SignupAndLogin(t *testing.T) {
	provider := auth.NewLocalProvider(auth.NewJWT("test-secret"), auth.NewMemoryCredentialStore())
	svc := newService(memory.NewUserRepository())
	svc.SetIdentityProvider(provider)
	h := NewAuthHandler(svc, provider)

	signup := RegisterRequest{Email: "Saver@Example.com", Password: "hunter22", Name: "Sam"}

	rr := httptest.NewRecorder()
	h.HandleSignup(rr, newRequest(t, http.MethodPost, "/api/auth/signup", signup, ""))
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup status = %d (body %s)", rr.Code, rr.Body)
	}
	var created AuthResponse
	decodeResponse(t, rr, &created)
	if created.Token == "" || created.User.Email != "saver@example.com" {
		t.Errorf("signup response = %+v", created)
	}
	if !strings.Contains(rr.Header().Get("Set-Cookie"), middleware.AccessTokenCookie+"=") {
		t.Error("signup should set the access token cookie")
	}

	rr = httptest.NewRecorder()
	h.HandleSignup(rr, newRequest(t, http.MethodPost, "/api/auth/signup", signup, ""))
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", rr.Code)
	}

	tests := []struct {
		name           string
		body           LoginRequest
		expectedStatus int
	}{
		{"Success", LoginRequest{Email: "saver@example.com", Password: "hunter22"}, http.StatusOK},
		{"Wrong Password", LoginRequest{Email: "saver@example.com", Password: "nope-nope"}, http.StatusUnauthorized},
		{"Missing Fields", LoginRequest{Email: "saver@example.com"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.HandleLogin(rr, newRequest(t, http.MethodPost, "/api/auth/login", tt.body, ""))
			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
		})
	}

	rr = httptest.NewRecorder()
	h.HandleSignup(rr, newRequest(t, http.MethodPost, "/api/auth/signup", RegisterRequest{Email: "bad", Password: "hunter22"}, ""))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid email status = %d, want 400", rr.Code)
	}
}

func TestAuthHandler_ExternalProvider(t *testing.T) {
	svc := newService(memory.NewUserRepository())
	svc.SetIdentityProvider(externalProvider{})
	h := NewAuthHandler(svc, externalProvider{})

	rr := httptest.NewRecorder()
	h.HandleLogin(rr, newRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: "a@example.com", Password: "secret1"}, ""))
	if rr.Code != http.StatusNotImplemented {
		t.Errorf("login status = %d, want 501", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.HandleSignup(rr, newRequest(t, http.MethodPost, "/api/auth/signup", RegisterRequest{Email: "a@example.com", Password: "secret1"}, ""))
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup status = %d (body %s)", rr.Code, rr.Body)
	}
	var resp AuthResponse
	decodeResponse(t, rr, &resp)
	if resp.Token != "" || resp.User.ID != "ext-1" {
		t.Errorf("signup response = %+v, want no token and ext-1", resp)
	}

	rr = httptest.NewRecorder()
	h.HandleMe(rr, newRequest(t, http.MethodGet, "/api/auth/me", nil, "ext-1"))
	if rr.Code != http.StatusOK {
		t.Errorf("me status = %d", rr.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	h := NewAuthHandler(newService(memory.NewUserRepository()), externalProvider{})

	rr := httptest.NewRecorder()
	h.HandleLogout(rr, newRequest(t, http.MethodPost, "/api/auth/logout", nil, ""))
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Errorf("Set-Cookie = %q, want expired cookie", rr.Header().Get("Set-Cookie"))
	}
}

func TestHandleHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Errorf("health = %d %s", rr.Code, rr.Body)
	}
}
