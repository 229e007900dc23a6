package main

import (
	"log"
	"net/http"

	httphandlers "fintrack/internal/interfaces/http"
	"fintrack/internal/shared/config"
	"fintrack/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", httphandlers.HandleHealth)

	// Public auth routes
	limit := middleware.RateLimit(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	mux.Handle("POST /api/auth/signup", limit(http.HandlerFunc(deps.AuthHandler.HandleSignup)))
	mux.Handle("POST /api/auth/login", limit(http.HandlerFunc(deps.AuthHandler.HandleLogin)))
	mux.HandleFunc("POST /api/auth/logout", deps.AuthHandler.HandleLogout)

	// Protected routes
	authMiddleware := middleware.Auth(deps.Verifier)
	protect := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMiddleware(h))
	}

	protect("GET /api/auth/me", deps.AuthHandler.HandleMe)
	protect("GET /api/dashboard", deps.DashboardHandler.HandleDashboard)

	protect("GET /api/transactions", deps.TransactionHandler.HandleList)
	protect("POST /api/transactions", deps.TransactionHandler.HandleCreate)
	protect("GET /api/transactions/{id}", deps.TransactionHandler.HandleGet)
	protect("PUT /api/transactions/{id}", deps.TransactionHandler.HandleUpdate)
	protect("DELETE /api/transactions/{id}", deps.TransactionHandler.HandleDelete)

	protect("GET /api/budgets", deps.BudgetHandler.HandleOverview)
	protect("GET /api/budgets/lock", deps.BudgetHandler.HandleLockStatus)
	protect("PUT /api/budgets/monthly", deps.BudgetHandler.HandleSetMonthly)
	protect("PUT /api/budgets/categories/{category}", deps.BudgetHandler.HandleSetCategory)

	protect("GET /api/goals", deps.GoalHandler.HandleList)
	protect("POST /api/goals", deps.GoalHandler.HandleCreate)
	protect("PUT /api/goals/{id}", deps.GoalHandler.HandleUpdate)
	protect("DELETE /api/goals/{id}", deps.GoalHandler.HandleDelete)
	protect("GET /api/goals/{id}/contributions", deps.GoalHandler.HandleContributions)
	protect("POST /api/goals/{id}/contributions", deps.GoalHandler.HandleAddMoney)

	protect("GET /api/profile", deps.DashboardHandler.HandleProfile)
	protect("PUT /api/profile/settings", deps.DashboardHandler.HandleUpdateSettings)
	protect("POST /api/profile/journal", deps.DashboardHandler.HandleAddJournal)

	// Apply global middleware
	handler := middleware.Logging(middleware.CORS(cfg.Server.AllowedOrigins)(mux))

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Println("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(middleware.Tracing(handler))
	}

	return handler
}
