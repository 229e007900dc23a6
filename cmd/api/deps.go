package main

import (
	"context"
	"log"

	"fintrack/internal/domain/budget"
	"fintrack/internal/domain/tracker"
	"fintrack/internal/infrastructure/backend"
	httphandlers "fintrack/internal/interfaces/http"
	"fintrack/internal/shared/auth"
	"fintrack/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	Backend *backend.Backend
	Service *tracker.Service

	// Handlers
	AuthHandler        *httphandlers.AuthHandler
	TransactionHandler *httphandlers.TransactionHandler
	BudgetHandler      *httphandlers.BudgetHandler
	GoalHandler        *httphandlers.GoalHandler
	DashboardHandler   *httphandlers.DashboardHandler

	// Auth
	Verifier auth.Verifier
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	b, err := backend.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Budget.LockOverride {
		log.Println("Warning: budget lock override is enabled, monthly limits can be changed freely")
	}
	svc := tracker.NewService(b.Users, budget.NewLockEngine(cfg.Budget.LockOverride))
	svc.SetIdentityProvider(b.Auth)

	return &Dependencies{
		Backend:            b,
		Service:            svc,
		AuthHandler:        httphandlers.NewAuthHandler(svc, b.Auth),
		TransactionHandler: httphandlers.NewTransactionHandler(svc),
		BudgetHandler:      httphandlers.NewBudgetHandler(svc),
		GoalHandler:        httphandlers.NewGoalHandler(svc),
		DashboardHandler:   httphandlers.NewDashboardHandler(svc),
		Verifier:           b.Auth,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.Backend == nil {
		return
	}
	if err := d.Backend.Close(); err != nil {
		log.Printf("Error closing backend: %v", err)
	}
}
