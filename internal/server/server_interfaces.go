package server

import (
	"context"

	"github.com/go-chi/chi/v5"
)

// ServerTestInterface is the lifecycle surface of Server.
type ServerTestInterface interface {
	SetupRoutes()
	GetRouter() chi.Router
	Start() error
	Shutdown(ctx context.Context) error
	SetupMaintenanceTasks()
	RunMaintenance(ctx context.Context)
}

// ServerDBHealthChecker abstracts the database health check so the health
// endpoint can run without a live connection.
type ServerDBHealthChecker interface {
	// HealthCheck verifies the database connection is working properly
	HealthCheck(ctx context.Context) error

	// Close terminates the database connection
	Close()
}

var _ ServerTestInterface = (*Server)(nil)
