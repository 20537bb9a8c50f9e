// Package search provides relevance-ranked substring search over leads,
// activities and lead metadata.
package search

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "leadpilot_backend/internal/http"
	"leadpilot_backend/internal/search/handler"
	"leadpilot_backend/internal/search/repository"
	"leadpilot_backend/internal/search/service"
)

// Module represents the search domain module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the search module with all dependencies wired.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	return &Module{handler: handler.New(svc)}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "search"
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/search"))
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
