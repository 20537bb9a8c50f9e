// Package leads provides the lead management domain module: CRUD, the
// pipeline state machine, the activity log and the qualification adapter.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"leadpilot_backend/internal/events"
	apphttp "leadpilot_backend/internal/http"
	"leadpilot_backend/internal/leads/activity"
	"leadpilot_backend/internal/leads/handler"
	"leadpilot_backend/internal/leads/pipeline"
	"leadpilot_backend/internal/leads/qualify"
	"leadpilot_backend/internal/leads/repository"
	"leadpilot_backend/internal/leads/service"
	"leadpilot_backend/platform/logger"
	"leadpilot_backend/platform/validator"
)

// Module represents the leads domain module.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	pipeline   *pipeline.Service
	activities *activity.Service
	qualifier  *qualify.Service
	repo       *repository.Repo
}

// NewModule wires the leads module. The mail sender may be nil when SMTP is
// not configured; the send endpoint then rejects requests.
func NewModule(pool *pgxpool.Pool, generator qualify.Generator, sender service.MailSender, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	activities := activity.NewService(repo, log)
	engine := pipeline.NewService(repo, activities, bus, log)
	qualifier := qualify.NewService(generator, log)
	svc := service.NewService(repo, activities, qualifier, engine, sender, bus, log)
	h := handler.New(svc, engine, activities, val)

	return &Module{
		handler:    h,
		service:    svc,
		pipeline:   engine,
		activities: activities,
		qualifier:  qualifier,
		repo:       repo,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Activities returns the activity log service for the scheduler and CLI.
func (m *Module) Activities() *activity.Service {
	return m.activities
}

// Qualifier returns the qualification adapter for the eval harness.
func (m *Module) Qualifier() *qualify.Service {
	return m.qualifier
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	aiLimited := ctx.AIRateLimiter.RateLimit()

	m.handler.RegisterRoutes(ctx.V1.Group("/leads"), aiLimited)
	m.handler.RegisterPipelineRoutes(ctx.V1.Group("/pipeline"))
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
