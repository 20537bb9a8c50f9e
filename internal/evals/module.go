package evals

import (
	"github.com/gin-gonic/gin"

	apphttp "leadpilot_backend/internal/http"
	"leadpilot_backend/platform/config"
	"leadpilot_backend/platform/httpkit"
	"leadpilot_backend/platform/logger"
)

// Module exposes the eval harness over HTTP.
type Module struct {
	svc *Service
}

// NewModule creates the evals module.
func NewModule(qualifier Qualifier, cfg config.EvalConfig, log *logger.Logger) *Module {
	return &Module{svc: NewService(qualifier, cfg, log)}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "evals"
}

// RegisterRoutes registers the module's routes. Eval runs call the model once
// per case, so the route shares the AI rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/evals/run", ctx.AIRateLimiter.RateLimit(), m.run)
}

func (m *Module) run(c *gin.Context) {
	summary, err := m.svc.Run(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, summary)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
