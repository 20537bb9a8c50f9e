// Package router assembles the gin engine from registered modules.
package router

import (
	"net/http"
	"strings"

	apphttp "leadpilot_backend/internal/http"
	"leadpilot_backend/internal/http/middleware"
	"leadpilot_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// New builds the gin engine, wires shared middleware, and lets each module
// register its routes.
func New(app *apphttp.App) *gin.Engine {
	if !strings.EqualFold(appEnv(app), "development") {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(middleware.CORS(app.Config))

	engine.GET("/api/health", func(c *gin.Context) {
		if app.Health != nil {
			if err := app.Health.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	admin := v1.Group("/admin")

	ctx := &apphttp.RouterContext{
		Engine:        engine,
		V1:            v1,
		Admin:         admin,
		AIRateLimiter: httpkit.NewAIRateLimiter(app.Logger),
	}

	for _, m := range app.Modules {
		m.RegisterRoutes(ctx)
		app.Logger.Info("module routes registered", "module", m.Name())
	}

	return engine
}

type envAware interface {
	GetEnv() string
}

func appEnv(app *apphttp.App) string {
	if e, ok := app.Config.(envAware); ok {
		return e.GetEnv()
	}
	return "development"
}
