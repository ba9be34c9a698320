// Package router assembles the Gin engine from the initialized App.
package router

import (
	"context"
	"net/http"
	"time"

	apphttp "furbabies_backend/internal/http"
	"furbabies_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// New builds the HTTP engine: global middleware, health endpoints, versioned
// route groups, and every module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(app))

	// General limiter: 100 req/min per IP across the whole API.
	general := httpkit.NewIPRateLimiter(rate.Limit(100.0/60.0), 100, app.Logger)
	engine.Use(general.RateLimit())

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/api/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := app.Health.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	authMiddleware := httpkit.AuthRequired(app.Config)

	v1 := engine.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(authMiddleware)
	admin := v1.Group("/admin")
	admin.Use(authMiddleware, httpkit.RequireRole(httpkit.AdminRole))

	routerCtx := &apphttp.RouterContext{
		Engine:            engine,
		V1:                v1,
		Protected:         protected,
		Admin:             admin,
		Config:            app.Config,
		AuthMiddleware:    authMiddleware,
		AuthRateLimiter:   httpkit.NewAuthRateLimiter(app.Logger),
		UploadRateLimiter: httpkit.NewUploadRateLimiter(app.Logger),
		VoteRateLimiter:   httpkit.NewVoteRateLimiter(app.Logger),
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(routerCtx)
		app.Logger.Info("module_routes_registered", "module", module.Name())
	}

	return engine
}

func corsMiddleware(app *apphttp.App) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: app.Config.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if app.Config.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = app.Config.GetCORSOrigins()
	}
	return cors.New(corsCfg)
}
