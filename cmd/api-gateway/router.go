package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/performance-report-api/internal/middleware"
	"github.com/noah-isme/performance-report-api/internal/models"
	"github.com/noah-isme/performance-report-api/pkg/config"
	"github.com/noah-isme/performance-report-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/performance-report-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/performance-report-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, logr *zap.Logger, app *application) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))

	r.GET("/health", app.health.Health)
	r.GET("/ready", app.health.Ready)
	r.GET("/metrics", app.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	// Signed tokens authorise downloads on their own.
	api.GET("/export/:token", app.reports.Download)

	secured := api.Group("")
	secured.Use(middleware.Session(cfg.JWT.Secret))
	{
		secured.GET("/groups", app.performance.Groups)
		secured.GET("/groups/:groupId/performance", app.performance.Performance)
		secured.GET("/groups/:groupId/performance/report", app.performance.Report)
		secured.GET("/groups/:groupId/students/:studentId/performance", app.performance.Student)

		secured.POST("/reports/export", app.reports.Export)
		secured.POST("/reports/jobs", app.reports.CreateJob)
		secured.GET("/reports/jobs/:id", app.reports.JobStatus)
	}

	admin := secured.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleInstitutionAdmin))
	admin.GET("/stats", app.health.Stats)
	admin.POST("/cache/invalidate", app.performance.InvalidateCache)

	return r
}
