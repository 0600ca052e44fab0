package app

import (
	"github.com/kzero-xyz/proofbridge/internal/controllers"
	"github.com/kzero-xyz/proofbridge/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupMappings(app *Application) {
	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := app.Engine.Group("/v1/proof")
	producer := v1.Group("", middleware.AuthMiddleware(app.ProducerValidator, app.Config))
	worker := v1.Group("", middleware.WorkerAuthMiddleware(app.WorkerValidator))
	anyAuth := v1.Group("", middleware.AnyAuthMiddleware(app.WorkerValidator, app.ProducerValidator, app.Config))
	{
		producer.POST("/requests", middleware.RateLimitProducer(app.RateLimiter, app.Config), controllers.NewSubmitProofController(app.Submit).Handle)

		anyAuth.GET("/jobs/:id", controllers.NewGetJobController(app.Scheduler).Handle)

		worker.GET("/channel", middleware.RequireWorkerScope("proofbridge:worker"), middleware.RateLimitWorkerClaim(app.RateLimiter, app.Config), controllers.NewWorkerChannelController(app.Hub, app.Logger).Handle)

		admin := anyAuth.Group("/admin", middleware.RequireAdmin())
		admin.GET("/stats", controllers.NewQueueStatsController(app.Scheduler).Handle)
		admin.POST("/cleanup", middleware.RateLimitAdminCleanup(app.RateLimiter, app.Config), controllers.NewCleanupExpiredController(app.Scheduler).Handle)
	}
}
