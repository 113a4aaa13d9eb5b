package app

import (
	"net/http"

	"github.com/osvaldoandrade/imagegenie/internal/controllers"
	"github.com/osvaldoandrade/imagegenie/internal/middleware"
	"github.com/osvaldoandrade/imagegenie/pkg/auth/static"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupMappings(app *Application) {
	app.Engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := app.Engine.Group("/v1/imagegenie", middleware.AuthMiddleware(app.Config))
	control := v1.Group("", middleware.RequireScope(static.ScopeControl))
	limit := func(op string) gin.HandlerFunc { return middleware.RateLimitAPI(app.RateLimiter, app.Config, op) }

	carousel := controllers.NewCarouselController(app.Sink)
	stats := controllers.NewStatisticsController(app.Rankings, app.Config.OutputDir)
	gallery := controllers.NewGalleryController(app.Gallery)
	{
		v1.GET("/models", controllers.NewModelsController(app.Models).Handle)
		v1.GET("/batches/:id", controllers.NewBatchStatusController(app.Generation).Handle)
		v1.GET("/carousel", carousel.Handle)
		v1.GET("/carousel/current/image", carousel.CurrentImage)
		v1.GET("/leaderboard", controllers.NewLeaderboardController(app.Rankings).Handle)
		v1.GET("/statistics", stats.Handle)
		v1.GET("/gallery", gallery.List)
		v1.GET("/gallery/:id", gallery.Get)
		v1.GET("/log", controllers.NewActivityLogController(app.Activity).Handle)

		control.POST("/batches", limit("submit_batch"), controllers.NewSubmitBatchController(app.Generation, app.Models).Handle)
		control.DELETE("/batches/:id", controllers.NewCancelBatchController(app.Generation).Handle)
		control.POST("/carousel/navigate", carousel.Navigate)
		control.POST("/sessions", limit("record_session"), controllers.NewRecordSessionController(app.Rankings, app.Sink).Handle)
		control.POST("/statistics/export", stats.Export)
		control.POST("/users", controllers.NewUserController(app.Users).Handle)
		control.POST("/enhance", limit("enhance"), controllers.NewEnhanceController(app.Enhancer).Handle)
	}
}
