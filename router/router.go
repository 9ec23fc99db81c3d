package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/softex1/tably-paket1/config"
	"github.com/softex1/tably-paket1/controllers"
	"github.com/softex1/tably-paket1/hub"
	"github.com/softex1/tably-paket1/middlewares"
	"github.com/softex1/tably-paket1/services"
)

func SetupRouter(cfg *config.Config, svc *services.Registry, h *hub.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders(cfg.IsProduction()))
	r.Use(middlewares.CORS(cfg.CORSOrigins))

	middlewares.InitMetrics()
	r.Use(middlewares.PrometheusMiddleware())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", middlewares.MetricsHandler())

	sessionCtrl := controllers.NewSessionController(svc.Sessions)
	callCtrl := controllers.NewCallController(svc.Gate, svc.Calls, cfg.CallRecentWindow)
	tableCtrl := controllers.NewTableController(svc.Tables, svc.Auth)
	adminCtrl := controllers.NewAdminController(svc.Auth)
	feedCtrl := controllers.NewFeedController(h, cfg.CORSOrigins)

	loginLimiter := middlewares.NewIPRateLimiter(cfg.LoginRatePerMin)

	api := r.Group("/api")
	{
		api.POST("/sessions/qr/:code", sessionCtrl.CreateFromQR)
		api.GET("/sessions/validate", sessionCtrl.Validate)
		api.POST("/calls/:code/:type", callCtrl.Create)
		api.GET("/tables/qr/:code", tableCtrl.GetByCode)
		api.POST("/auth/login", loginLimiter.Middleware(), adminCtrl.Login)
	}

	admin := api.Group("/admin")
	admin.Use(middlewares.AdminAuth([]byte(cfg.JWTSecret)))
	{
		admin.GET("/calls", callCtrl.ListActive)
		admin.GET("/calls/recent", callCtrl.ListRecent)
		admin.POST("/calls/:id/resolve", callCtrl.Resolve)

		admin.GET("/tables", tableCtrl.List)
		admin.POST("/tables", tableCtrl.Create)
		admin.PATCH("/tables/:id", tableCtrl.Update)
		admin.DELETE("/tables/:id", tableCtrl.Delete)

		admin.GET("/users", adminCtrl.ListUsers)
		admin.POST("/users", adminCtrl.CreateUser)
		admin.PUT("/users/:id", adminCtrl.ChangePassword)
		admin.DELETE("/users/:id", adminCtrl.DeleteUser)

		admin.GET("/sessions", sessionCtrl.ListActive)
		admin.POST("/sessions/:id/expire", sessionCtrl.Expire)

		admin.GET("/ws", feedCtrl.Serve)
	}

	return r
}
