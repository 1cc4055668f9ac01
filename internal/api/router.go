package api

import (
	"github.com/gin-gonic/gin"

	"github.com/abhisek/trailquest/internal/logger"
)

type RouterConfig struct {
	Handler *Handler
	Log     *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(cfg.Log))
	router.Use(CORS())

	router.GET("/healthz", HealthCheck)

	api := router.Group("/api")
	api.GET("/modules", cfg.Handler.ListModules)
	api.GET("/modules/:id/reward", cfg.Handler.GetModuleReward)

	// Per-user
	user := api.Group("/")
	user.Use(RequireUser())
	user.GET("/modules/:id/trail", cfg.Handler.GetTrail)
	user.POST("/modules/:id/claim", cfg.Handler.ClaimModule)
	user.POST("/phases/:id/start", cfg.Handler.StartPhase)
	user.POST("/phases/:id/complete", cfg.Handler.CompletePhase)
	user.POST("/daily-bonus/claim", cfg.Handler.ClaimDailyBonus)
	user.POST("/login-tick", cfg.Handler.LoginTick)
	user.GET("/profile", cfg.Handler.GetProfile)

	return router
}
