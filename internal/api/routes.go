package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/billiards/internal/api/handlers"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/middleware"
	"github.com/playmatatu/billiards/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		matches := v1.Group("/matches")
		{
			matches.POST("", handlers.CreateMatch(cfg))
			matches.GET("/:id", handlers.GetMatch)
			matches.GET("/:id/history", handlers.GetMatchHistory)
			matches.GET("/:id/ws", middleware.WebSocketCORSCheck(cfg), ws.HandleWebSocket(cfg))

			seated := matches.Group("/:id", middleware.SeatAuth(cfg))
			seated.POST("/shots", handlers.TakeShot)
			seated.POST("/cue-ball", handlers.PlaceCueBall)
			seated.POST("/concede", handlers.Concede)
		}
	}
}
