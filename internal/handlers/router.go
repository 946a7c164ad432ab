package handlers

import (
	"log/slog"
	"time"

	"weatherlog/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type RouterConfig struct {
	AllowOrigins []string
	RateLimitRPS int
	RateBurst    int
}

func NewRouter(config RouterConfig, readings *ReadingHandler, health *HealthHandler, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	if len(config.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  config.AllowOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
			MaxAge:        12 * time.Hour,
		}))
	}

	if config.RateLimitRPS > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = config.RateLimitRPS
		}
		limiter := rate.NewLimiter(rate.Limit(config.RateLimitRPS), burst)
		r.Use(middleware.RateLimitMiddleware(limiter, logger))
	}

	api := r.Group("/api/v1")
	api.GET("/health", health.Health)
	api.GET("/readings/latest", readings.GetLatest)
	api.GET("/readings", readings.ListReadings)
	api.POST("/export", readings.Export)
	api.GET("/export/download", readings.Download)

	return r
}
