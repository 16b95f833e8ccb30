package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sellsight/analytics/internal/api/handlers"
	"github.com/sellsight/analytics/internal/api/middleware"
	"github.com/sellsight/analytics/internal/service"
)

type Services struct {
	ForecastService *service.ForecastService
	BasketService   *service.BasketService
	PricingService  *service.PricingService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "X-User-Role"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.ForecastService != nil {
			forecastHandler := handlers.NewForecastHandler(services.ForecastService)
			forecastGroup := apiGroup.Group("/forecasts")
			{
				forecastGroup.POST("", forecastHandler.Generate)
				forecastGroup.GET("", forecastHandler.List)
				forecastGroup.GET("/latest/:product_id", forecastHandler.Latest)
				forecastGroup.POST("/batch", forecastHandler.Batch)
				forecastGroup.PUT("/features", forecastHandler.UpdateFeatureLabels)
			}
		}

		if services.BasketService != nil {
			basketHandler := handlers.NewBasketHandler(services.BasketService)
			basketGroup := apiGroup.Group("/basket")
			{
				basketGroup.POST("/analyses", basketHandler.Analyze)
				basketGroup.GET("/analyses", basketHandler.List)
			}
		}

		if services.PricingService != nil {
			pricingHandler := handlers.NewPricingHandler(services.PricingService)
			apiGroup.GET("/prices/recommendation", pricingHandler.Recommend)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
