package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sellsight/analytics/internal/api"
	"github.com/sellsight/analytics/internal/cache"
	"github.com/sellsight/analytics/internal/config"
	"github.com/sellsight/analytics/internal/repository/postgres"
	"github.com/sellsight/analytics/internal/service"
	"github.com/sellsight/analytics/internal/storage"
	"github.com/sellsight/analytics/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Forecast cache unavailable, running without it")
		forecastCache = cache.NewNoopForecastCache()
	}
	basketCache, err := cache.NewBasketCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Basket cache unavailable, running without it")
		basketCache = cache.NewNoopBasketCache()
	}

	var archiver *storage.Archiver
	if cfg.Archive.Enabled {
		store, err := storage.NewMinioClient(cfg.Archive)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Archive store unavailable, running without it")
		} else {
			archiver = storage.NewArchiver(store)
		}
	}

	salesRepo := postgres.NewSalesRepository(db)
	forecastRepo := postgres.NewForecastRepository(db)
	basketRepo := postgres.NewBasketRepository(db)

	forecastService := service.NewForecastService(salesRepo, forecastRepo, forecastCache, archiver, cfg.Forecast)
	basketService := service.NewBasketService(salesRepo, basketRepo, basketCache, archiver, cfg.Basket)
	pricingService := service.NewPricingService(forecastService)

	router := api.NewRouter(&api.Services{
		ForecastService: forecastService,
		BasketService:   basketService,
		PricingService:  pricingService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
