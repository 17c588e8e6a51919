package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/crazyskateface/workbrew-backend/docs"
	"github.com/crazyskateface/workbrew-backend/internal/cache"
	"github.com/crazyskateface/workbrew-backend/internal/config"
	"github.com/crazyskateface/workbrew-backend/internal/handler"
	"github.com/crazyskateface/workbrew-backend/internal/logger"
	"github.com/crazyskateface/workbrew-backend/internal/metrics"
	"github.com/crazyskateface/workbrew-backend/internal/middleware"
	"github.com/crazyskateface/workbrew-backend/internal/repository"
	"github.com/crazyskateface/workbrew-backend/internal/service"
	"github.com/crazyskateface/workbrew-backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Workbrew API
//	@version		1.0
//	@description	Find places to work near you.
//	@BasePath		/
func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logger.Setup(config.LogLevel, config.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, closeStore, err := store.Open(ctx, config, repository.IndexSpec(config.GeohashIndex))
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open store")
	}
	defer closeStore()

	backend, closeCache, err := cache.Open(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open cache")
	}
	defer closeCache()

	// Initialize layers
	repo := repository.NewPlaceRepository(db, backend, config.PlacesTable, config.GeohashIndex)

	searchService := service.NewSearchService(repo, config.SearchMaxRadiusKm)
	placeService := service.NewPlaceService(repo)

	searchHandler := handler.NewSearchHandler(searchService)
	placeHandler := handler.NewPlaceHandler(placeService)
	geohashHandler := handler.NewGeohashHandler(placeService)

	r := gin.New()
	r.Use(gin.Recovery(), logger.GinLogger(), metrics.GinMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/", middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst).Middleware())
	api.GET("/geohash", geohashHandler.Encode)
	api.GET("/places", placeHandler.List)
	api.POST("/places", placeHandler.Create)
	api.GET("/places/nearby", searchHandler.Nearby)
	api.GET("/places/:id", placeHandler.Get)
	api.PUT("/places/:id", placeHandler.Update)
	api.DELETE("/places/:id", placeHandler.Delete)

	srv := &http.Server{Addr: config.ServerAddress, Handler: r}
	go func() {
		log.Info().Str("addr", config.ServerAddress).Str("store", config.StoreDriver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
