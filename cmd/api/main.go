package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planttracker-api/internal/cache"
	"planttracker-api/internal/config"
	"planttracker-api/internal/handler"
	"planttracker-api/internal/logging"
	"planttracker-api/internal/repository"
	"planttracker-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logging.Setup(config.LogLevel, config.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	store, err := repository.Open(ctx, config.DBDriver, config.DBSource)
	if err != nil {
		log.Fatal().Err(err).Str("driver", config.DBDriver).Msg("cannot open store")
	}
	defer store.Close()

	// Cache is optional; without it every detail request reads the store.
	var detailCache service.Cache
	if config.CacheAddr != "" {
		vk, err := cache.NewValkey(config.CacheAddr)
		if err != nil {
			log.Warn().Err(err).Str("addr", config.CacheAddr).Msg("valkey unavailable, caching disabled")
		} else {
			defer vk.Close()
			detailCache = vk
		}
	}

	// Initialize layers
	collectionService := service.NewCollectionService(store, detailCache, config.CacheTTL, service.PageLimits{
		Default: config.DefaultPageSize,
		Max:     config.MaxPageSize,
	})
	uploadService := service.NewUploadService(store, detailCache)

	r := handler.NewRouter(handler.RouterConfig{
		Collections:    collectionService,
		Uploads:        uploadService,
		Store:          store,
		MaxUploadBytes: config.MaxUploadBytes,
		AllowedOrigins: config.AllowedOrigins(),
	})

	srv := &http.Server{
		Addr:              config.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("addr", config.ServerAddress).Str("driver", config.DBDriver).Msg("API server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("shutdown signal received, draining connections")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
