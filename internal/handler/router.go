package handler

import (
	_ "embed"
	"net/http"
	"time"

	"planttracker-api/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//go:embed openapi.yaml
var openAPISpec []byte

// RouterConfig collects what NewRouter wires together
type RouterConfig struct {
	Collections    CollectionService
	Uploads        UploadService
	Store          Pinger
	MaxUploadBytes int64
	AllowedOrigins []string
}

// NewRouter builds the HTTP engine with middleware and all routes registered
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20

	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(metrics.Middleware())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	r.GET("/health", Health(cfg.Store))
	r.GET("/metrics", metrics.Handler())

	r.GET("/api/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", openAPISpec)
	})
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/api/openapi.yaml")))

	collectionHandler := NewCollectionHandler(cfg.Collections)
	uploadHandler := NewUploadHandler(cfg.Uploads, cfg.MaxUploadBytes)

	api := r.Group("/api")
	api.GET("/collection/:id", collectionHandler.GetCollection)
	api.GET("/collections", collectionHandler.ListCollections)
	api.POST("/upload", uploadHandler.Upload)

	r.NoRoute(func(c *gin.Context) {
		abortDetail(c, http.StatusNotFound, "Not Found")
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
