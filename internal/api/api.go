// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/api/handlers"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/api/middleware"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/ingest"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	ProductService   *service.ProductService
	AnalyticsService *service.AnalyticsService
	IngestService    *ingest.Service
}

// RouterConfig carries the values the root routes and CORS need
type RouterConfig struct {
	Env            string
	Version        string
	AllowedOrigins []string
}

func NewRouter(services *Services, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = handlers.MaxUploadBytes

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(cfg.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	env := cfg.Env
	if env == "" {
		env = "dev"
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "env": env})
	})
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"msg":       "SupplyChain AI running",
			"version":   cfg.Version,
			"dashboard": "/api/v1/analytics/dashboard",
		})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.ProductService != nil {
			productHandler := handlers.NewProductHandler(services.ProductService)
			productGroup := apiGroup.Group("/products")
			{
				productGroup.POST("", productHandler.CreateProduct)
				productGroup.GET("", productHandler.ListProducts)
				productGroup.PATCH("/:sku", productHandler.UpdateProduct)
			}
		}

		if services.IngestService != nil {
			uploadHandler := handlers.NewUploadHandler(services.IngestService)
			uploadGroup := apiGroup.Group("/upload")
			{
				uploadGroup.POST("/sales", uploadHandler.UploadSales)
				uploadGroup.POST("/inventory", uploadHandler.UploadInventory)
				uploadGroup.GET("/batches", uploadHandler.ListBatches)
			}
		}

		if services.AnalyticsService != nil {
			analyticsHandler := handlers.NewAnalyticsHandler(services.AnalyticsService)
			analyticsGroup := apiGroup.Group("/analytics")
			{
				analyticsGroup.GET("/summary", analyticsHandler.GetSummary)
				analyticsGroup.GET("/low_stock", analyticsHandler.GetLowStock)
				analyticsGroup.GET("/demand_forecast", analyticsHandler.GetDemandForecast)
				analyticsGroup.GET("/optimize_inventory", analyticsHandler.OptimizeInventory)
				analyticsGroup.GET("/optimize_inventory/latest", analyticsHandler.GetLatestPlan)
				analyticsGroup.GET("/dashboard", analyticsHandler.GetDashboard)
			}
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
