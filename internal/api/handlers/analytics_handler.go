package handlers

import (
	"net/http"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	service *service.AnalyticsService
}

func NewAnalyticsHandler(service *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *AnalyticsHandler) GetLowStock(c *gin.Context) {
	items, err := h.service.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch low stock")
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *AnalyticsHandler) GetDemandForecast(c *gin.Context) {
	forecast, err := h.service.DemandForecast(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to compute demand forecast")
		return
	}

	c.JSON(http.StatusOK, forecast)
}

func (h *AnalyticsHandler) OptimizeInventory(c *gin.Context) {
	result, err := h.service.OptimizeInventory(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to optimize inventory")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AnalyticsHandler) GetLatestPlan(c *gin.Context) {
	plan, err := h.service.LatestPlan(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch latest plan")
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch dashboard")
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
