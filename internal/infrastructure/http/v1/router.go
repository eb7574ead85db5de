// Package v1 wires the HTTP API.
package v1

import (
	"github.com/gin-gonic/gin"

	"kardex/internal/domain/documents/adjustment"
	"kardex/internal/domain/documents/delivery"
	"kardex/internal/domain/documents/production"
	"kardex/internal/domain/documents/transfer"
	"kardex/internal/domain/registers/stock"
	"kardex/internal/infrastructure/http/v1/handlers"
	"kardex/internal/infrastructure/http/v1/middleware"
	"kardex/internal/infrastructure/storage/postgres"
	"kardex/pkg/logger"
)

// RouterConfig carries everything the router needs.
type RouterConfig struct {
	Logger    *logger.Logger
	JWTSecret string

	Pool *postgres.Pool

	Adjustments *adjustment.Service
	Consumption *adjustment.ConsumptionService
	Transfers   *transfer.Service
	Orders      *production.OrderService
	Formulas    *production.FormulaService
	Deliveries  *delivery.Service
	Stock       stock.Repository
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.Logger(cfg.Logger),
		middleware.ErrorHandler(),
	)

	health := handlers.NewHealthHandler(cfg.Pool)
	router.GET("/health/live", health.Live)
	router.GET("/health/ready", health.Ready)

	adjustments := handlers.NewAdjustmentHandler(cfg.Adjustments, cfg.Consumption)
	transfers := handlers.NewTransferHandler(cfg.Transfers)
	productionH := handlers.NewProductionHandler(cfg.Orders, cfg.Formulas)
	deliveries := handlers.NewDeliveryHandler(cfg.Deliveries)
	stockH := handlers.NewStockHandler(cfg.Stock)

	api := router.Group("/api/v1")
	api.Use(middleware.Actor(cfg.JWTSecret))
	{
		api.POST("/adjustments", adjustments.Create)
		api.GET("/adjustments", adjustments.List)
		api.GET("/adjustments/:id", adjustments.Get)
		api.POST("/adjustments/consumption", adjustments.RunConsumption)

		api.POST("/transfers", transfers.Create)
		api.GET("/transfers", transfers.List)
		api.GET("/transfers/:id", transfers.Get)

		api.POST("/production-orders", productionH.CreateOrder)
		api.GET("/production-orders", productionH.ListOrders)
		api.GET("/production-orders/:id", productionH.GetOrder)

		api.POST("/formulas/:code", productionH.CreateFormula)
		api.PUT("/formulas/:code", productionH.ReplaceFormula)
		api.GET("/formulas/:code", productionH.GetFormula)
		api.DELETE("/formulas/:code", productionH.DeleteFormula)

		api.POST("/delivery-notes", deliveries.Create)
		api.GET("/delivery-notes", deliveries.List)
		api.GET("/delivery-notes/:id", deliveries.Get)

		api.GET("/warehouses/:id/balances", stockH.ListByWarehouse)
		api.GET("/items/:id/balances", stockH.ListByItem)
	}

	return router
}
