package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kardex/internal/domain/registers/stock"
)

// StockHandler exposes read-only balance lookups.
type StockHandler struct {
	repo stock.Repository
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(repo stock.Repository) *StockHandler {
	return &StockHandler{repo: repo}
}

// ListByWarehouse handles GET /warehouses/:id/balances.
func (h *StockHandler) ListByWarehouse(c *gin.Context) {
	warehouseID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	locationID, ok := ParseIDQuery(c, "locationId")
	if !ok {
		return
	}

	filter := stock.BalanceFilter{
		LocationID:  locationID,
		ExcludeZero: c.Query("excludeZero") == "true",
	}

	balances, err := h.repo.ListByWarehouse(c.Request.Context(), warehouseID, filter)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: balances, Total: len(balances)})
}

// ListByItem handles GET /items/:id/balances.
func (h *StockHandler) ListByItem(c *gin.Context) {
	itemID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	balances, err := h.repo.ListByItem(c.Request.Context(), itemID)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: balances, Total: len(balances)})
}
