package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kardex/internal/domain/documents/production"
)

// ProductionHandler handles HTTP requests for production orders and
// their formulas.
type ProductionHandler struct {
	orders   *production.OrderService
	formulas *production.FormulaService
}

// NewProductionHandler creates a new production handler.
func NewProductionHandler(orders *production.OrderService, formulas *production.FormulaService) *ProductionHandler {
	return &ProductionHandler{orders: orders, formulas: formulas}
}

// CreateOrder handles POST /production-orders.
func (h *ProductionHandler) CreateOrder(c *gin.Context) {
	var req production.OrderRequest
	if !BindJSON(c, &req) {
		return
	}

	doc, err := h.orders.Create(c.Request.Context(), req)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// GetOrder handles GET /production-orders/:id.
func (h *ProductionHandler) GetOrder(c *gin.Context) {
	docID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.orders.GetByID(c.Request.Context(), docID)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// ListOrders handles GET /production-orders.
func (h *ProductionHandler) ListOrders(c *gin.Context) {
	warehouseID, ok := ParseIDQuery(c, "warehouseId")
	if !ok {
		return
	}

	filter := production.OrderListFilter{
		WarehouseID: warehouseID,
		Limit:       ParseIntQuery(c, "limit", 50),
		Offset:      ParseIntQuery(c, "offset", 0),
	}

	docs, total, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: docs, Total: total})
}

// formulaRequest is the body of formula create/replace calls.
type formulaRequest struct {
	Lines []production.FormulaLineInput `json:"lines"`
}

// CreateFormula handles POST /formulas/:code.
func (h *ProductionHandler) CreateFormula(c *gin.Context) {
	var req formulaRequest
	if !BindJSON(c, &req) {
		return
	}

	formula, err := h.formulas.Create(c.Request.Context(), c.Param("code"), req.Lines)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, formula)
}

// ReplaceFormula handles PUT /formulas/:code.
func (h *ProductionHandler) ReplaceFormula(c *gin.Context) {
	var req formulaRequest
	if !BindJSON(c, &req) {
		return
	}

	formula, err := h.formulas.Replace(c.Request.Context(), c.Param("code"), req.Lines)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, formula)
}

// GetFormula handles GET /formulas/:code.
func (h *ProductionHandler) GetFormula(c *gin.Context) {
	formula, err := h.formulas.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, formula)
}

// DeleteFormula handles DELETE /formulas/:code.
func (h *ProductionHandler) DeleteFormula(c *gin.Context) {
	if err := h.formulas.Delete(c.Request.Context(), c.Param("code")); err != nil {
		Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
