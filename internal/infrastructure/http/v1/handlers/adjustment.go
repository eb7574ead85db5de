package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kardex/internal/domain/documents/adjustment"
)

// AdjustmentHandler handles HTTP requests for adjustment documents.
type AdjustmentHandler struct {
	service     *adjustment.Service
	consumption *adjustment.ConsumptionService
}

// NewAdjustmentHandler creates a new adjustment handler. The
// consumption service may be nil when the job is disabled.
func NewAdjustmentHandler(service *adjustment.Service, consumption *adjustment.ConsumptionService) *AdjustmentHandler {
	return &AdjustmentHandler{service: service, consumption: consumption}
}

// Create handles POST /adjustments.
func (h *AdjustmentHandler) Create(c *gin.Context) {
	var req adjustment.CreateRequest
	if !BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// Get handles GET /adjustments/:id.
func (h *AdjustmentHandler) Get(c *gin.Context) {
	docID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// List handles GET /adjustments.
func (h *AdjustmentHandler) List(c *gin.Context) {
	warehouseID, ok := ParseIDQuery(c, "warehouseId")
	if !ok {
		return
	}

	filter := adjustment.ListFilter{
		WarehouseID: warehouseID,
		Limit:       ParseIntQuery(c, "limit", 50),
		Offset:      ParseIntQuery(c, "offset", 0),
	}

	docs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: docs, Total: total})
}

// RunConsumption handles POST /adjustments/consumption — the manual
// trigger for the scheduled production consumption job.
func (h *AdjustmentHandler) RunConsumption(c *gin.Context) {
	if h.consumption == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    "CONSUMPTION_DISABLED",
			"message": "production consumption is not configured",
		})
		return
	}

	result, err := h.consumption.Run(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
