package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kardex/internal/domain/documents/delivery"
)

// DeliveryHandler handles HTTP requests for delivery notes.
type DeliveryHandler struct {
	service *delivery.Service
}

// NewDeliveryHandler creates a new delivery note handler.
func NewDeliveryHandler(service *delivery.Service) *DeliveryHandler {
	return &DeliveryHandler{service: service}
}

// Create handles POST /delivery-notes.
func (h *DeliveryHandler) Create(c *gin.Context) {
	var req delivery.CreateRequest
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

// Get handles GET /delivery-notes/:id.
func (h *DeliveryHandler) Get(c *gin.Context) {
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

// List handles GET /delivery-notes.
func (h *DeliveryHandler) List(c *gin.Context) {
	warehouseID, ok := ParseIDQuery(c, "warehouseId")
	if !ok {
		return
	}

	filter := delivery.ListFilter{
		WarehouseID: warehouseID,
		Limit:       ParseIntQuery(c, "limit", 50),
		Offset:      ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("direction"); raw != "" {
		direction := delivery.Direction(raw)
		filter.Direction = &direction
	}

	docs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: docs, Total: total})
}
