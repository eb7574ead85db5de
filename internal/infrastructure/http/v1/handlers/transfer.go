package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kardex/internal/domain/documents/transfer"
)

// TransferHandler handles HTTP requests for transfer documents.
type TransferHandler struct {
	service *transfer.Service
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(service *transfer.Service) *TransferHandler {
	return &TransferHandler{service: service}
}

// Create handles POST /transfers.
func (h *TransferHandler) Create(c *gin.Context) {
	var req transfer.CreateRequest
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

// Get handles GET /transfers/:id.
func (h *TransferHandler) Get(c *gin.Context) {
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

// List handles GET /transfers. The warehouse filter matches either end.
func (h *TransferHandler) List(c *gin.Context) {
	warehouseID, ok := ParseIDQuery(c, "warehouseId")
	if !ok {
		return
	}

	filter := transfer.ListFilter{
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
