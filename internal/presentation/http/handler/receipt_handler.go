package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/receiptflow-api/internal/application/service"
	"github.com/sangkips/receiptflow-api/internal/presentation/http/dto/request"
	"github.com/sangkips/receiptflow-api/internal/presentation/http/dto/response"
)

// ReceiptHandler handles receipt-related HTTP requests
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// Finalize handles the payment-success webhook
func (h *ReceiptHandler) Finalize(c *gin.Context) {
	var req request.FinalizeReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.receiptService.FinalizePayment(c.Request.Context(), req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Receipt generated successfully", response.NewFinalizeReceiptResponse(result))
}

// List handles listing every receipt, oldest first
func (h *ReceiptHandler) List(c *gin.Context) {
	receipts, err := h.receiptService.ListReceipts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipts retrieved successfully", receipts)
}

// Get handles getting a single receipt with its items
func (h *ReceiptHandler) Get(c *gin.Context) {
	id, ok := receiptID(c)
	if !ok {
		return
	}

	receipt, err := h.receiptService.GetReceipt(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt retrieved successfully", receipt)
}

// GetByOrder handles looking a receipt up by its order identifier
func (h *ReceiptHandler) GetByOrder(c *gin.Context) {
	orderID := c.Param("order_id")
	if orderID == "" {
		response.BadRequest(c, "Order ID is required")
		return
	}

	receipt, err := h.receiptService.GetReceiptByOrderID(c.Request.Context(), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt retrieved successfully", receipt)
}

// Reissue re-renders, re-uploads and re-links the document of a stored receipt
func (h *ReceiptHandler) Reissue(c *gin.Context) {
	id, ok := receiptID(c)
	if !ok {
		return
	}

	result, err := h.receiptService.ReissueDocument(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt document reissued successfully", response.NewFinalizeReceiptResponse(result))
}

func receiptID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid receipt ID")
		return uuid.Nil, false
	}
	return id, true
}
