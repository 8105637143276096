package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	partnerapp "github.com/loyalty/backend/internal/application/partner"
	tradeapp "github.com/loyalty/backend/internal/application/trade"
)

// CustomerHandler exposes the mirrored customer and order endpoints
type CustomerHandler struct {
	customers *partnerapp.CustomerService
	orders    *tradeapp.OrderService
	logger    *zap.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customers *partnerapp.CustomerService, orders *tradeapp.OrderService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
		orders:    orders,
		logger:    logger.Named("customer-handler"),
	}
}

// List returns a page of customers
// GET /api/v1/customers
func (h *CustomerHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	customers, total, err := h.customers.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"items": customers, "total": total})
}

// Get returns one customer
// GET /api/v1/customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	customer, err := h.customers.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, customer)
}

// createCustomerRequest registers a customer ahead of any WAWI sync
type createCustomerRequest struct {
	Code string `json:"code" binding:"required,max=50,customercode"`
	Name string `json:"name" binding:"required"`
}

// Create registers a customer manually
// POST /api/v1/customers
func (h *CustomerHandler) Create(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	customer, err := h.customers.Create(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, customer)
}

// Deactivate marks a customer inactive
// POST /api/v1/customers/:id/deactivate
func (h *CustomerHandler) Deactivate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.customers.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deactivated": id})
}

// ListOrders returns all orders of a customer, newest first
// GET /api/v1/customers/:id/orders
func (h *CustomerHandler) ListOrders(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	orders, err := h.orders.ListByCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, orders)
}

// GetOrder returns one order with its line items
// GET /api/v1/orders/:id
func (h *CustomerHandler) GetOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, order)
}

// RemoveOrderItem deletes a line from an order and recomputes its totals
// DELETE /api/v1/orders/:id/items/:itemId
func (h *CustomerHandler) RemoveOrderItem(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathUUID(c, "itemId")
	if !ok {
		return
	}
	order, err := h.orders.RemoveItem(c.Request.Context(), orderID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, order)
}
