package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	loyaltyapp "github.com/loyalty/backend/internal/application/loyalty"
	"github.com/loyalty/backend/internal/domain/loyalty"
)

// LoyaltyHandler exposes the accrual engine endpoints: settings, queues,
// wallets and discount groups.
type LoyaltyHandler struct {
	accrual  *loyaltyapp.AccrualService
	settings *loyaltyapp.SettingsService
	logger   *zap.Logger
}

// NewLoyaltyHandler creates a new loyalty handler
func NewLoyaltyHandler(accrual *loyaltyapp.AccrualService, settings *loyaltyapp.SettingsService, logger *zap.Logger) *LoyaltyHandler {
	return &LoyaltyHandler{
		accrual:  accrual,
		settings: settings,
		logger:   logger.Named("loyalty-handler"),
	}
}

// GetSettings returns the loyalty program settings
// GET /api/v1/loyalty/settings
func (h *LoyaltyHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, settings)
}

// updateSettingsRequest is a partial settings update
type updateSettingsRequest struct {
	DiscountRate               *decimal.Decimal `json:"discountRate"`
	OrdersRequired             *int             `json:"ordersRequired"`
	AutoCreateDiscount         *bool            `json:"autoCreateDiscount"`
	EnforceEligibilityOnManual *bool            `json:"enforceEligibilityOnManual"`
}

// UpdateSettings applies a partial settings update
// PUT /api/v1/loyalty/settings
func (h *LoyaltyHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	settings, err := h.settings.Update(c.Request.Context(), loyalty.SettingsPatch{
		DiscountRate:               req.DiscountRate,
		OrdersRequired:             req.OrdersRequired,
		AutoCreateDiscount:         req.AutoCreateDiscount,
		EnforceEligibilityOnManual: req.EnforceEligibilityOnManual,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, settings)
}

// GetQueue returns a customer's order queue with its derived status
// GET /api/v1/customers/:id/queue
func (h *LoyaltyHandler) GetQueue(c *gin.Context) {
	customerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	queue, err := h.accrual.GetQueue(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, queue)
}

// GetWallet returns a customer's wallet
// GET /api/v1/customers/:id/wallet
func (h *LoyaltyHandler) GetWallet(c *gin.Context) {
	customerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	wallet, err := h.accrual.GetWallet(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, wallet)
}

// GetWalletTransactions returns a customer's wallet ledger, newest first
// GET /api/v1/customers/:id/wallet/transactions
func (h *LoyaltyHandler) GetWalletTransactions(c *gin.Context) {
	customerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	// Touch the wallet first so the ledger endpoint works for fresh customers
	if _, err := h.accrual.GetWallet(c.Request.Context(), customerID); err != nil {
		respondError(c, err)
		return
	}
	txs, err := h.accrual.GetTransactions(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, txs)
}

// ListGroups returns all discount groups of a customer
// GET /api/v1/customers/:id/discount-groups
func (h *LoyaltyHandler) ListGroups(c *gin.Context) {
	customerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	groups, err := h.accrual.ListGroups(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, groups)
}

// groupRequest carries the member order set for manual group operations
type groupRequest struct {
	CustomerID uuid.UUID   `json:"customerId" binding:"required"`
	OrderIDs   []uuid.UUID `json:"orderIds" binding:"required"`
	Notes      string      `json:"notes"`
}

// CreateGroup forms a discount bundle from an operator-chosen order set
// POST /api/v1/discount-groups
func (h *LoyaltyHandler) CreateGroup(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	group, err := h.accrual.CreateDiscountGroup(c.Request.Context(), req.CustomerID, req.OrderIDs, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, group)
}

// updateGroupRequest replaces the member set of an available group
type updateGroupRequest struct {
	OrderIDs []uuid.UUID `json:"orderIds" binding:"required"`
	Notes    string      `json:"notes"`
}

// UpdateGroup replaces the member set of an available group
// PUT /api/v1/discount-groups/:id
func (h *LoyaltyHandler) UpdateGroup(c *gin.Context) {
	groupID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req updateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	group, err := h.accrual.UpdateDiscountGroup(c.Request.Context(), groupID, req.OrderIDs, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, group)
}

// GetGroup returns one discount group with its entries
// GET /api/v1/discount-groups/:id
func (h *LoyaltyHandler) GetGroup(c *gin.Context) {
	groupID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	group, err := h.accrual.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, group)
}

// RedeemGroup consumes an available group's discount
// POST /api/v1/discount-groups/:id/redeem
func (h *LoyaltyHandler) RedeemGroup(c *gin.Context) {
	groupID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	group, err := h.accrual.Redeem(c.Request.Context(), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, group)
}

// DeleteGroup removes an available group and reverses its grant
// DELETE /api/v1/discount-groups/:id
func (h *LoyaltyHandler) DeleteGroup(c *gin.Context) {
	groupID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.accrual.DeleteGroup(c.Request.Context(), groupID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": groupID})
}

// FormBundle manually consumes a ready queue into a bundle
// POST /api/v1/customers/:id/queue/bundle
func (h *LoyaltyHandler) FormBundle(c *gin.Context) {
	customerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	group, err := h.accrual.FormBundle(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, group)
}
