package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	syncapp "github.com/loyalty/backend/internal/application/sync"
)

// SyncHandler exposes the sync orchestration endpoints
type SyncHandler struct {
	orchestrator *syncapp.Orchestrator
	logger       *zap.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(orchestrator *syncapp.Orchestrator, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		logger:       logger.Named("sync-handler"),
	}
}

// StartFull triggers a full sync run in the background
// POST /api/v1/sync/full
func (h *SyncHandler) StartFull(c *gin.Context) {
	if err := h.orchestrator.StartFullSync(); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusAccepted, gin.H{"mode": syncapp.ModeFull})
}

// StartIncremental triggers an incremental sync run in the background
// POST /api/v1/sync/incremental
func (h *SyncHandler) StartIncremental(c *gin.Context) {
	if err := h.orchestrator.StartIncrementalSync(); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusAccepted, gin.H{"mode": syncapp.ModeIncremental})
}

// SyncCustomer mirrors a single WAWI customer synchronously
// POST /api/v1/sync/customers/:wawiId
func (h *SyncHandler) SyncCustomer(c *gin.Context) {
	wawiID, err := strconv.ParseInt(c.Param("wawiId"), 10, 64)
	if err != nil || wawiID <= 0 {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   &ErrorBody{Code: "INVALID_ID", Message: "Invalid wawiId parameter"},
		})
		return
	}

	if err := h.orchestrator.SyncCustomer(c.Request.Context(), wawiID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, h.orchestrator.Status())
}

// Status returns the current or last run snapshot
// GET /api/v1/sync/status
func (h *SyncHandler) Status(c *gin.Context) {
	respond(c, http.StatusOK, h.orchestrator.Status())
}
