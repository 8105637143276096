package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	syncapp "github.com/loyalty/backend/internal/application/sync"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/domain/wawi"
)

// Response is the uniform API envelope
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody carries a machine-readable error code and a human message
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respond writes a success envelope
func respond(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	message := "An unexpected error occurred"

	var domainErr *shared.DomainError
	var apiErr *wawi.APIError

	switch {
	case errors.Is(err, shared.ErrNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", "Resource not found"
	case errors.Is(err, shared.ErrAlreadyExists):
		status, code, message = http.StatusConflict, "ALREADY_EXISTS", "Resource already exists"
	case errors.Is(err, shared.ErrInsufficientBalance):
		status, code, message = http.StatusConflict, "INSUFFICIENT_BALANCE", "Wallet balance is insufficient"
	case errors.Is(err, shared.ErrConcurrencyConflict):
		status, code, message = http.StatusConflict, "CONCURRENCY_CONFLICT", "Resource was modified concurrently"
	case errors.Is(err, syncapp.ErrSyncAlreadyRunning):
		status, code, message = http.StatusConflict, "SYNC_ALREADY_RUNNING", "A sync run is already in progress"
	case errors.Is(err, syncapp.ErrAuthCooldown):
		status, code, message = http.StatusServiceUnavailable, "SYNC_AUTH_COOLDOWN", "Sync is suspended after repeated authentication failures"
	case errors.Is(err, wawi.ErrNotConfigured):
		status, code, message = http.StatusServiceUnavailable, "WAWI_NOT_CONFIGURED", "WAWI integration is not configured"
	case errors.Is(err, wawi.ErrAuthFailed), errors.Is(err, wawi.ErrRateLimited), errors.Is(err, wawi.ErrUnavailable):
		status, code, message = http.StatusBadGateway, "WAWI_UNAVAILABLE", "WAWI system is unavailable"
	case errors.As(err, &apiErr):
		status, code, message = http.StatusBadGateway, "WAWI_ERROR", apiErr.Error()
	case errors.As(err, &domainErr):
		status, code, message = domainStatus(domainErr.Code), domainErr.Code, domainErr.Message
	case errors.Is(err, shared.ErrInvalidInput):
		status, code, message = http.StatusBadRequest, "INVALID_INPUT", "Invalid input"
	}

	c.JSON(status, Response{Success: false, Error: &ErrorBody{Code: code, Message: message}})
}

// domainStatus picks the status code for a coded domain error
func domainStatus(code string) int {
	switch code {
	case loyalty.ErrGroupAlreadyRedeemed.Code,
		loyalty.ErrGroupNotAvailable.Code,
		loyalty.ErrOrderAlreadyGrouped.Code,
		loyalty.ErrQueueNotReady.Code:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// respondValidationError writes a 400 for malformed request payloads
func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   &ErrorBody{Code: "VALIDATION_ERROR", Message: err.Error()},
	})
}

// pathUUID parses a UUID path parameter
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   &ErrorBody{Code: "INVALID_ID", Message: "Invalid " + name + " parameter"},
		})
		return uuid.Nil, false
	}
	return id, true
}
