package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/marketfee/internal/billing/domain"
	discountdomain "github.com/smallbiznis/marketfee/internal/discount/domain"
	tariffdomain "github.com/smallbiznis/marketfee/internal/tariff/domain"
	usagedomain "github.com/smallbiznis/marketfee/internal/usage/domain"
	vendordomain "github.com/smallbiznis/marketfee/internal/vendors/domain"
	"gorm.io/gorm"
)

var ErrInvalidRequest = errors.New("invalid_request")

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, billingdomain.ErrInvalidPeriod):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: err.Error(),
		}

	case errors.Is(err, vendordomain.ErrVendorNotFound),
		errors.Is(err, billingdomain.ErrBillingNotFound),
		errors.Is(err, discountdomain.ErrCampaignNotFound),
		errors.Is(err, usagedomain.ErrNoSnapshot),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}

	case errors.Is(err, billingdomain.ErrTooEarly),
		errors.Is(err, billingdomain.ErrBillingClosed):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}

	case errors.Is(err, discountdomain.ErrAlreadyRedeemed),
		errors.Is(err, discountdomain.ErrCampaignExpired),
		errors.Is(err, discountdomain.ErrCampaignExhausted),
		errors.Is(err, tariffdomain.ErrNoTier):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}
