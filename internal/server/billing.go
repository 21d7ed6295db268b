package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type updateBillingRequest struct {
	PeriodMonths int `json:"period_months"`
}

func (s *Server) GetBillingSettings(c *gin.Context) {
	vendorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := s.billingSvc.GetByVendor(c.Request.Context(), vendorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// UpdateBillingSettings stores a pending cadence change. It takes
// effect at the next period boundary, never mid-period.
func (s *Server) UpdateBillingSettings(c *gin.Context) {
	vendorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.billingSvc.SetNextPeriod(c.Request.Context(), vendorID, req.PeriodMonths)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListVendorBills(c *gin.Context) {
	vendorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := s.billingSvc.ListBills(c.Request.Context(), vendorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBillItems(c *gin.Context) {
	billID, ok := pathID(c, "bill_id")
	if !ok {
		return
	}

	resp, err := s.billingSvc.ListBillItems(c.Request.Context(), billID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
