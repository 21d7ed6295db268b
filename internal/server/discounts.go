package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type redeemRequest struct {
	Code string `json:"code"`
}

func (s *Server) ListVendorDiscounts(c *gin.Context) {
	vendorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := s.discountSvc.ListByVendor(c.Request.Context(), vendorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RedeemCampaign(c *gin.Context) {
	vendorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.discountSvc.Redeem(c.Request.Context(), req.Code, vendorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
