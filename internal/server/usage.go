package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetVendorUsage(c *gin.Context) {
	vendorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := s.usageSvc.Current(c.Request.Context(), vendorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
