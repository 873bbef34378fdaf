package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListCustomers(c *gin.Context) {
	customers, err := s.dashboard.Customers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (s *Server) ListUsageTypes(c *gin.Context) {
	types, err := s.dashboard.UsageTypes(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"usage_types": types})
}
