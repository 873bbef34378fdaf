package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	dashboarddomain "github.com/partnerpulse/creditscope/internal/dashboard/domain"
)

func (s *Server) contractUsageRequest(c *gin.Context) (dashboarddomain.ContractUsageRequest, error) {
	asOf, err := parseOptionalTime(c, "as_of", false)
	if err != nil {
		return dashboarddomain.ContractUsageRequest{}, err
	}

	recent, err := parseOptionalInt(c, "recent_window_days")
	if err != nil {
		return dashboarddomain.ContractUsageRequest{}, err
	}
	if recent < 0 {
		return dashboarddomain.ContractUsageRequest{}, &ValidationError{
			Field:   "recent_window_days",
			Message: "must not be negative",
		}
	}

	return dashboarddomain.ContractUsageRequest{
		AsOf:             asOf,
		RecentWindowDays: recent,
		CustomerID:       c.Query("customer_id"),
	}, nil
}

func (s *Server) GetContractUsage(c *gin.Context) {
	req, err := s.contractUsageRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.dashboard.ContractUsage(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
