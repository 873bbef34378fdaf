package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	dashboarddomain "github.com/partnerpulse/creditscope/internal/dashboard/domain"
)

func (s *Server) runRatesRequest(c *gin.Context) (dashboarddomain.RunRatesRequest, error) {
	window, err := parseWindowDays(c, "window_days")
	if err != nil {
		return dashboarddomain.RunRatesRequest{}, err
	}

	asOf, err := parseOptionalTime(c, "as_of", false)
	if err != nil {
		return dashboarddomain.RunRatesRequest{}, err
	}

	return dashboarddomain.RunRatesRequest{
		WindowDays: window,
		AsOf:       asOf,
		CustomerID: c.Query("customer_id"),
		UsageTypes: parseUsageTypes(c, "usage_types"),
	}, nil
}

func (s *Server) GetRunRates(c *gin.Context) {
	req, err := s.runRatesRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.dashboard.RunRates(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetOverallRunRate(c *gin.Context) {
	req, err := s.runRatesRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.dashboard.OverallRunRate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
