package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	dashboarddomain "github.com/partnerpulse/creditscope/internal/dashboard/domain"
)

func (s *Server) summaryRequest(c *gin.Context) (dashboarddomain.SummaryRequest, error) {
	start, err := parseOptionalTime(c, "start_date", false)
	if err != nil {
		return dashboarddomain.SummaryRequest{}, err
	}

	end, err := parseOptionalTime(c, "end_date", true)
	if err != nil {
		return dashboarddomain.SummaryRequest{}, err
	}

	return dashboarddomain.SummaryRequest{
		StartDate:  start,
		EndDate:    end,
		CustomerID: c.Query("customer_id"),
	}, nil
}

func (s *Server) GetUsageSummary(c *gin.Context) {
	req, err := s.summaryRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.dashboard.SummarizeUsage(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetBalanceSummary(c *gin.Context) {
	req, err := s.summaryRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.dashboard.SummarizeBalances(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
