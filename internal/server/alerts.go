package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetAlerts(c *gin.Context) {
	req, err := s.runRatesRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.dashboard.Alerts(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
