package server

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/partnerpulse/creditscope/internal/export"
	warehousedomain "github.com/partnerpulse/creditscope/internal/warehouse/domain"
)

const csvContentType = "text/csv; charset=utf-8"

func writeCSVAttachment(c *gin.Context, filename string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, csvContentType, body)
}

func (s *Server) ExportRunRates(c *gin.Context) {
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

	var buf bytes.Buffer
	if err := export.WriteRunRates(&buf, resp); err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.ObserveExportDownload("run_rates")
	writeCSVAttachment(c, export.RunRatesFilename(resp.AsOf, resp.WindowDays), buf.Bytes())
}

func (s *Server) ExportContracts(c *gin.Context) {
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

	var buf bytes.Buffer
	if err := export.WriteContractUsage(&buf, resp); err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.ObserveExportDownload("contracts")
	writeCSVAttachment(c, export.ContractsFilename(resp.AsOf), buf.Bytes())
}

// ExportUsage streams raw usage rows for the requested window, defaulting to
// the trailing thirty days ending today.
func (s *Server) ExportUsage(c *gin.Context) {
	start, err := parseOptionalTime(c, "start_date", false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	end, err := parseOptionalTime(c, "end_date", true)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if end.IsZero() {
		now := time.Now().UTC()
		end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -29)
	}

	rows, err := s.warehouse.ListUsage(c.Request.Context(), warehousedomain.UsageFilter{
		StartDate:  start,
		EndDate:    end,
		CustomerID: c.Query("customer_id"),
		UsageTypes: parseUsageTypes(c, "usage_types"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteUsage(&buf, rows); err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.ObserveExportDownload("usage")
	writeCSVAttachment(c, export.UsageFilename(c.Query("customer_id"), start, end), buf.Bytes())
}
