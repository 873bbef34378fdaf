package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	analyticsdomain "github.com/partnerpulse/creditscope/internal/analytics/domain"
)

const dateOnlyLayout = "2006-01-02"

// parseOptionalTime accepts RFC3339 or a bare date. When endOfDay is set, a
// bare date resolves to 23:59:59 so inclusive ranges behave as expected.
func parseOptionalTime(c *gin.Context, name string, endOfDay bool) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	t, err := time.Parse(dateOnlyLayout, raw)
	if err != nil {
		return time.Time{}, &ValidationError{
			Field:   name,
			Message: "must be an RFC3339 timestamp or YYYY-MM-DD date",
		}
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

func parseOptionalInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Field: name, Message: "must be an integer"}
	}
	return n, nil
}

// parseWindowDays returns 0 when absent; a present value must be one of the
// supported lookback lengths.
func parseWindowDays(c *gin.Context, name string) (int, error) {
	n, err := parseOptionalInt(c, name)
	if err != nil {
		return 0, err
	}
	if n != 0 && !analyticsdomain.ValidRunRateWindow(n) {
		return 0, analyticsdomain.ErrInvalidWindow
	}
	return n, nil
}

// parseUsageTypes splits a comma-separated list, dropping empty entries.
func parseUsageTypes(c *gin.Context, name string) []string {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
