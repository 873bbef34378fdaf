// Package export renders result tables as CSV downloads. Numeric columns
// are rounded to two decimal places and day counts to whole days for
// display; the engine's records keep full precision.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	analyticsdomain "github.com/partnerpulse/creditscope/internal/analytics/domain"
	dashboarddomain "github.com/partnerpulse/creditscope/internal/dashboard/domain"
	warehousedomain "github.com/partnerpulse/creditscope/internal/warehouse/domain"
)

const dateLayout = "2006-01-02"

// WriteRunRates writes the per-customer run rate table.
func WriteRunRates(w io.Writer, resp dashboarddomain.RunRatesResponse) error {
	cw := csv.NewWriter(w)
	header := []string{
		"customer_id",
		"daily_credit_rate",
		"daily_cost_rate",
		"weekly_projection",
		"monthly_projection",
		"current_balance",
		"days_until_depletion",
		"urgency_tier",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, record := range resp.Records {
		row := []string{
			record.CustomerID,
			record.DailyCreditRate.StringFixed(2),
			record.DailyCostRate.StringFixed(2),
			record.WeeklyProjection.StringFixed(2),
			record.MonthlyProjection.StringFixed(2),
			optionalAmount(record.CurrentBalance),
			formatDays(record.DaysUntilDepletion),
			string(record.UrgencyTier),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteContractUsage writes the contract overage projection table.
func WriteContractUsage(w io.Writer, resp dashboarddomain.ContractUsageResponse) error {
	cw := csv.NewWriter(w)
	header := []string{
		"customer_id",
		"contract_id",
		"currency",
		"capacity_purchased",
		"total_used",
		"used_percent",
		"overage",
		"remaining_capacity",
		"daily_run_rate",
		"days_until_overage",
		"annual_run_rate",
		"renewal_recommended",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, record := range resp.Records {
		row := []string{
			record.CustomerID,
			record.ContractID,
			record.Currency,
			record.CapacityPurchased.StringFixed(2),
			record.TotalUsed.StringFixed(2),
			record.UsedPercent.StringFixed(2),
			record.Overage.StringFixed(2),
			record.RemainingCapacity.StringFixed(2),
			record.DailyRunRate.StringFixed(2),
			formatDays(record.DaysUntilOverage),
			record.AnnualRunRate.StringFixed(2),
			fmt.Sprintf("%t", record.RenewalRecommended),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteUsage writes the raw daily usage table.
func WriteUsage(w io.Writer, rows []warehousedomain.UsageRecord) error {
	cw := csv.NewWriter(w)
	header := []string{
		"customer_id",
		"usage_date",
		"usage_type",
		"credits_used",
		"cost_in_currency",
		"currency",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, record := range rows {
		row := []string{
			record.CustomerID,
			time.Time(record.UsageDate).Format(dateLayout),
			record.UsageType,
			record.CreditsUsed.StringFixed(2),
			record.CostInCurrency.StringFixed(2),
			record.Currency,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// RunRatesFilename names a run-rate export for a given window end.
func RunRatesFilename(asOf time.Time, windowDays int) string {
	return fmt.Sprintf("run_rate_analysis_%s_%dd.csv", asOf.Format(dateLayout), windowDays)
}

// UsageFilename names a raw usage export, optionally scoped to a customer.
func UsageFilename(customer string, start, end time.Time) string {
	if customer == "" {
		return fmt.Sprintf("usage_data_%s_%s.csv", start.Format(dateLayout), end.Format(dateLayout))
	}
	return fmt.Sprintf("usage_%s_%s_%s.csv", slug.Make(customer), start.Format(dateLayout), end.Format(dateLayout))
}

// ContractsFilename names the contract usage export.
func ContractsFilename(asOf time.Time) string {
	return fmt.Sprintf("contract_data_%s.csv", asOf.Format(dateLayout))
}

func optionalAmount(amount *decimal.Decimal) string {
	if amount == nil {
		return ""
	}
	return amount.StringFixed(2)
}

// formatDays renders a day count as whole days; infinite depletion is
// spelled out and unknown renders empty.
func formatDays(days analyticsdomain.Days) string {
	switch {
	case days.Infinite():
		return "infinite"
	case days.Defined():
		v, _ := days.Value()
		return v.Round(0).String()
	default:
		return ""
	}
}
