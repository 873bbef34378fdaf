package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/partnerpulse/creditscope/internal/analytics/domain"
)

// ContractUsage projects consumption against a single contract term.
// Capacity and usage are compared in contract currency, not raw credits.
// The recent-window rate divides by the actual elapsed days in the clipped
// window, unlike the run rate calculation's fixed N, because the window may
// be shorter than M near contract start.
func (e *Engine) ContractUsage(ctx context.Context, req domain.ContractUsageRequest) (*domain.ContractUsageRecord, error) {
	recentDays := req.RecentWindowDays
	if recentDays == 0 {
		recentDays = domain.DefaultRecentWindowDays
	}
	if recentDays < 0 {
		return nil, domain.ErrInvalidWindow
	}
	if err := validateContract(req.Contract); err != nil {
		return nil, err
	}
	if err := validateUsage(req.Usage); err != nil {
		return nil, err
	}

	asOf := dateOnly(req.AsOf)
	if asOf.IsZero() {
		if len(req.Usage) == 0 {
			return nil, domain.ErrInsufficientData
		}
		asOf = latestUsageDate(req.Usage)
	}

	contract := req.Contract
	start := dateOnly(contract.StartDate)
	end := dateOnly(contract.EndDate)

	capacity := contract.Capacity()

	// Total consumption inside the contract term, up to the as-of date.
	usedEnd := end
	if asOf.Before(usedEnd) {
		usedEnd = asOf
	}
	totalUsed := decimal.Zero
	for _, row := range filterWindow(req.Usage, start, usedEnd) {
		totalUsed = totalUsed.Add(row.CostInCurrency)
	}

	overage := decimal.Max(decimal.Zero, totalUsed.Sub(capacity))

	usedPercent := decimal.Zero
	if capacity.IsPositive() {
		usedPercent = totalUsed.Div(capacity).Mul(hundred)
	}

	dailyRate := recentRunRate(req.Usage, start, asOf, recentDays)

	remaining := capacity.Sub(totalUsed)
	var daysUntilOverage domain.Days
	switch {
	case !remaining.IsPositive():
		daysUntilOverage = domain.DefinedDays(decimal.Zero)
	case dailyRate.IsZero():
		// No consumption: overage is bounded by the contract term, not
		// infinite.
		daysUntilOverage = domain.DefinedDays(decimal.NewFromInt(int64(daysLeft(asOf, end))))
	default:
		daysUntilOverage = domain.DefinedDays(remaining.Div(dailyRate))
	}

	record := &domain.ContractUsageRecord{
		ContractID:         contract.ContractID,
		CustomerID:         contract.CustomerID,
		Currency:           contract.Currency,
		CapacityPurchased:  capacity,
		TotalUsed:          totalUsed,
		Overage:            overage,
		UsedPercent:        usedPercent,
		RemainingCapacity:  remaining,
		DailyRunRate:       dailyRate,
		DaysUntilOverage:   daysUntilOverage,
		AnnualRunRate:      dailyRate.Mul(threeSixF),
		RenewalRecommended: domain.RenewalRecommended(usedPercent, daysUntilOverage),
	}
	return record, nil
}

// recentRunRate sums cost over the last recentDays days ending at asOf,
// clipped to not precede the contract start, and divides by the actual
// days in the clipped window.
func recentRunRate(usage []domain.UsageRecord, contractStart, asOf time.Time, recentDays int) decimal.Decimal {
	windowStart := asOf.AddDate(0, 0, -(recentDays - 1))
	if windowStart.Before(contractStart) {
		windowStart = contractStart
	}
	if asOf.Before(windowStart) {
		return decimal.Zero
	}

	actualDays := daysBetween(windowStart, asOf) + 1
	recentCost := decimal.Zero
	for _, row := range filterWindow(usage, windowStart, asOf) {
		recentCost = recentCost.Add(row.CostInCurrency)
	}
	return recentCost.Div(decimal.NewFromInt(int64(actualDays)))
}

// daysLeft counts whole days from asOf to end, never negative.
func daysLeft(asOf, end time.Time) int {
	if end.Before(asOf) {
		return 0
	}
	return daysBetween(asOf, end)
}

// daysBetween counts whole calendar days from a to b (both UTC midnights).
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
