package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partnerpulse/creditscope/internal/analytics/domain"
)

func contractItem(customer, id string, start, end time.Time, amount string) domain.ContractItem {
	return domain.ContractItem{
		CustomerID:       customer,
		ContractID:       id,
		StartDate:        start,
		EndDate:          end,
		ContractedAmount: decimal.RequireFromString(amount),
		Currency:         "USD",
	}
}

// flatUsage writes one row per day at the given daily cost across [start, end].
func flatUsage(customer string, start, end time.Time, dailyCost string) []domain.UsageRecord {
	var rows []domain.UsageRecord
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		rows = append(rows, usageRow(customer, d, "1", dailyCost))
	}
	return rows
}

func TestContractUsage_OverageScenario(t *testing.T) {
	engine := newTestEngine()
	start := day(2025, time.January, 1)
	end := day(2025, time.December, 31)
	asOf := day(2025, time.April, 30)

	// 1000 contracted, no rollover/free, $10/day for 120 days = 1200 used.
	req := domain.ContractUsageRequest{
		Contract:         contractItem("acme", "C-1001", start, end, "1000"),
		Usage:            flatUsage("acme", start, asOf, "10"),
		RecentWindowDays: 30,
		AsOf:             asOf,
	}

	rec, err := engine.ContractUsage(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, rec.CapacityPurchased.Equal(decimal.NewFromInt(1000)))
	assert.True(t, rec.TotalUsed.Equal(decimal.NewFromInt(1200)))
	assert.True(t, rec.Overage.Equal(decimal.NewFromInt(200)))
	assert.True(t, rec.UsedPercent.Equal(decimal.NewFromInt(120)))

	// Already over capacity: zero days until overage, renewal flagged.
	days, ok := rec.DaysUntilOverage.Value()
	require.True(t, ok)
	assert.True(t, days.IsZero())
	assert.True(t, rec.RenewalRecommended)

	assert.True(t, rec.DailyRunRate.Equal(decimal.NewFromInt(10)))
	assert.True(t, rec.AnnualRunRate.Equal(decimal.NewFromInt(3650)))
}

func TestContractUsage_CapacityIncludesRolloverAndFree(t *testing.T) {
	engine := newTestEngine()
	start := day(2025, time.January, 1)
	end := day(2025, time.December, 31)
	asOf := day(2025, time.January, 31)

	rollover := decimal.NewFromInt(500)
	free := decimal.NewFromInt(100)
	contract := contractItem("acme", "C-1002", start, end, "1000")
	contract.RolloverAmount = &rollover
	contract.FreeUsageAmount = &free

	rec, err := engine.ContractUsage(context.Background(), domain.ContractUsageRequest{
		Contract: contract,
		Usage:    flatUsage("acme", start, asOf, "10"),
		AsOf:     asOf,
	})
	require.NoError(t, err)
	assert.True(t, rec.CapacityPurchased.Equal(decimal.NewFromInt(1600)))
	assert.True(t, rec.Overage.IsZero(), "under capacity never reports overage")
}

func TestContractUsage_ZeroCapacityReportsZeroPercent(t *testing.T) {
	engine := newTestEngine()
	start := day(2025, time.January, 1)
	end := day(2025, time.June, 30)
	asOf := day(2025, time.February, 1)

	rec, err := engine.ContractUsage(context.Background(), domain.ContractUsageRequest{
		Contract: contractItem("acme", "C-1003", start, end, "0"),
		Usage:    flatUsage("acme", start, asOf, "5"),
		AsOf:     asOf,
	})
	require.NoError(t, err)
	assert.True(t, rec.UsedPercent.IsZero())
	assert.True(t, rec.Overage.Equal(rec.TotalUsed))
}

func TestContractUsage_NoConsumptionBoundedByTerm(t *testing.T) {
	engine := newTestEngine()
	start := day(2025, time.January, 1)
	end := day(2025, time.January, 31)
	asOf := day(2025, time.January, 10)

	rec, err := engine.ContractUsage(context.Background(), domain.ContractUsageRequest{
		Contract: contractItem("acme", "C-1004", start, end, "1000"),
		Usage:    nil,
		AsOf:     asOf,
	})
	require.NoError(t, err)

	assert.True(t, rec.TotalUsed.IsZero())
	assert.True(t, rec.DailyRunRate.IsZero())

	// Zero rate: overage is bounded by the remaining contract term (21
	// days), not infinite.
	days, ok := rec.DaysUntilOverage.Value()
	require.True(t, ok)
	assert.True(t, days.Equal(decimal.NewFromInt(21)))
	assert.False(t, rec.RenewalRecommended)
}

func TestContractUsage_RecentWindowClippedToContractStart(t *testing.T) {
	engine := newTestEngine()
	start := day(2025, time.March, 1)
	end := day(2026, time.February, 28)
	asOf := day(2025, time.March, 10)

	// Contract is 10 days old; a 30-day window must divide by the 10
	// actual days, not 30.
	rec, err := engine.ContractUsage(context.Background(), domain.ContractUsageRequest{
		Contract:         contractItem("acme", "C-1005", start, end, "10000"),
		Usage:            flatUsage("acme", start, asOf, "100"),
		RecentWindowDays: 30,
		AsOf:             asOf,
	})
	require.NoError(t, err)
	assert.True(t, rec.DailyRunRate.Equal(decimal.NewFromInt(100)), "daily run rate %s", rec.DailyRunRate)

	// remaining 9000 at 100/day.
	days, ok := rec.DaysUntilOverage.Value()
	require.True(t, ok)
	assert.True(t, days.Equal(decimal.NewFromInt(90)))
}

func TestContractUsage_RenewalThresholds(t *testing.T) {
	engine := newTestEngine()
	start := day(2025, time.January, 1)
	end := day(2025, time.December, 31)

	t.Run("exactly 80 percent used", func(t *testing.T) {
		// $10/day for 80 days on a 1000 contract.
		asOf := day(2025, time.March, 21)
		rec, err := engine.ContractUsage(context.Background(), domain.ContractUsageRequest{
			Contract: contractItem("acme", "C-1006", start, end, "1000"),
			Usage:    flatUsage("acme", start, asOf, "10"),
			AsOf:     asOf,
		})
		require.NoError(t, err)
		assert.True(t, rec.UsedPercent.Equal(decimal.NewFromInt(80)))
		assert.True(t, rec.RenewalRecommended)
	})

	t.Run("low usage and long horizon", func(t *testing.T) {
		asOf := day(2025, time.January, 31)
		rec, err := engine.ContractUsage(context.Background(), domain.ContractUsageRequest{
			Contract: contractItem("acme", "C-1007", start, end, "100000"),
			Usage:    flatUsage("acme", start, asOf, "10"),
			AsOf:     asOf,
		})
		require.NoError(t, err)
		assert.False(t, rec.RenewalRecommended)
	})
}

func TestContractUsage_Validation(t *testing.T) {
	engine := newTestEngine()
	start := day(2025, time.January, 1)
	end := day(2025, time.December, 31)
	asOf := day(2025, time.June, 1)

	t.Run("inverted contract dates", func(t *testing.T) {
		_, err := engine.ContractUsage(context.Background(), domain.ContractUsageRequest{
			Contract: contractItem("acme", "C-bad", end, start, "1000"),
			AsOf:     asOf,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	})

	t.Run("negative contracted amount", func(t *testing.T) {
		_, err := engine.ContractUsage(context.Background(), domain.ContractUsageRequest{
			Contract: contractItem("acme", "C-bad", start, end, "-1"),
			AsOf:     asOf,
		})
		assert.ErrorIs(t, err, domain.ErrMalformedInput)
	})

	t.Run("negative recent window", func(t *testing.T) {
		_, err := engine.ContractUsage(context.Background(), domain.ContractUsageRequest{
			Contract:         contractItem("acme", "C-1008", start, end, "1000"),
			RecentWindowDays: -5,
			AsOf:             asOf,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidWindow)
	})

	t.Run("no usage and no as-of date", func(t *testing.T) {
		_, err := engine.ContractUsage(context.Background(), domain.ContractUsageRequest{
			Contract: contractItem("acme", "C-1009", start, end, "1000"),
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientData)
	})
}
