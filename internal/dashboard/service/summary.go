package service

import (
	"context"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	analyticsdomain "github.com/partnerpulse/creditscope/internal/analytics/domain"
	"github.com/partnerpulse/creditscope/internal/dashboard/cache"
	"github.com/partnerpulse/creditscope/internal/dashboard/domain"
	warehousedomain "github.com/partnerpulse/creditscope/internal/warehouse/domain"
)

const topUsageTypes = 5

var hundred = decimal.NewFromInt(100)

func (s *Service) SummarizeUsage(ctx context.Context, req domain.SummaryRequest) (domain.UsageSummary, error) {
	cfg := s.holder.Get()
	start, end, err := s.summaryRange(req)
	if err != nil {
		return domain.UsageSummary{}, err
	}

	key := cache.Key("usage_summary",
		keyDate("start", start),
		keyDate("end", end),
		keyPart("cust", req.CustomerID),
	)
	var cached domain.UsageSummary
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		s.metrics.ObserveCacheLookup("usage_summary", true)
		return cached, nil
	}
	s.metrics.ObserveCacheLookup("usage_summary", false)

	began := time.Now()
	rows, err := s.repo.ListUsage(ctx, warehousedomain.UsageFilter{
		StartDate:  start,
		EndDate:    end,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		s.metrics.ObserveComputeRun("usage_summary", "error", time.Since(began))
		return domain.UsageSummary{}, err
	}
	s.metrics.ObserveRowsRead("partner_usage_daily", len(rows))
	if len(rows) == 0 {
		s.metrics.ObserveComputeRun("usage_summary", "error", time.Since(began))
		return domain.UsageSummary{}, analyticsdomain.ErrInsufficientData
	}

	totalCredits := decimal.Zero
	totalCost := decimal.Zero
	currency := ""
	byType := map[string]decimal.Decimal{}
	creditsByCustomer := map[string]decimal.Decimal{}
	costByCustomer := map[string]decimal.Decimal{}
	for _, row := range rows {
		totalCredits = totalCredits.Add(row.CreditsUsed)
		totalCost = totalCost.Add(row.CostInCurrency)
		byType[row.UsageType] = byType[row.UsageType].Add(row.CreditsUsed)
		creditsByCustomer[row.CustomerID] = creditsByCustomer[row.CustomerID].Add(row.CreditsUsed)
		costByCustomer[row.CustomerID] = costByCustomer[row.CustomerID].Add(row.CostInCurrency)
		if currency == "" {
			currency = row.Currency
		}
	}

	days := decimal.NewFromInt(int64(end.Sub(start).Hours()/24) + 1)
	avgDaily := totalCredits.Div(days)

	growth, err := s.growthRate(ctx, req, end, cfg.GrowthPeriodDays)
	if err != nil {
		s.metrics.ObserveComputeRun("usage_summary", "error", time.Since(began))
		return domain.UsageSummary{}, err
	}
	s.metrics.ObserveComputeRun("usage_summary", "ok", time.Since(began))

	summary := domain.UsageSummary{
		ComputeID:       ulid.Make().String(),
		StartDate:       start,
		EndDate:         end,
		TotalCredits:    totalCredits,
		TotalCost:       totalCost,
		Currency:        currency,
		CustomerCount:   len(creditsByCustomer),
		AvgDailyCredits: avgDaily,
		TopUsageTypes:   topTypeShares(byType, totalCredits),
		TopCustomers:    topCustomers(creditsByCustomer, costByCustomer, cfg.TopCustomers),
		Growth:          growth,
	}
	_ = s.cache.Set(ctx, key, summary, cfg.CacheTTL)
	return summary, nil
}

func (s *Service) SummarizeBalances(ctx context.Context, req domain.SummaryRequest) (domain.BalanceSummary, error) {
	cfg := s.holder.Get()
	asOf := dateOnly(req.EndDate)
	if req.EndDate.IsZero() {
		asOf = s.today()
	}

	key := cache.Key("balance_summary",
		keyDate("asof", asOf),
		keyPart("cust", req.CustomerID),
	)
	var cached domain.BalanceSummary
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		s.metrics.ObserveCacheLookup("balance_summary", true)
		return cached, nil
	}
	s.metrics.ObserveCacheLookup("balance_summary", false)

	began := time.Now()
	rows, err := s.repo.ListBalances(ctx, warehousedomain.BalanceFilter{
		StartDate:  asOf.AddDate(0, 0, -staleLookbackDays),
		EndDate:    asOf,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		s.metrics.ObserveComputeRun("balance_summary", "error", time.Since(began))
		return domain.BalanceSummary{}, err
	}
	s.metrics.ObserveRowsRead("partner_balance_daily", len(rows))
	if len(rows) == 0 {
		s.metrics.ObserveComputeRun("balance_summary", "error", time.Since(began))
		return domain.BalanceSummary{}, analyticsdomain.ErrInsufficientData
	}

	// Latest snapshot per customer; rows arrive most recent first.
	latest := map[string]warehousedomain.BalanceSnapshot{}
	for _, row := range rows {
		if _, ok := latest[row.CustomerID]; !ok {
			latest[row.CustomerID] = row
		}
	}

	summary := domain.BalanceSummary{
		ComputeID:      ulid.Make().String(),
		AsOf:           asOf,
		CustomerCount:  len(latest),
		TotalAvailable: decimal.Zero,
		TotalFreeUsage: decimal.Zero,
		TotalCapacity:  decimal.Zero,
		TotalRollover:  decimal.Zero,
		TotalOnDemand:  decimal.Zero,
	}
	for _, snap := range latest {
		mapped := snap.ToAnalytics()
		summary.TotalAvailable = summary.TotalAvailable.Add(mapped.Available())
		summary.TotalFreeUsage = summary.TotalFreeUsage.Add(snap.FreeUsageBalance)
		summary.TotalCapacity = summary.TotalCapacity.Add(snap.CapacityBalance)
		summary.TotalRollover = summary.TotalRollover.Add(snap.RolloverBalance)
		summary.TotalOnDemand = summary.TotalOnDemand.Add(snap.OnDemandBalance)
		summary.Customers = append(summary.Customers, domain.CustomerBalance{
			CustomerID: snap.CustomerID,
			AsOf:       time.Time(snap.BalanceDate),
			Currency:   snap.Currency,
			Available:  mapped.Available(),
			OnDemand:   snap.OnDemandBalance,
		})
	}
	sort.Slice(summary.Customers, func(i, j int) bool {
		return summary.Customers[i].CustomerID < summary.Customers[j].CustomerID
	})
	s.metrics.ObserveComputeRun("balance_summary", "ok", time.Since(began))

	_ = s.cache.Set(ctx, key, summary, cfg.CacheTTL)
	return summary, nil
}

// growthRate compares the trailing period ending at end against the period
// immediately before it. A previous period with zero credits leaves
// ChangePercent nil rather than inventing an infinite growth figure.
func (s *Service) growthRate(ctx context.Context, req domain.SummaryRequest, end time.Time, periodDays int) (*domain.GrowthRate, error) {
	if periodDays <= 0 {
		return nil, nil
	}

	rows, err := s.repo.ListUsage(ctx, warehousedomain.UsageFilter{
		StartDate:  end.AddDate(0, 0, -(2*periodDays - 1)),
		EndDate:    end,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveRowsRead("partner_usage_daily", len(rows))

	currentStart := end.AddDate(0, 0, -(periodDays - 1))
	current := decimal.Zero
	previous := decimal.Zero
	for _, row := range rows {
		date := time.Time(row.UsageDate)
		if date.Before(currentStart) {
			previous = previous.Add(row.CreditsUsed)
		} else {
			current = current.Add(row.CreditsUsed)
		}
	}

	growth := &domain.GrowthRate{
		PeriodDays:      periodDays,
		CurrentCredits:  current,
		PreviousCredits: previous,
	}
	if previous.IsPositive() {
		change := current.Sub(previous).Div(previous).Mul(hundred)
		growth.ChangePercent = &change
	}
	return growth, nil
}

func topTypeShares(byType map[string]decimal.Decimal, total decimal.Decimal) []domain.UsageTypeShare {
	shares := lo.MapToSlice(byType, func(usageType string, credits decimal.Decimal) domain.UsageTypeShare {
		share := domain.UsageTypeShare{UsageType: usageType, Credits: credits}
		if total.IsPositive() {
			share.Percent = credits.Div(total).Mul(hundred)
		}
		return share
	})
	sort.Slice(shares, func(i, j int) bool {
		if !shares[i].Credits.Equal(shares[j].Credits) {
			return shares[i].Credits.GreaterThan(shares[j].Credits)
		}
		return shares[i].UsageType < shares[j].UsageType
	})
	if len(shares) > topUsageTypes {
		shares = shares[:topUsageTypes]
	}
	return shares
}

func topCustomers(credits, costs map[string]decimal.Decimal, limit int) []domain.TopCustomer {
	ranked := lo.MapToSlice(credits, func(customerID string, total decimal.Decimal) domain.TopCustomer {
		return domain.TopCustomer{
			CustomerID: customerID,
			Credits:    total,
			Cost:       costs[customerID],
		}
	})
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].Credits.Equal(ranked[j].Credits) {
			return ranked[i].Credits.GreaterThan(ranked[j].Credits)
		}
		return ranked[i].CustomerID < ranked[j].CustomerID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func (s *Service) summaryRange(req domain.SummaryRequest) (time.Time, time.Time, error) {
	end := dateOnly(req.EndDate)
	if req.EndDate.IsZero() {
		end = s.today()
	}
	start := dateOnly(req.StartDate)
	if req.StartDate.IsZero() {
		start = end.AddDate(0, 0, -(analyticsdomain.DefaultRecentWindowDays - 1))
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, analyticsdomain.ErrInvalidDateRange
	}
	return start, end, nil
}
