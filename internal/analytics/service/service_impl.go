// Package service implements the metric-derivation engine. Every method is
// a pure recomputation over the inputs it receives: no stored state, no
// I/O, safe for concurrent callers over independent snapshots.
package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/partnerpulse/creditscope/internal/analytics/domain"
)

type Engine struct {
	log *zap.Logger
}

type Params struct {
	fx.In

	Log *zap.Logger
}

func NewEngine(p Params) domain.Engine {
	return &Engine{
		log: p.Log.Named("analytics.engine"),
	}
}

var (
	seven     = decimal.NewFromInt(7)
	thirty    = decimal.NewFromInt(30)
	threeSixF = decimal.NewFromInt(365)
	hundred   = decimal.NewFromInt(100)
)

// customerTotals accumulates the grouped sums for one customer inside the
// filtered window.
type customerTotals struct {
	credits decimal.Decimal
	cost    decimal.Decimal
}

// RunRateByCustomer produces one RunRateRecord per customer with usage in
// the trailing WindowDays window ending at the as-of date. Customers with
// no rows in the window are excluded, not zero-filled. A customer with no
// balance snapshot degrades to unknown depletion; it never fails the call.
func (e *Engine) RunRateByCustomer(ctx context.Context, req domain.RunRateRequest) ([]domain.RunRateRecord, error) {
	windowed, asOf, err := e.prepareRunRate(req)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]*customerTotals)
	for _, row := range windowed {
		t, ok := totals[row.CustomerID]
		if !ok {
			t = &customerTotals{credits: decimal.Zero, cost: decimal.Zero}
			totals[row.CustomerID] = t
		}
		t.credits = t.credits.Add(row.CreditsUsed)
		t.cost = t.cost.Add(row.CostInCurrency)
	}

	balances := latestBalances(req.Balances, asOf)
	windowDays := decimal.NewFromInt(int64(req.WindowDays))

	records := make([]domain.RunRateRecord, 0, len(totals))
	for customerID, t := range totals {
		rec := domain.RunRateRecord{
			CustomerID:      customerID,
			DailyCreditRate: t.credits.Div(windowDays),
			DailyCostRate:   t.cost.Div(windowDays),
		}
		rec.WeeklyProjection = rec.DailyCreditRate.Mul(seven)
		rec.MonthlyProjection = rec.DailyCreditRate.Mul(thirty)

		if snapshot, ok := balances[customerID]; ok {
			available := snapshot.Available()
			rec.CurrentBalance = &available
			rec.DaysUntilDepletion = domain.SafeDiv(available, rec.DailyCostRate)
		} else {
			rec.DaysUntilDepletion = domain.UnknownDays()
			e.log.Info("no balance snapshot for customer, depletion unknown",
				zap.String("customer_id", customerID),
				zap.Time("as_of", asOf),
			)
		}
		rec.UrgencyTier = domain.UrgencyFor(rec.DaysUntilDepletion)
		records = append(records, rec)
	}

	// Deterministic output order: highest credit burn first.
	sort.Slice(records, func(i, j int) bool {
		if !records[i].DailyCreditRate.Equal(records[j].DailyCreditRate) {
			return records[i].DailyCreditRate.GreaterThan(records[j].DailyCreditRate)
		}
		return records[i].CustomerID < records[j].CustomerID
	})

	return records, nil
}

// OverallRunRate runs the same calculation collapsed into a single group
// across all customers active in the window.
func (e *Engine) OverallRunRate(ctx context.Context, req domain.RunRateRequest) (*domain.OverallRunRate, error) {
	windowed, asOf, err := e.prepareRunRate(req)
	if err != nil {
		return nil, err
	}

	totalCredits := decimal.Zero
	totalCost := decimal.Zero
	customers := make(map[string]struct{})
	for _, row := range windowed {
		totalCredits = totalCredits.Add(row.CreditsUsed)
		totalCost = totalCost.Add(row.CostInCurrency)
		customers[row.CustomerID] = struct{}{}
	}

	windowDays := decimal.NewFromInt(int64(req.WindowDays))
	overall := &domain.OverallRunRate{
		WindowDays:      req.WindowDays,
		Customers:       len(customers),
		DailyCreditRate: totalCredits.Div(windowDays),
		DailyCostRate:   totalCost.Div(windowDays),
	}
	overall.WeeklyProjection = overall.DailyCreditRate.Mul(seven)
	overall.MonthlyProjection = overall.DailyCreditRate.Mul(thirty)

	balances := latestBalances(req.Balances, asOf)
	if len(balances) == 0 {
		overall.DaysUntilDepletion = domain.UnknownDays()
	} else {
		total := decimal.Zero
		for _, snapshot := range balances {
			total = total.Add(snapshot.Available())
		}
		overall.CurrentBalance = &total
		overall.DaysUntilDepletion = domain.SafeDiv(total, overall.DailyCostRate)
	}
	overall.UrgencyTier = domain.UrgencyFor(overall.DaysUntilDepletion)

	return overall, nil
}

// prepareRunRate validates the request, resolves the as-of date, and
// returns the usage rows inside the N-day window.
func (e *Engine) prepareRunRate(req domain.RunRateRequest) ([]domain.UsageRecord, time.Time, error) {
	if !domain.ValidRunRateWindow(req.WindowDays) {
		return nil, time.Time{}, domain.ErrInvalidWindow
	}
	if err := validateUsage(req.Usage); err != nil {
		return nil, time.Time{}, err
	}
	if err := validateBalances(req.Balances); err != nil {
		return nil, time.Time{}, err
	}
	if len(req.Usage) == 0 {
		return nil, time.Time{}, domain.ErrInsufficientData
	}

	asOf := dateOnly(req.AsOf)
	if asOf.IsZero() {
		asOf = latestUsageDate(req.Usage)
	}

	windowed := filterWindow(req.Usage, asOf.AddDate(0, 0, -(req.WindowDays-1)), asOf)
	if len(windowed) == 0 {
		return nil, time.Time{}, domain.ErrInsufficientData
	}
	return windowed, asOf, nil
}

// filterWindow keeps rows with start <= date <= end.
func filterWindow(usage []domain.UsageRecord, start, end time.Time) []domain.UsageRecord {
	var out []domain.UsageRecord
	for _, row := range usage {
		d := dateOnly(row.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// latestBalances picks, per customer, the most recent snapshot dated at or
// before the as-of date.
func latestBalances(snapshots []domain.BalanceSnapshot, asOf time.Time) map[string]domain.BalanceSnapshot {
	latest := make(map[string]domain.BalanceSnapshot)
	for _, s := range snapshots {
		d := dateOnly(s.Date)
		if d.After(asOf) {
			continue
		}
		current, ok := latest[s.CustomerID]
		if !ok || d.After(dateOnly(current.Date)) {
			latest[s.CustomerID] = s
		}
	}
	return latest
}

func latestUsageDate(usage []domain.UsageRecord) time.Time {
	var max time.Time
	for _, row := range usage {
		d := dateOnly(row.Date)
		if d.After(max) {
			max = d
		}
	}
	return max
}

// dateOnly truncates to a UTC calendar day.
func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
