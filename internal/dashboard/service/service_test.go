package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	analyticsdomain "github.com/partnerpulse/creditscope/internal/analytics/domain"
	analyticsservice "github.com/partnerpulse/creditscope/internal/analytics/service"
	"github.com/partnerpulse/creditscope/internal/clock"
	"github.com/partnerpulse/creditscope/internal/config"
	"github.com/partnerpulse/creditscope/internal/dashboard/domain"
	warehousedomain "github.com/partnerpulse/creditscope/internal/warehouse/domain"
)

var asOf = time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)

type stubRepo struct {
	usage     []warehousedomain.UsageRecord
	balances  []warehousedomain.BalanceSnapshot
	contracts []warehousedomain.ContractItem
}

func (r *stubRepo) ListUsage(_ context.Context, filter warehousedomain.UsageFilter) ([]warehousedomain.UsageRecord, error) {
	var out []warehousedomain.UsageRecord
	for _, row := range r.usage {
		date := time.Time(row.UsageDate)
		if date.Before(filter.StartDate) || date.After(filter.EndDate) {
			continue
		}
		if filter.CustomerID != "" && row.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *stubRepo) ListBalances(_ context.Context, filter warehousedomain.BalanceFilter) ([]warehousedomain.BalanceSnapshot, error) {
	var out []warehousedomain.BalanceSnapshot
	for _, row := range r.balances {
		date := time.Time(row.BalanceDate)
		if date.Before(filter.StartDate) || date.After(filter.EndDate) {
			continue
		}
		if filter.CustomerID != "" && row.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, row)
	}
	// Most recent first, matching the repository contract.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if time.Time(out[j].BalanceDate).After(time.Time(out[i].BalanceDate)) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *stubRepo) ListContracts(_ context.Context, filter warehousedomain.ContractFilter) ([]warehousedomain.ContractItem, error) {
	var out []warehousedomain.ContractItem
	for _, row := range r.contracts {
		if filter.CustomerID != "" && row.CustomerID != filter.CustomerID {
			continue
		}
		if !filter.ActiveOn.IsZero() && time.Time(row.EndDate).Before(filter.ActiveOn) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *stubRepo) ListCustomers(context.Context, time.Time) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, row := range r.usage {
		if !seen[row.CustomerID] {
			seen[row.CustomerID] = true
			out = append(out, row.CustomerID)
		}
	}
	return out, nil
}

func (r *stubRepo) ListUsageTypes(context.Context) ([]string, error) {
	return []string{"compute", "storage"}, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	hits    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (c *fakeCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(payload, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = payload
	c.sets++
	return nil
}

func newTestService(repo *stubRepo, c domain.Cache) *Service {
	holder := config.NewStaticAnalyticsConfigHolder(config.DefaultAnalyticsConfig())
	engine := analyticsservice.NewEngine(analyticsservice.Params{Log: zap.NewNop()})
	svc := NewService(Params{
		Repo:   repo,
		Engine: engine,
		Cache:  c,
		Holder: holder,
		Clock:  clock.NewFakeClock(asOf),
		Log:    zap.NewNop(),
	})
	return svc.(*Service)
}

func usageRow(customer string, date time.Time, usageType string, credits, cost int64) warehousedomain.UsageRecord {
	return warehousedomain.UsageRecord{
		CustomerID:     customer,
		UsageDate:      datatypes.Date(date),
		UsageType:      usageType,
		Currency:       "USD",
		CreditsUsed:    decimal.NewFromInt(credits),
		CostInCurrency: decimal.NewFromInt(cost),
	}
}

func balanceRow(customer string, date time.Time, capacity, onDemand int64) warehousedomain.BalanceSnapshot {
	return warehousedomain.BalanceSnapshot{
		CustomerID:      customer,
		BalanceDate:     datatypes.Date(date),
		Currency:        "USD",
		CapacityBalance: decimal.NewFromInt(capacity),
		OnDemandBalance: decimal.NewFromInt(onDemand),
	}
}

func weekOfUsage(customer string, credits, cost int64) []warehousedomain.UsageRecord {
	rows := make([]warehousedomain.UsageRecord, 0, 7)
	for i := 0; i < 7; i++ {
		rows = append(rows, usageRow(customer, asOf.AddDate(0, 0, -i), "compute", credits, cost))
	}
	return rows
}

func TestRunRates_EndToEnd(t *testing.T) {
	repo := &stubRepo{
		usage:    weekOfUsage("acme", 100, 300),
		balances: []warehousedomain.BalanceSnapshot{balanceRow("acme", asOf, 7000, 0)},
	}
	svc := newTestService(repo, newFakeCache())

	resp, err := svc.RunRates(context.Background(), domain.RunRatesRequest{AsOf: asOf})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ComputeID)
	assert.Equal(t, 7, resp.WindowDays)
	assert.True(t, resp.AsOf.Equal(asOf))
	require.Len(t, resp.Records, 1)

	record := resp.Records[0]
	assert.Equal(t, "acme", record.CustomerID)
	assert.True(t, record.DailyCreditRate.Equal(decimal.NewFromInt(100)))
	require.True(t, record.DaysUntilDepletion.Defined())
	days, _ := record.DaysUntilDepletion.Value()
	assert.True(t, days.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, analyticsdomain.UrgencyHealthy, record.UrgencyTier)
}

func TestRunRates_ServedFromCache(t *testing.T) {
	repo := &stubRepo{
		usage:    weekOfUsage("acme", 100, 300),
		balances: []warehousedomain.BalanceSnapshot{balanceRow("acme", asOf, 7000, 0)},
	}
	c := newFakeCache()
	svc := newTestService(repo, c)
	ctx := context.Background()
	req := domain.RunRatesRequest{AsOf: asOf}

	first, err := svc.RunRates(ctx, req)
	require.NoError(t, err)
	second, err := svc.RunRates(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.ComputeID, second.ComputeID)
	assert.Equal(t, 1, c.sets)
	assert.Equal(t, 1, c.hits)
}

func TestRunRates_NoUsageIsInsufficient(t *testing.T) {
	svc := newTestService(&stubRepo{}, newFakeCache())

	_, err := svc.RunRates(context.Background(), domain.RunRatesRequest{AsOf: asOf})
	assert.ErrorIs(t, err, analyticsdomain.ErrInsufficientData)
}

func TestContractUsage_SkipsContractWithoutUsage(t *testing.T) {
	contractStart := asOf.AddDate(0, 0, -99)
	contractEnd := asOf.AddDate(0, 3, 0)
	repo := &stubRepo{
		usage: weekOfUsage("acme", 100, 100),
		contracts: []warehousedomain.ContractItem{
			{
				CustomerID:       "acme",
				ContractID:       "C-ACME",
				StartDate:        datatypes.Date(contractStart),
				EndDate:          datatypes.Date(contractEnd),
				ContractedAmount: decimal.NewFromInt(10000),
				Currency:         "USD",
			},
			{
				CustomerID:       "globex",
				ContractID:       "C-GLOBEX",
				StartDate:        datatypes.Date(contractStart),
				EndDate:          datatypes.Date(contractEnd),
				ContractedAmount: decimal.NewFromInt(5000),
				Currency:         "USD",
			},
		},
	}
	svc := newTestService(repo, newFakeCache())

	resp, err := svc.ContractUsage(context.Background(), domain.ContractUsageRequest{AsOf: asOf})
	require.NoError(t, err)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "C-ACME", resp.Records[0].ContractID)
	assert.True(t, resp.Records[0].TotalUsed.Equal(decimal.NewFromInt(700)))
}

func TestContractUsage_NoActiveContracts(t *testing.T) {
	svc := newTestService(&stubRepo{}, newFakeCache())

	_, err := svc.ContractUsage(context.Background(), domain.ContractUsageRequest{AsOf: asOf})
	assert.ErrorIs(t, err, analyticsdomain.ErrInsufficientData)
}

func TestSummarizeUsage(t *testing.T) {
	usage := weekOfUsage("acme", 100, 300)
	usage = append(usage, weekOfUsage("globex", 50, 150)...)
	usage = append(usage, usageRow("acme", asOf, "storage", 10, 30))
	repo := &stubRepo{usage: usage}
	svc := newTestService(repo, newFakeCache())

	summary, err := svc.SummarizeUsage(context.Background(), domain.SummaryRequest{
		StartDate: asOf.AddDate(0, 0, -6),
		EndDate:   asOf,
	})
	require.NoError(t, err)

	assert.True(t, summary.TotalCredits.Equal(decimal.NewFromInt(1060)))
	assert.Equal(t, 2, summary.CustomerCount)
	assert.Equal(t, "USD", summary.Currency)
	require.NotEmpty(t, summary.TopUsageTypes)
	assert.Equal(t, "compute", summary.TopUsageTypes[0].UsageType)
	require.NotEmpty(t, summary.TopCustomers)
	assert.Equal(t, "acme", summary.TopCustomers[0].CustomerID)
	assert.True(t, summary.TopCustomers[0].Credits.Equal(decimal.NewFromInt(710)))
}

func TestSummarizeUsage_Growth(t *testing.T) {
	// Current 7 days at 100/day, previous 7 days at 50/day: +100%.
	var usage []warehousedomain.UsageRecord
	for i := 0; i < 7; i++ {
		usage = append(usage, usageRow("acme", asOf.AddDate(0, 0, -i), "compute", 100, 100))
		usage = append(usage, usageRow("acme", asOf.AddDate(0, 0, -7-i), "compute", 50, 50))
	}
	svc := newTestService(&stubRepo{usage: usage}, newFakeCache())

	summary, err := svc.SummarizeUsage(context.Background(), domain.SummaryRequest{
		StartDate: asOf.AddDate(0, 0, -13),
		EndDate:   asOf,
	})
	require.NoError(t, err)

	require.NotNil(t, summary.Growth)
	assert.True(t, summary.Growth.CurrentCredits.Equal(decimal.NewFromInt(700)))
	assert.True(t, summary.Growth.PreviousCredits.Equal(decimal.NewFromInt(350)))
	require.NotNil(t, summary.Growth.ChangePercent)
	assert.True(t, summary.Growth.ChangePercent.Equal(decimal.NewFromInt(100)))
}

func TestSummarizeUsage_InvertedRange(t *testing.T) {
	svc := newTestService(&stubRepo{}, newFakeCache())

	_, err := svc.SummarizeUsage(context.Background(), domain.SummaryRequest{
		StartDate: asOf,
		EndDate:   asOf.AddDate(0, 0, -1),
	})
	assert.ErrorIs(t, err, analyticsdomain.ErrInvalidDateRange)
}

func TestSummarizeBalances_LatestPerCustomer(t *testing.T) {
	repo := &stubRepo{
		balances: []warehousedomain.BalanceSnapshot{
			balanceRow("acme", asOf, 5000, 0),
			balanceRow("acme", asOf.AddDate(0, 0, -1), 9999, 0),
			balanceRow("globex", asOf.AddDate(0, 0, -2), 1000, 250),
		},
	}
	svc := newTestService(repo, newFakeCache())

	summary, err := svc.SummarizeBalances(context.Background(), domain.SummaryRequest{EndDate: asOf})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.CustomerCount)
	assert.True(t, summary.TotalAvailable.Equal(decimal.NewFromInt(6000)))
	assert.True(t, summary.TotalOnDemand.Equal(decimal.NewFromInt(250)))
	require.Len(t, summary.Customers, 2)
	assert.Equal(t, "acme", summary.Customers[0].CustomerID)
}

func TestAlerts_FeedAndOrdering(t *testing.T) {
	// acme burns 100/day with only 1000 left: depletes in 10 days (critical).
	// globex carries on-demand charges (info).
	repo := &stubRepo{
		usage: weekOfUsage("acme", 100, 100),
		balances: []warehousedomain.BalanceSnapshot{
			balanceRow("acme", asOf, 1000, 0),
			balanceRow("globex", asOf, 50000, 300),
		},
	}
	svc := newTestService(repo, newFakeCache())

	resp, err := svc.Alerts(context.Background(), domain.RunRatesRequest{AsOf: asOf})
	require.NoError(t, err)
	require.Len(t, resp.Alerts, 2)

	assert.Equal(t, domain.AlertDepletion, resp.Alerts[0].Kind)
	assert.Equal(t, domain.SeverityCritical, resp.Alerts[0].Severity)
	assert.Equal(t, "acme", resp.Alerts[0].CustomerID)

	assert.Equal(t, domain.AlertOnDemandExposure, resp.Alerts[1].Kind)
	assert.Equal(t, domain.SeverityInfo, resp.Alerts[1].Severity)
	assert.Equal(t, "globex", resp.Alerts[1].CustomerID)
	assert.Equal(t, "globex has incurred $300.00 in on-demand charges", resp.Alerts[1].Message)
}

func TestAlerts_ContractOverageMessageIsFormatted(t *testing.T) {
	// umbrella's contract holds 1000 USD of capacity and 7 days of usage
	// cost 1400: 400 over, rendered with the currency symbol.
	contracted := decimal.NewFromInt(1000)
	repo := &stubRepo{
		usage: weekOfUsage("umbrella", 100, 200),
		contracts: []warehousedomain.ContractItem{
			{
				CustomerID:       "umbrella",
				ContractID:       "umbrella-001",
				StartDate:        datatypes.Date(asOf.AddDate(0, -6, 0)),
				EndDate:          datatypes.Date(asOf.AddDate(0, 6, 0)),
				ContractedAmount: contracted,
				Currency:         "USD",
			},
		},
	}
	svc := newTestService(repo, newFakeCache())

	resp, err := svc.Alerts(context.Background(), domain.RunRatesRequest{AsOf: asOf})
	require.NoError(t, err)

	var overage *domain.Alert
	for i := range resp.Alerts {
		if resp.Alerts[i].Kind == domain.AlertContractOverage {
			overage = &resp.Alerts[i]
			break
		}
	}
	require.NotNil(t, overage)
	assert.Equal(t, domain.SeverityCritical, overage.Severity)
	assert.Equal(t, "contract umbrella-001 is $400.00 over its purchased capacity", overage.Message)
}

func TestAlerts_EmptyWarehouseIsQuiet(t *testing.T) {
	svc := newTestService(&stubRepo{}, newFakeCache())

	resp, err := svc.Alerts(context.Background(), domain.RunRatesRequest{AsOf: asOf})
	require.NoError(t, err)
	assert.Empty(t, resp.Alerts)
	assert.NotEmpty(t, resp.ComputeID)
}
