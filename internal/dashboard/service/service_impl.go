package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	analyticsdomain "github.com/partnerpulse/creditscope/internal/analytics/domain"
	"github.com/partnerpulse/creditscope/internal/clock"
	"github.com/partnerpulse/creditscope/internal/config"
	"github.com/partnerpulse/creditscope/internal/dashboard/cache"
	"github.com/partnerpulse/creditscope/internal/dashboard/domain"
	warehousedomain "github.com/partnerpulse/creditscope/internal/warehouse/domain"
	"github.com/partnerpulse/creditscope/pkg/telemetry"
)

// staleLookbackDays widens warehouse fetches past the strict window so a
// pipeline that is a few weeks behind still yields an as-of date for the
// engine to default to.
const staleLookbackDays = 30

type Params struct {
	fx.In

	Repo    warehousedomain.Repository
	Engine  analyticsdomain.Engine
	Cache   domain.Cache
	Holder  *config.AnalyticsConfigHolder
	Clock   clock.Clock        `optional:"true"`
	Metrics *telemetry.Metrics `optional:"true"`
	Log     *zap.Logger
}

type Service struct {
	repo    warehousedomain.Repository
	engine  analyticsdomain.Engine
	cache   domain.Cache
	holder  *config.AnalyticsConfigHolder
	clock   clock.Clock
	metrics *telemetry.Metrics
	log     *zap.Logger
}

func NewService(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		repo:    p.Repo,
		engine:  p.Engine,
		cache:   p.Cache,
		holder:  p.Holder,
		clock:   clk,
		metrics: p.Metrics,
		log:     p.Log.Named("dashboard.service"),
	}
}

func (s *Service) RunRates(ctx context.Context, req domain.RunRatesRequest) (domain.RunRatesResponse, error) {
	cfg := s.holder.Get()
	window := req.WindowDays
	if window == 0 {
		window = cfg.DefaultWindowDays
	}

	key := cache.Key("run_rates",
		fmt.Sprintf("w=%d", window),
		keyDate("asof", req.AsOf),
		keyPart("cust", req.CustomerID),
		keyPart("types", strings.Join(req.UsageTypes, ",")),
	)
	var cached domain.RunRatesResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		s.metrics.ObserveCacheLookup("run_rates", true)
		return cached, nil
	}
	s.metrics.ObserveCacheLookup("run_rates", false)

	start := time.Now()
	usage, balances, asOf, err := s.loadRunRateInputs(ctx, req, window)
	if err != nil {
		s.metrics.ObserveComputeRun("run_rates", "error", time.Since(start))
		return domain.RunRatesResponse{}, err
	}

	records, err := s.engine.RunRateByCustomer(ctx, analyticsdomain.RunRateRequest{
		Usage:      usage,
		Balances:   balances,
		WindowDays: window,
		AsOf:       req.AsOf,
	})
	if err != nil {
		s.metrics.ObserveComputeRun("run_rates", "error", time.Since(start))
		return domain.RunRatesResponse{}, err
	}
	s.metrics.ObserveComputeRun("run_rates", "ok", time.Since(start))

	resp := domain.RunRatesResponse{
		ComputeID:  ulid.Make().String(),
		WindowDays: window,
		AsOf:       asOf,
		Records:    records,
	}
	_ = s.cache.Set(ctx, key, resp, cfg.CacheTTL)
	return resp, nil
}

func (s *Service) OverallRunRate(ctx context.Context, req domain.RunRatesRequest) (domain.OverallRunRateResponse, error) {
	cfg := s.holder.Get()
	window := req.WindowDays
	if window == 0 {
		window = cfg.DefaultWindowDays
	}

	key := cache.Key("overall_run_rate",
		fmt.Sprintf("w=%d", window),
		keyDate("asof", req.AsOf),
		keyPart("types", strings.Join(req.UsageTypes, ",")),
	)
	var cached domain.OverallRunRateResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		s.metrics.ObserveCacheLookup("overall_run_rate", true)
		return cached, nil
	}
	s.metrics.ObserveCacheLookup("overall_run_rate", false)

	start := time.Now()
	usage, balances, asOf, err := s.loadRunRateInputs(ctx, req, window)
	if err != nil {
		s.metrics.ObserveComputeRun("overall_run_rate", "error", time.Since(start))
		return domain.OverallRunRateResponse{}, err
	}

	overall, err := s.engine.OverallRunRate(ctx, analyticsdomain.RunRateRequest{
		Usage:      usage,
		Balances:   balances,
		WindowDays: window,
		AsOf:       req.AsOf,
	})
	if err != nil {
		s.metrics.ObserveComputeRun("overall_run_rate", "error", time.Since(start))
		return domain.OverallRunRateResponse{}, err
	}
	s.metrics.ObserveComputeRun("overall_run_rate", "ok", time.Since(start))
	s.metrics.SetCustomersSeen(float64(overall.Customers))

	resp := domain.OverallRunRateResponse{
		ComputeID: ulid.Make().String(),
		AsOf:      asOf,
		Overall:   *overall,
	}
	_ = s.cache.Set(ctx, key, resp, cfg.CacheTTL)
	return resp, nil
}

func (s *Service) ContractUsage(ctx context.Context, req domain.ContractUsageRequest) (domain.ContractUsageResponse, error) {
	cfg := s.holder.Get()
	recent := req.RecentWindowDays
	if recent == 0 {
		recent = cfg.DefaultRecentDays
	}

	asOf := dateOnly(req.AsOf)
	if req.AsOf.IsZero() {
		asOf = s.today()
	}

	key := cache.Key("contract_usage",
		fmt.Sprintf("recent=%d", recent),
		keyDate("asof", asOf),
		keyPart("cust", req.CustomerID),
	)
	var cached domain.ContractUsageResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		s.metrics.ObserveCacheLookup("contract_usage", true)
		return cached, nil
	}
	s.metrics.ObserveCacheLookup("contract_usage", false)

	start := time.Now()
	contracts, err := s.repo.ListContracts(ctx, warehousedomain.ContractFilter{
		CustomerID: req.CustomerID,
		ActiveOn:   asOf,
	})
	if err != nil {
		s.metrics.ObserveComputeRun("contract_usage", "error", time.Since(start))
		return domain.ContractUsageResponse{}, err
	}

	// Keep only contracts whose term has started.
	contracts = lo.Filter(contracts, func(c warehousedomain.ContractItem, _ int) bool {
		return !time.Time(c.StartDate).After(asOf)
	})
	if len(contracts) == 0 {
		s.metrics.ObserveComputeRun("contract_usage", "error", time.Since(start))
		return domain.ContractUsageResponse{}, analyticsdomain.ErrInsufficientData
	}

	records := make([]analyticsdomain.ContractUsageRecord, 0, len(contracts))
	usageByCustomer := map[string][]analyticsdomain.UsageRecord{}
	for _, contract := range contracts {
		usage, ok := usageByCustomer[contract.CustomerID]
		if !ok {
			usage, err = s.fetchUsage(ctx, warehousedomain.UsageFilter{
				StartDate:  earliestStart(contracts, contract.CustomerID),
				EndDate:    asOf,
				CustomerID: contract.CustomerID,
			})
			if err != nil {
				s.metrics.ObserveComputeRun("contract_usage", "error", time.Since(start))
				return domain.ContractUsageResponse{}, err
			}
			usageByCustomer[contract.CustomerID] = usage
		}

		// A customer with no usage rows at all has nothing to project;
		// skipping it must not hide the other contracts.
		if len(usage) == 0 {
			s.log.Info("skipping contract without usage",
				zap.String("customer_id", contract.CustomerID),
				zap.String("contract_id", contract.ContractID),
			)
			continue
		}

		record, err := s.engine.ContractUsage(ctx, analyticsdomain.ContractUsageRequest{
			Contract:         contract.ToAnalytics(),
			Usage:            usage,
			RecentWindowDays: recent,
			AsOf:             asOf,
		})
		if err != nil {
			if errors.Is(err, analyticsdomain.ErrInsufficientData) {
				continue
			}
			s.metrics.ObserveComputeRun("contract_usage", "error", time.Since(start))
			return domain.ContractUsageResponse{}, err
		}
		records = append(records, *record)
	}
	if len(records) == 0 {
		s.metrics.ObserveComputeRun("contract_usage", "error", time.Since(start))
		return domain.ContractUsageResponse{}, analyticsdomain.ErrInsufficientData
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CustomerID != records[j].CustomerID {
			return records[i].CustomerID < records[j].CustomerID
		}
		return records[i].ContractID < records[j].ContractID
	})
	s.metrics.ObserveComputeRun("contract_usage", "ok", time.Since(start))

	resp := domain.ContractUsageResponse{
		ComputeID: ulid.Make().String(),
		AsOf:      asOf,
		Records:   records,
	}
	_ = s.cache.Set(ctx, key, resp, cfg.CacheTTL)
	return resp, nil
}

func (s *Service) Customers(ctx context.Context) ([]string, error) {
	return s.repo.ListCustomers(ctx, time.Time{})
}

func (s *Service) UsageTypes(ctx context.Context) ([]string, error) {
	return s.repo.ListUsageTypes(ctx)
}

// loadRunRateInputs fetches and maps the usage and balance rows backing a
// run-rate window, and resolves the effective as-of date the way the engine
// will (latest usage date when the request leaves it zero).
func (s *Service) loadRunRateInputs(ctx context.Context, req domain.RunRatesRequest, window int) ([]analyticsdomain.UsageRecord, []analyticsdomain.BalanceSnapshot, time.Time, error) {
	end := dateOnly(req.AsOf)
	if req.AsOf.IsZero() {
		end = s.today()
	}
	fetchStart := end.AddDate(0, 0, -(window - 1 + staleLookbackDays))

	usage, err := s.fetchUsage(ctx, warehousedomain.UsageFilter{
		StartDate:  fetchStart,
		EndDate:    end,
		CustomerID: req.CustomerID,
		UsageTypes: req.UsageTypes,
	})
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	balances, err := s.fetchBalances(ctx, warehousedomain.BalanceFilter{
		StartDate:  fetchStart,
		EndDate:    end,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	asOf := dateOnly(req.AsOf)
	if req.AsOf.IsZero() {
		asOf = latestUsageDate(usage)
	}
	return usage, balances, asOf, nil
}

func (s *Service) fetchUsage(ctx context.Context, filter warehousedomain.UsageFilter) ([]analyticsdomain.UsageRecord, error) {
	rows, err := s.repo.ListUsage(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveRowsRead("partner_usage_daily", len(rows))
	return lo.Map(rows, func(row warehousedomain.UsageRecord, _ int) analyticsdomain.UsageRecord {
		return row.ToAnalytics()
	}), nil
}

func (s *Service) fetchBalances(ctx context.Context, filter warehousedomain.BalanceFilter) ([]analyticsdomain.BalanceSnapshot, error) {
	rows, err := s.repo.ListBalances(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveRowsRead("partner_balance_daily", len(rows))
	return lo.Map(rows, func(row warehousedomain.BalanceSnapshot, _ int) analyticsdomain.BalanceSnapshot {
		return row.ToAnalytics()
	}), nil
}

func earliestStart(contracts []warehousedomain.ContractItem, customerID string) time.Time {
	var earliest time.Time
	for _, c := range contracts {
		if c.CustomerID != customerID {
			continue
		}
		start := time.Time(c.StartDate)
		if earliest.IsZero() || start.Before(earliest) {
			earliest = start
		}
	}
	return earliest
}

func latestUsageDate(usage []analyticsdomain.UsageRecord) time.Time {
	var latest time.Time
	for _, row := range usage {
		if row.Date.After(latest) {
			latest = row.Date
		}
	}
	return latest
}

func keyPart(name, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return name + "=" + value
}

func keyDate(name string, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return name + "=" + t.Format("2006-01-02")
}

func (s *Service) today() time.Time {
	return dateOnly(s.clock.Now())
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
