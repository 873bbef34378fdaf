// Package domain defines the dashboard surface: request envelopes, summary
// shapes, and the orchestration service contract sitting between the HTTP
// layer and the metric engine.
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	analyticsdomain "github.com/partnerpulse/creditscope/internal/analytics/domain"
)

// RunRatesRequest scopes a run-rate computation. Zero WindowDays applies the
// configured default; zero AsOf means "latest usage date in the warehouse
// window".
type RunRatesRequest struct {
	WindowDays int
	AsOf       time.Time
	CustomerID string
	UsageTypes []string
}

type RunRatesResponse struct {
	ComputeID  string                          `json:"compute_id"`
	WindowDays int                             `json:"window_days"`
	AsOf       time.Time                       `json:"as_of"`
	Records    []analyticsdomain.RunRateRecord `json:"records"`
}

type OverallRunRateResponse struct {
	ComputeID string                         `json:"compute_id"`
	AsOf      time.Time                      `json:"as_of"`
	Overall   analyticsdomain.OverallRunRate `json:"overall"`
}

// ContractUsageRequest scopes the contract overage projection. Zero
// RecentWindowDays applies the configured default.
type ContractUsageRequest struct {
	AsOf             time.Time
	RecentWindowDays int
	CustomerID       string
}

type ContractUsageResponse struct {
	ComputeID string                                `json:"compute_id"`
	AsOf      time.Time                             `json:"as_of"`
	Records   []analyticsdomain.ContractUsageRecord `json:"records"`
}

// SummaryRequest bounds the usage and balance summaries. Zero dates default
// to the trailing thirty days ending today.
type SummaryRequest struct {
	StartDate  time.Time
	EndDate    time.Time
	CustomerID string
}

// UsageTypeShare is one usage type's share of total credits in the window.
type UsageTypeShare struct {
	UsageType string          `json:"usage_type"`
	Credits   decimal.Decimal `json:"credits"`
	Percent   decimal.Decimal `json:"percent"`
}

// TopCustomer ranks a customer by credits consumed in the window.
type TopCustomer struct {
	CustomerID string          `json:"customer_id"`
	Credits    decimal.Decimal `json:"credits"`
	Cost       decimal.Decimal `json:"cost"`
}

// GrowthRate compares the most recent period against the one before it.
// ChangePercent is nil when the previous period had zero credits.
type GrowthRate struct {
	PeriodDays      int              `json:"period_days"`
	CurrentCredits  decimal.Decimal  `json:"current_credits"`
	PreviousCredits decimal.Decimal  `json:"previous_credits"`
	ChangePercent   *decimal.Decimal `json:"change_percent"`
}

// UsageSummary aggregates a usage window for the dashboard header.
type UsageSummary struct {
	ComputeID       string           `json:"compute_id"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	TotalCredits    decimal.Decimal  `json:"total_credits"`
	TotalCost       decimal.Decimal  `json:"total_cost"`
	Currency        string           `json:"currency"`
	CustomerCount   int              `json:"customer_count"`
	AvgDailyCredits decimal.Decimal  `json:"avg_daily_credits"`
	TopUsageTypes   []UsageTypeShare `json:"top_usage_types"`
	TopCustomers    []TopCustomer    `json:"top_customers"`
	Growth          *GrowthRate      `json:"growth"`
}

// CustomerBalance is the latest snapshot position for one customer.
type CustomerBalance struct {
	CustomerID string          `json:"customer_id"`
	AsOf       time.Time       `json:"as_of"`
	Currency   string          `json:"currency"`
	Available  decimal.Decimal `json:"available"`
	OnDemand   decimal.Decimal `json:"on_demand"`
}

// BalanceSummary aggregates the latest snapshot per customer.
type BalanceSummary struct {
	ComputeID      string            `json:"compute_id"`
	AsOf           time.Time         `json:"as_of"`
	CustomerCount  int               `json:"customer_count"`
	TotalAvailable decimal.Decimal   `json:"total_available"`
	TotalFreeUsage decimal.Decimal   `json:"total_free_usage"`
	TotalCapacity  decimal.Decimal   `json:"total_capacity"`
	TotalRollover  decimal.Decimal   `json:"total_rollover"`
	TotalOnDemand  decimal.Decimal   `json:"total_on_demand"`
	Customers      []CustomerBalance `json:"customers"`
}

// Alert severities and kinds for the insight feed.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"

	AlertDepletion        = "balance_depletion"
	AlertContractOverage  = "contract_overage"
	AlertUsageGrowth      = "usage_growth"
	AlertOnDemandExposure = "on_demand_exposure"
)

// Alert is one actionable insight derived from the current metrics.
type Alert struct {
	Kind       string          `json:"kind"`
	Severity   string          `json:"severity"`
	CustomerID string          `json:"customer_id,omitempty"`
	Message    string          `json:"message"`
	Value      decimal.Decimal `json:"value"`
}

type AlertsResponse struct {
	ComputeID string    `json:"compute_id"`
	AsOf      time.Time `json:"as_of"`
	Alerts    []Alert   `json:"alerts"`
}

// Service orchestrates warehouse reads, engine computation, and caching.
type Service interface {
	RunRates(ctx context.Context, req RunRatesRequest) (RunRatesResponse, error)
	OverallRunRate(ctx context.Context, req RunRatesRequest) (OverallRunRateResponse, error)
	ContractUsage(ctx context.Context, req ContractUsageRequest) (ContractUsageResponse, error)
	SummarizeUsage(ctx context.Context, req SummaryRequest) (UsageSummary, error)
	SummarizeBalances(ctx context.Context, req SummaryRequest) (BalanceSummary, error)
	Alerts(ctx context.Context, req RunRatesRequest) (AlertsResponse, error)
	Customers(ctx context.Context) ([]string, error)
	UsageTypes(ctx context.Context) ([]string, error)
}

// Cache stores serialized dashboard responses keyed by request parameters.
// Implementations may be process-local or shared; a disabled cache reports
// every lookup as a miss.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}
