// Package domain contains the input and derived record types for the
// metric-derivation engine. All types are immutable value records; the
// engine never mutates its inputs and derived records carry no identity
// beyond the keys and window that produced them.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// UsageRecord is one day of metered consumption for a customer and usage
// type, denominated in both credits and contract currency. Date is a
// calendar day (UTC midnight), never a timestamp.
type UsageRecord struct {
	CustomerID     string          `json:"customer_id"`
	Date           time.Time       `json:"date"`
	UsageType      string          `json:"usage_type"`
	CreditsUsed    decimal.Decimal `json:"credits_used"`
	CostInCurrency decimal.Decimal `json:"cost_in_currency"`
	Currency       string          `json:"currency"`
}

// BalanceSnapshot is the remaining balance for a customer on a calendar
// day, split by balance source. OnDemandBalance represents already-incurred
// on-demand charges and is excluded from available credit.
type BalanceSnapshot struct {
	CustomerID       string          `json:"customer_id"`
	Date             time.Time       `json:"date"`
	FreeUsageBalance decimal.Decimal `json:"free_usage_balance"`
	CapacityBalance  decimal.Decimal `json:"capacity_balance"`
	RolloverBalance  decimal.Decimal `json:"rollover_balance"`
	OnDemandBalance  decimal.Decimal `json:"on_demand_balance"`
}

// Available returns the spendable portion of the snapshot: free usage plus
// capacity plus rollover balances.
func (b BalanceSnapshot) Available() decimal.Decimal {
	return b.FreeUsageBalance.Add(b.CapacityBalance).Add(b.RolloverBalance)
}

// ContractItem is a single purchased capacity term. Rollover and free-usage
// amounts are nullable upstream and default to zero.
type ContractItem struct {
	CustomerID       string           `json:"customer_id"`
	ContractID       string           `json:"contract_id"`
	StartDate        time.Time        `json:"start_date"`
	EndDate          time.Time        `json:"end_date"`
	ContractedAmount decimal.Decimal  `json:"contracted_amount"`
	RolloverAmount   *decimal.Decimal `json:"rollover_amount"`
	FreeUsageAmount  *decimal.Decimal `json:"free_usage_amount"`
	Currency         string           `json:"currency"`
}

// Capacity returns contracted + rollover + free usage amounts.
func (c ContractItem) Capacity() decimal.Decimal {
	capacity := c.ContractedAmount
	if c.RolloverAmount != nil {
		capacity = capacity.Add(*c.RolloverAmount)
	}
	if c.FreeUsageAmount != nil {
		capacity = capacity.Add(*c.FreeUsageAmount)
	}
	return capacity
}

// RunRateRecord is the derived per-customer consumption profile over a
// trailing window. CurrentBalance is nil when the customer has no balance
// snapshot at or before the as-of date.
type RunRateRecord struct {
	CustomerID         string           `json:"customer_id"`
	DailyCreditRate    decimal.Decimal  `json:"daily_credit_rate"`
	DailyCostRate      decimal.Decimal  `json:"daily_cost_rate"`
	WeeklyProjection   decimal.Decimal  `json:"weekly_projection"`
	MonthlyProjection  decimal.Decimal  `json:"monthly_projection"`
	CurrentBalance     *decimal.Decimal `json:"current_balance"`
	DaysUntilDepletion Days             `json:"days_until_depletion"`
	UrgencyTier        UrgencyTier      `json:"urgency_tier"`
}

// OverallRunRate collapses the per-customer calculation into a single
// aggregate record across every customer active in the window.
type OverallRunRate struct {
	WindowDays         int              `json:"window_days"`
	Customers          int              `json:"customers"`
	DailyCreditRate    decimal.Decimal  `json:"daily_credit_rate"`
	DailyCostRate      decimal.Decimal  `json:"daily_cost_rate"`
	WeeklyProjection   decimal.Decimal  `json:"weekly_projection"`
	MonthlyProjection  decimal.Decimal  `json:"monthly_projection"`
	CurrentBalance     *decimal.Decimal `json:"current_balance"`
	DaysUntilDepletion Days             `json:"days_until_depletion"`
	UrgencyTier        UrgencyTier      `json:"urgency_tier"`
}

// ContractUsageRecord is the derived consumption position against one
// contract term. All amounts are in the contract currency.
type ContractUsageRecord struct {
	ContractID         string          `json:"contract_id"`
	CustomerID         string          `json:"customer_id"`
	Currency           string          `json:"currency"`
	CapacityPurchased  decimal.Decimal `json:"capacity_purchased"`
	TotalUsed          decimal.Decimal `json:"total_used"`
	Overage            decimal.Decimal `json:"overage"`
	UsedPercent        decimal.Decimal `json:"used_percent"`
	RemainingCapacity  decimal.Decimal `json:"remaining_capacity"`
	DailyRunRate       decimal.Decimal `json:"daily_run_rate"`
	DaysUntilOverage   Days            `json:"days_until_overage"`
	AnnualRunRate      decimal.Decimal `json:"annual_run_rate"`
	RenewalRecommended bool            `json:"renewal_recommended"`
}

// RunRateRequest carries the inputs for the per-customer and overall run
// rate calculations. AsOf zero means "latest usage date in the input".
type RunRateRequest struct {
	Usage      []UsageRecord
	Balances   []BalanceSnapshot
	WindowDays int
	AsOf       time.Time
}

// ContractUsageRequest carries the inputs for the contract usage and
// overage projection. Usage should already be scoped to the contract's
// customer; the engine applies the contract date bounds itself.
type ContractUsageRequest struct {
	Contract         ContractItem
	Usage            []UsageRecord
	RecentWindowDays int
	AsOf             time.Time
}

// Engine derives analytics from raw warehouse records. Implementations are
// stateless and safe for concurrent use; every call recomputes from the
// full input it is given.
type Engine interface {
	RunRateByCustomer(ctx context.Context, req RunRateRequest) ([]RunRateRecord, error)
	OverallRunRate(ctx context.Context, req RunRateRequest) (*OverallRunRate, error)
	ContractUsage(ctx context.Context, req ContractUsageRequest) (*ContractUsageRecord, error)
}

// Supported trailing-window lengths for run rate calculations.
const (
	DefaultRunRateWindowDays = 7
	DefaultRecentWindowDays  = 30
)

// RunRateWindows lists the supported values for RunRateRequest.WindowDays.
var RunRateWindows = []int{3, 7, 14, 30}

// ValidRunRateWindow reports whether n is a supported lookback length.
func ValidRunRateWindow(n int) bool {
	for _, w := range RunRateWindows {
		if n == w {
			return true
		}
	}
	return false
}

var (
	// ErrInsufficientData means the requested window contains no usage rows
	// at all. It is recoverable: callers surface "not enough data" rather
	// than failing. A customer whose usage sums to zero is not insufficient
	// data - those rows still exist.
	ErrInsufficientData = errors.New("insufficient_data")

	// ErrInvalidWindow means WindowDays is not one of RunRateWindows, or a
	// recent-window length is not positive.
	ErrInvalidWindow = errors.New("invalid_window")

	// ErrInvalidDateRange means a contract or query range is inverted.
	ErrInvalidDateRange = errors.New("invalid_date_range")

	// ErrMalformedInput means an input row violates the upstream contract
	// (negative amount, zero date). The whole call fails; this is a broken
	// feed, not data sparsity.
	ErrMalformedInput = errors.New("malformed_input")
)
