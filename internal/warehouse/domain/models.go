// Package domain contains read models for the billing warehouse views.
// Creditscope never writes these tables; they are maintained by the
// upstream billing pipeline and re-fetched per query.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	analyticsdomain "github.com/partnerpulse/creditscope/internal/analytics/domain"
)

// UsageRecord mirrors one row of the daily usage view. Multiple rows exist
// per customer per day, one per usage type.
type UsageRecord struct {
	OrganizationName string          `gorm:"column:organization_name" json:"organization_name"`
	CustomerID       string          `gorm:"column:customer_id;index" json:"customer_id"`
	ContractNumber   string          `gorm:"column:contract_number" json:"contract_number"`
	AccountName      string          `gorm:"column:account_name" json:"account_name"`
	AccountLocator   string          `gorm:"column:account_locator" json:"account_locator"`
	Region           string          `gorm:"column:region" json:"region"`
	ServiceLevel     string          `gorm:"column:service_level" json:"service_level"`
	UsageDate        datatypes.Date  `gorm:"column:usage_date;index" json:"usage_date"`
	UsageType        string          `gorm:"column:usage_type" json:"usage_type"`
	Currency         string          `gorm:"column:currency" json:"currency"`
	CreditsUsed      decimal.Decimal `gorm:"column:credits_used;type:decimal(20,4)" json:"credits_used"`
	CostInCurrency   decimal.Decimal `gorm:"column:cost_in_currency;type:decimal(20,2)" json:"cost_in_currency"`
	BalanceSource    string          `gorm:"column:balance_source" json:"balance_source"`
}

func (UsageRecord) TableName() string { return "partner_usage_daily" }

// ToAnalytics maps the view row onto the engine's input shape.
func (u UsageRecord) ToAnalytics() analyticsdomain.UsageRecord {
	return analyticsdomain.UsageRecord{
		CustomerID:     u.CustomerID,
		Date:           time.Time(u.UsageDate),
		UsageType:      u.UsageType,
		CreditsUsed:    u.CreditsUsed,
		CostInCurrency: u.CostInCurrency,
		Currency:       u.Currency,
	}
}

// BalanceSnapshot mirrors one row of the daily remaining-balance view. One
// snapshot exists per customer per day.
type BalanceSnapshot struct {
	OrganizationName string          `gorm:"column:organization_name" json:"organization_name"`
	CustomerID       string          `gorm:"column:customer_id;index" json:"customer_id"`
	ContractNumber   string          `gorm:"column:contract_number" json:"contract_number"`
	BalanceDate      datatypes.Date  `gorm:"column:balance_date;index" json:"balance_date"`
	Currency         string          `gorm:"column:currency" json:"currency"`
	FreeUsageBalance decimal.Decimal `gorm:"column:free_usage_balance;type:decimal(20,2)" json:"free_usage_balance"`
	CapacityBalance  decimal.Decimal `gorm:"column:capacity_balance;type:decimal(20,2)" json:"capacity_balance"`
	RolloverBalance  decimal.Decimal `gorm:"column:rollover_balance;type:decimal(20,2)" json:"rollover_balance"`
	OnDemandBalance  decimal.Decimal `gorm:"column:on_demand_balance;type:decimal(20,2)" json:"on_demand_balance"`
}

func (BalanceSnapshot) TableName() string { return "partner_balance_daily" }

func (b BalanceSnapshot) ToAnalytics() analyticsdomain.BalanceSnapshot {
	return analyticsdomain.BalanceSnapshot{
		CustomerID:       b.CustomerID,
		Date:             time.Time(b.BalanceDate),
		FreeUsageBalance: b.FreeUsageBalance,
		CapacityBalance:  b.CapacityBalance,
		RolloverBalance:  b.RolloverBalance,
		OnDemandBalance:  b.OnDemandBalance,
	}
}

// ContractItem mirrors one row of the contract-items view. Rollover and
// free-usage amounts are nullable upstream.
type ContractItem struct {
	CustomerID       string           `gorm:"column:customer_id;index" json:"customer_id"`
	ContractID       string           `gorm:"column:contract_id;uniqueIndex" json:"contract_id"`
	StartDate        datatypes.Date   `gorm:"column:start_date" json:"start_date"`
	EndDate          datatypes.Date   `gorm:"column:end_date;index" json:"end_date"`
	ContractedAmount decimal.Decimal  `gorm:"column:contracted_amount;type:decimal(20,2)" json:"contracted_amount"`
	RolloverAmount   *decimal.Decimal `gorm:"column:rollover_amount;type:decimal(20,2)" json:"rollover_amount"`
	FreeUsageAmount  *decimal.Decimal `gorm:"column:free_usage_amount;type:decimal(20,2)" json:"free_usage_amount"`
	Currency         string           `gorm:"column:currency" json:"currency"`
}

func (ContractItem) TableName() string { return "partner_contract_items" }

func (c ContractItem) ToAnalytics() analyticsdomain.ContractItem {
	return analyticsdomain.ContractItem{
		CustomerID:       c.CustomerID,
		ContractID:       c.ContractID,
		StartDate:        time.Time(c.StartDate),
		EndDate:          time.Time(c.EndDate),
		ContractedAmount: c.ContractedAmount,
		RolloverAmount:   c.RolloverAmount,
		FreeUsageAmount:  c.FreeUsageAmount,
		Currency:         c.Currency,
	}
}

// UsageFilter bounds a usage view read. StartDate/EndDate are inclusive
// calendar days; a zero Limit applies the repository's row cap.
type UsageFilter struct {
	StartDate  time.Time
	EndDate    time.Time
	CustomerID string
	UsageTypes []string
	Limit      int
}

// BalanceFilter bounds a balance view read.
type BalanceFilter struct {
	StartDate  time.Time
	EndDate    time.Time
	CustomerID string
}

// ContractFilter bounds a contract view read. ActiveOn keeps contracts
// whose end date is at or after the given day.
type ContractFilter struct {
	CustomerID string
	ActiveOn   time.Time
}

// Repository reads the warehouse views. Implementations are read-only.
type Repository interface {
	ListUsage(ctx context.Context, filter UsageFilter) ([]UsageRecord, error)
	ListBalances(ctx context.Context, filter BalanceFilter) ([]BalanceSnapshot, error)
	ListContracts(ctx context.Context, filter ContractFilter) ([]ContractItem, error)
	ListCustomers(ctx context.Context, since time.Time) ([]string, error)
	ListUsageTypes(ctx context.Context) ([]string, error)
}

var (
	ErrInvalidDateRange = errors.New("invalid_date_range")
)
