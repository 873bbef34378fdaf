package service

import (
	"fmt"

	"github.com/partnerpulse/creditscope/internal/analytics/domain"
)

// Input rows are validated where external data enters the engine. A
// malformed row fails the whole call: it indicates a broken upstream feed,
// not a data-sparsity condition.

func validateUsage(usage []domain.UsageRecord) error {
	for i, row := range usage {
		if row.CustomerID == "" {
			return fmt.Errorf("%w: usage row %d has empty customer_id", domain.ErrMalformedInput, i)
		}
		if row.Date.IsZero() {
			return fmt.Errorf("%w: usage row %d has zero date", domain.ErrMalformedInput, i)
		}
		if row.CreditsUsed.IsNegative() {
			return fmt.Errorf("%w: usage row %d has negative credits_used", domain.ErrMalformedInput, i)
		}
		if row.CostInCurrency.IsNegative() {
			return fmt.Errorf("%w: usage row %d has negative cost_in_currency", domain.ErrMalformedInput, i)
		}
	}
	return nil
}

func validateBalances(snapshots []domain.BalanceSnapshot) error {
	for i, s := range snapshots {
		if s.CustomerID == "" {
			return fmt.Errorf("%w: balance row %d has empty customer_id", domain.ErrMalformedInput, i)
		}
		if s.Date.IsZero() {
			return fmt.Errorf("%w: balance row %d has zero date", domain.ErrMalformedInput, i)
		}
		if s.FreeUsageBalance.IsNegative() || s.CapacityBalance.IsNegative() ||
			s.RolloverBalance.IsNegative() || s.OnDemandBalance.IsNegative() {
			return fmt.Errorf("%w: balance row %d has a negative balance", domain.ErrMalformedInput, i)
		}
	}
	return nil
}

func validateContract(c domain.ContractItem) error {
	if c.ContractID == "" {
		return fmt.Errorf("%w: contract has empty contract_id", domain.ErrMalformedInput)
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("%w: contract %s has zero dates", domain.ErrMalformedInput, c.ContractID)
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("%w: contract %s ends before it starts", domain.ErrInvalidDateRange, c.ContractID)
	}
	if c.ContractedAmount.IsNegative() {
		return fmt.Errorf("%w: contract %s has negative contracted_amount", domain.ErrMalformedInput, c.ContractID)
	}
	if c.RolloverAmount != nil && c.RolloverAmount.IsNegative() {
		return fmt.Errorf("%w: contract %s has negative rollover_amount", domain.ErrMalformedInput, c.ContractID)
	}
	if c.FreeUsageAmount != nil && c.FreeUsageAmount.IsNegative() {
		return fmt.Errorf("%w: contract %s has negative free_usage_amount", domain.ErrMalformedInput, c.ContractID)
	}
	return nil
}
