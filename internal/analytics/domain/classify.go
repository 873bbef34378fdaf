package domain

import "github.com/shopspring/decimal"

// UrgencyTier is the coarse classification of how soon depletion occurs.
type UrgencyTier string

const (
	UrgencyCritical UrgencyTier = "critical"
	UrgencyWarning  UrgencyTier = "warning"
	UrgencyHealthy  UrgencyTier = "healthy"
	UrgencyUnknown  UrgencyTier = "unknown"
)

// Classification thresholds. The urgency boundaries are half-open: exactly
// 30 days is warning, exactly 60 days is healthy.
var (
	criticalBelowDays  = decimal.NewFromInt(30)
	healthyFromDays    = decimal.NewFromInt(60)
	renewalUsedPercent = decimal.NewFromInt(80)
	renewalOverageDays = decimal.NewFromInt(30)
)

// UrgencyFor classifies a depletion day count. Infinite depletion (zero
// cost rate) is healthy; an unknown count stays unknown.
func UrgencyFor(days Days) UrgencyTier {
	switch {
	case days.Infinite():
		return UrgencyHealthy
	case days.Unknown():
		return UrgencyUnknown
	}
	v, _ := days.Value()
	switch {
	case v.LessThan(criticalBelowDays):
		return UrgencyCritical
	case v.LessThan(healthyFromDays):
		return UrgencyWarning
	default:
		return UrgencyHealthy
	}
}

// RenewalRecommended reports whether a contract should be flagged for
// renewal conversation: 80% or more of capacity used, or 30 days or fewer
// until overage. Callers wanting different policy thresholds re-derive from
// the raw figures on ContractUsageRecord.
func RenewalRecommended(usedPercent decimal.Decimal, daysUntilOverage Days) bool {
	if usedPercent.GreaterThanOrEqual(renewalUsedPercent) {
		return true
	}
	if v, ok := daysUntilOverage.Value(); ok && v.LessThanOrEqual(renewalOverageDays) {
		return true
	}
	return false
}
