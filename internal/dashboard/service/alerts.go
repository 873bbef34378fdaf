package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	analyticsdomain "github.com/partnerpulse/creditscope/internal/analytics/domain"
	"github.com/partnerpulse/creditscope/internal/dashboard/domain"
	"github.com/partnerpulse/creditscope/internal/format"
)

// severityRank orders the alert feed: critical first, info last.
var severityRank = map[string]int{
	domain.SeverityCritical: 0,
	domain.SeverityWarning:  1,
	domain.SeverityInfo:     2,
}

// Alerts derives the insight feed from the current run rates, contract
// positions, balances, and growth. Each input that lacks data is skipped
// rather than failing the feed; an empty warehouse still yields an empty,
// valid response.
func (s *Service) Alerts(ctx context.Context, req domain.RunRatesRequest) (domain.AlertsResponse, error) {
	cfg := s.holder.Get()
	alerts := []domain.Alert{}

	runRates, err := s.RunRates(ctx, req)
	if err != nil && !errors.Is(err, analyticsdomain.ErrInsufficientData) {
		return domain.AlertsResponse{}, err
	}
	for _, record := range runRates.Records {
		if !record.DaysUntilDepletion.Defined() {
			continue
		}
		days, _ := record.DaysUntilDepletion.Value()
		if days.GreaterThanOrEqual(decimal.NewFromInt(int64(cfg.AlertDepletionDays))) {
			continue
		}
		severity := domain.SeverityWarning
		if record.UrgencyTier == analyticsdomain.UrgencyCritical {
			severity = domain.SeverityCritical
		}
		alerts = append(alerts, domain.Alert{
			Kind:       domain.AlertDepletion,
			Severity:   severity,
			CustomerID: record.CustomerID,
			Message:    fmt.Sprintf("balance depletes in %s days at the current run rate", days.Round(1)),
			Value:      days,
		})
	}

	contracts, err := s.ContractUsage(ctx, domain.ContractUsageRequest{
		AsOf:       req.AsOf,
		CustomerID: req.CustomerID,
	})
	if err != nil && !errors.Is(err, analyticsdomain.ErrInsufficientData) {
		return domain.AlertsResponse{}, err
	}
	overagePct := decimal.NewFromFloat(cfg.AlertOverageUsedPct)
	for _, record := range contracts.Records {
		switch {
		case record.Overage.IsPositive():
			alerts = append(alerts, domain.Alert{
				Kind:       domain.AlertContractOverage,
				Severity:   domain.SeverityCritical,
				CustomerID: record.CustomerID,
				Message:    fmt.Sprintf("contract %s is %s over its purchased capacity", record.ContractID, format.FormatCurrency(record.Overage, record.Currency)),
				Value:      record.Overage,
			})
		case record.UsedPercent.GreaterThanOrEqual(overagePct):
			alerts = append(alerts, domain.Alert{
				Kind:       domain.AlertContractOverage,
				Severity:   domain.SeverityWarning,
				CustomerID: record.CustomerID,
				Message:    fmt.Sprintf("contract %s has used %s%% of its purchased capacity", record.ContractID, record.UsedPercent.Round(1)),
				Value:      record.UsedPercent,
			})
		}
	}

	summary, err := s.SummarizeUsage(ctx, domain.SummaryRequest{
		EndDate:    req.AsOf,
		CustomerID: req.CustomerID,
	})
	if err != nil && !errors.Is(err, analyticsdomain.ErrInsufficientData) {
		return domain.AlertsResponse{}, err
	}
	if summary.Growth != nil && summary.Growth.ChangePercent != nil {
		change := *summary.Growth.ChangePercent
		if change.GreaterThanOrEqual(decimal.NewFromFloat(cfg.AlertGrowthPct)) {
			alerts = append(alerts, domain.Alert{
				Kind:     domain.AlertUsageGrowth,
				Severity: domain.SeverityWarning,
				Message: fmt.Sprintf("usage grew %s%% over the last %d days (%s vs %s credits)",
					change.Round(1), summary.Growth.PeriodDays,
					format.FormatCredits(summary.Growth.CurrentCredits),
					format.FormatCredits(summary.Growth.PreviousCredits)),
				Value: change,
			})
		}
	}

	balances, err := s.SummarizeBalances(ctx, domain.SummaryRequest{
		EndDate:    req.AsOf,
		CustomerID: req.CustomerID,
	})
	if err != nil && !errors.Is(err, analyticsdomain.ErrInsufficientData) {
		return domain.AlertsResponse{}, err
	}
	for _, balance := range balances.Customers {
		if !balance.OnDemand.IsPositive() {
			continue
		}
		alerts = append(alerts, domain.Alert{
			Kind:       domain.AlertOnDemandExposure,
			Severity:   domain.SeverityInfo,
			CustomerID: balance.CustomerID,
			Message:    fmt.Sprintf("%s has incurred %s in on-demand charges", balance.CustomerID, format.FormatCurrency(balance.OnDemand, balance.Currency)),
			Value:      balance.OnDemand,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if severityRank[alerts[i].Severity] != severityRank[alerts[j].Severity] {
			return severityRank[alerts[i].Severity] < severityRank[alerts[j].Severity]
		}
		if alerts[i].Kind != alerts[j].Kind {
			return alerts[i].Kind < alerts[j].Kind
		}
		return alerts[i].CustomerID < alerts[j].CustomerID
	})

	asOf := dateOnly(req.AsOf)
	if req.AsOf.IsZero() {
		asOf = s.today()
	}
	return domain.AlertsResponse{
		ComputeID: ulid.Make().String(),
		AsOf:      asOf,
		Alerts:    alerts,
	}, nil
}
