package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/partnerpulse/creditscope/internal/warehouse/domain"
)

// maxRows caps a single view read. The upstream views hold one row per
// customer per day per usage type, so a year of a large book stays well
// under this.
const maxRows = 100000

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) ListUsage(ctx context.Context, filter domain.UsageFilter) ([]domain.UsageRecord, error) {
	if err := validateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > maxRows {
		limit = maxRows
	}

	stmt := r.db.WithContext(ctx).
		Model(&domain.UsageRecord{}).
		Where("usage_date BETWEEN ? AND ?", dateOnly(filter.StartDate), dateOnly(filter.EndDate))
	if filter.CustomerID != "" {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if len(filter.UsageTypes) > 0 {
		stmt = stmt.Where("usage_type IN ?", filter.UsageTypes)
	}

	var rows []domain.UsageRecord
	err := stmt.
		Order("usage_date DESC, customer_id ASC, usage_type ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repo) ListBalances(ctx context.Context, filter domain.BalanceFilter) ([]domain.BalanceSnapshot, error) {
	if err := validateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, err
	}

	stmt := r.db.WithContext(ctx).
		Model(&domain.BalanceSnapshot{}).
		Where("balance_date BETWEEN ? AND ?", dateOnly(filter.StartDate), dateOnly(filter.EndDate))
	if filter.CustomerID != "" {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}

	var rows []domain.BalanceSnapshot
	err := stmt.
		Order("balance_date DESC, customer_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repo) ListContracts(ctx context.Context, filter domain.ContractFilter) ([]domain.ContractItem, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.ContractItem{})
	if filter.CustomerID != "" {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if !filter.ActiveOn.IsZero() {
		stmt = stmt.Where("end_date >= ?", dateOnly(filter.ActiveOn))
	}

	var rows []domain.ContractItem
	err := stmt.
		Order("customer_id ASC, start_date DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repo) ListCustomers(ctx context.Context, since time.Time) ([]string, error) {
	stmt := r.db.WithContext(ctx).
		Model(&domain.UsageRecord{}).
		Distinct("customer_id")
	if !since.IsZero() {
		stmt = stmt.Where("usage_date >= ?", dateOnly(since))
	}

	var customers []string
	err := stmt.Order("customer_id ASC").Pluck("customer_id", &customers).Error
	return customers, err
}

func (r *repo) ListUsageTypes(ctx context.Context) ([]string, error) {
	var types []string
	err := r.db.WithContext(ctx).
		Model(&domain.UsageRecord{}).
		Distinct("usage_type").
		Order("usage_type ASC").
		Pluck("usage_type", &types).Error
	return types, err
}

func validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return domain.ErrInvalidDateRange
	}
	if end.Before(start) {
		return domain.ErrInvalidDateRange
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
