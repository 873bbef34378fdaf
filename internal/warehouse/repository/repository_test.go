package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/partnerpulse/creditscope/internal/warehouse/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.UsageRecord{},
		&domain.BalanceSnapshot{},
		&domain.ContractItem{},
	))
	return db
}

func seedUsage(t *testing.T, db *gorm.DB, customer string, date time.Time, usageType, credits, cost string) {
	t.Helper()
	row := domain.UsageRecord{
		CustomerID:     customer,
		UsageDate:      datatypes.Date(date),
		UsageType:      usageType,
		Currency:       "USD",
		CreditsUsed:    decimal.RequireFromString(credits),
		CostInCurrency: decimal.RequireFromString(cost),
	}
	require.NoError(t, db.Create(&row).Error)
}

func TestListUsage_FiltersAndOrder(t *testing.T) {
	db := newTestDB(t)
	repo := Provide(db)
	ctx := context.Background()

	jan10 := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	seedUsage(t, db, "acme", jan10, "compute", "100", "300")
	seedUsage(t, db, "acme", jan10, "storage", "10", "30")
	seedUsage(t, db, "acme", jan10.AddDate(0, 0, -20), "compute", "999", "999")
	seedUsage(t, db, "globex", jan10, "compute", "50", "150")

	rows, err := repo.ListUsage(ctx, domain.UsageFilter{
		StartDate:  jan10.AddDate(0, 0, -6),
		EndDate:    jan10,
		CustomerID: "acme",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "compute", rows[0].UsageType)
	assert.Equal(t, "storage", rows[1].UsageType)

	typed, err := repo.ListUsage(ctx, domain.UsageFilter{
		StartDate:  jan10.AddDate(0, 0, -6),
		EndDate:    jan10,
		UsageTypes: []string{"compute"},
	})
	require.NoError(t, err)
	require.Len(t, typed, 2)
	for _, row := range typed {
		assert.Equal(t, "compute", row.UsageType)
	}
}

func TestListUsage_RejectsInvertedRange(t *testing.T) {
	repo := Provide(newTestDB(t))

	_, err := repo.ListUsage(context.Background(), domain.UsageFilter{
		StartDate: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = repo.ListUsage(context.Background(), domain.UsageFilter{})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestListBalances(t *testing.T) {
	db := newTestDB(t)
	repo := Provide(db)

	jan10 := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		row := domain.BalanceSnapshot{
			CustomerID:       "acme",
			BalanceDate:      datatypes.Date(jan10.AddDate(0, 0, -i)),
			Currency:         "USD",
			FreeUsageBalance: decimal.NewFromInt(100),
			CapacityBalance:  decimal.NewFromInt(int64(5000 - i*100)),
			RolloverBalance:  decimal.Zero,
			OnDemandBalance:  decimal.Zero,
		}
		require.NoError(t, db.Create(&row).Error)
	}

	rows, err := repo.ListBalances(context.Background(), domain.BalanceFilter{
		StartDate:  jan10.AddDate(0, 0, -1),
		EndDate:    jan10,
		CustomerID: "acme",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Most recent first.
	assert.True(t, rows[0].CapacityBalance.Equal(decimal.NewFromInt(5000)))
}

func TestListContracts_ActiveOn(t *testing.T) {
	db := newTestDB(t)
	repo := Provide(db)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	expired := domain.ContractItem{
		CustomerID:       "acme",
		ContractID:       "C-old",
		StartDate:        datatypes.Date(start),
		EndDate:          datatypes.Date(start.AddDate(1, 0, 0)),
		ContractedAmount: decimal.NewFromInt(1000),
		Currency:         "USD",
	}
	active := domain.ContractItem{
		CustomerID:       "acme",
		ContractID:       "C-new",
		StartDate:        datatypes.Date(start.AddDate(1, 0, 1)),
		EndDate:          datatypes.Date(start.AddDate(2, 0, 0)),
		ContractedAmount: decimal.NewFromInt(2000),
		Currency:         "USD",
	}
	require.NoError(t, db.Create(&expired).Error)
	require.NoError(t, db.Create(&active).Error)

	rows, err := repo.ListContracts(context.Background(), domain.ContractFilter{
		CustomerID: "acme",
		ActiveOn:   start.AddDate(1, 6, 0),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "C-new", rows[0].ContractID)
}

func TestListCustomersAndUsageTypes(t *testing.T) {
	db := newTestDB(t)
	repo := Provide(db)
	ctx := context.Background()

	jan10 := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	seedUsage(t, db, "globex", jan10, "compute", "1", "1")
	seedUsage(t, db, "acme", jan10, "storage", "1", "1")
	seedUsage(t, db, "acme", jan10, "compute", "1", "1")

	customers, err := repo.ListCustomers(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "globex"}, customers)

	types, err := repo.ListUsageTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"compute", "storage"}, types)
}

func TestUsageRecord_ToAnalytics(t *testing.T) {
	jan10 := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	row := domain.UsageRecord{
		CustomerID:     "acme",
		UsageDate:      datatypes.Date(jan10),
		UsageType:      "compute",
		Currency:       "USD",
		CreditsUsed:    decimal.NewFromInt(100),
		CostInCurrency: decimal.NewFromInt(300),
	}
	mapped := row.ToAnalytics()
	assert.Equal(t, "acme", mapped.CustomerID)
	assert.True(t, mapped.Date.Equal(jan10))
	assert.True(t, mapped.CreditsUsed.Equal(decimal.NewFromInt(100)))
}
