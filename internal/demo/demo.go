// Package demo seeds the warehouse views with a deterministic synthetic
// book of business so the dashboard can be explored without a live
// warehouse connection.
package demo

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	warehousedomain "github.com/partnerpulse/creditscope/internal/warehouse/domain"
	pkgdb "github.com/partnerpulse/creditscope/pkg/db"
)

const (
	historyDays = 90

	// Fixed seed keeps every run of the generator identical.
	randSeed = 42
)

// customerProfile shapes one synthetic customer's consumption curve.
type customerProfile struct {
	CustomerID   string
	Organization string
	ServiceLevel string
	Region       string
	DailyBase    float64 // average credits per day at the start of history
	Trend        float64 // daily multiplicative growth, 1.0 = flat
	Noise        float64 // relative jitter applied per day
	Contracted   float64
	Rollover     float64
	FreeUsage    float64
	TermMonths   int
}

var profiles = []customerProfile{
	{"acme", "Acme Corp", "Enterprise", "us-east-1", 180, 1.004, 0.10, 60000, 5000, 1000, 12},
	{"globex", "Globex", "Business", "eu-west-1", 95, 1.001, 0.15, 40000, 0, 500, 12},
	{"initech", "Initech", "Business", "us-west-2", 60, 0.998, 0.12, 25000, 2000, 0, 6},
	{"umbrella", "Umbrella", "Enterprise", "ap-southeast-2", 240, 1.007, 0.08, 70000, 8000, 2000, 12},
	{"stark", "Stark Industries", "Standard", "us-east-1", 25, 1.000, 0.20, 9000, 0, 250, 6},
}

// Usage type mix applied to each customer's daily total.
var usageMix = []struct {
	Type  string
	Share float64
}{
	{"compute", 0.62},
	{"storage", 0.21},
	{"data_transfer", 0.11},
	{"serverless", 0.06},
}

const creditPrice = 3.0 // USD per credit in the synthetic book

// Seed migrates the view tables and fills them with the synthetic book.
// It is idempotent: a non-empty usage view leaves the data untouched.
func Seed(db *gorm.DB) error {
	ctx := context.Background()

	err := db.WithContext(ctx).AutoMigrate(
		&warehousedomain.UsageRecord{},
		&warehousedomain.BalanceSnapshot{},
		&warehousedomain.ContractItem{},
	)
	if err != nil {
		return err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&warehousedomain.UsageRecord{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	usage, balances, contracts := Generate(end)

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(contracts, 500).Error; err != nil {
			return err
		}
		if err := tx.CreateInBatches(usage, 500).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(balances, 500).Error
	})
	// Another replica can win the race between the emptiness check and the
	// insert; its contract rows trip the unique index here.
	if pkgdb.IsDuplicateKeyErr(err) {
		return nil
	}
	return err
}

// Generate builds the synthetic rows for a history window ending on end.
// The output is deterministic for a given end date.
func Generate(end time.Time) ([]warehousedomain.UsageRecord, []warehousedomain.BalanceSnapshot, []warehousedomain.ContractItem) {
	rng := rand.New(rand.NewSource(randSeed))
	start := end.AddDate(0, 0, -(historyDays - 1))

	var usage []warehousedomain.UsageRecord
	var balances []warehousedomain.BalanceSnapshot
	var contracts []warehousedomain.ContractItem

	for _, p := range profiles {
		contracts = append(contracts, contractFor(p, start))

		capacity := p.Contracted + p.Rollover + p.FreeUsage
		remaining := capacity

		daily := p.DailyBase
		for d := 0; d < historyDays; d++ {
			day := start.AddDate(0, 0, d)

			total := daily * (1 + p.Noise*(rng.Float64()*2-1))
			if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
				total *= 0.45
			}
			total = math.Max(total, 0)

			for _, mix := range usageMix {
				credits := total * mix.Share
				usage = append(usage, warehousedomain.UsageRecord{
					OrganizationName: p.Organization,
					CustomerID:       p.CustomerID,
					ContractNumber:   p.CustomerID + "-001",
					AccountName:      p.Organization + " Prod",
					AccountLocator:   p.CustomerID + "_prod",
					Region:           p.Region,
					ServiceLevel:     p.ServiceLevel,
					UsageDate:        dateOf(day),
					UsageType:        mix.Type,
					Currency:         "USD",
					CreditsUsed:      dec(credits, 4),
					CostInCurrency:   dec(credits*creditPrice, 2),
					BalanceSource:    "capacity",
				})
			}

			remaining -= total * creditPrice
			balances = append(balances, warehousedomain.BalanceSnapshot{
				OrganizationName: p.Organization,
				CustomerID:       p.CustomerID,
				ContractNumber:   p.CustomerID + "-001",
				BalanceDate:      dateOf(day),
				Currency:         "USD",
				FreeUsageBalance: dec(math.Max(p.FreeUsage-float64(d)*2, 0), 2),
				CapacityBalance:  dec(math.Max(remaining, 0), 2),
				RolloverBalance:  dec(p.Rollover, 2),
				OnDemandBalance:  dec(math.Max(-remaining, 0), 2),
			})

			daily *= p.Trend
		}
	}

	return usage, balances, contracts
}

func contractFor(p customerProfile, historyStart time.Time) warehousedomain.ContractItem {
	// Contracts begin a month before the usage history so every profile is
	// active across the whole window.
	start := historyStart.AddDate(0, -1, 0)
	end := start.AddDate(0, p.TermMonths, 0)

	rollover := dec(p.Rollover, 2)
	freeUsage := dec(p.FreeUsage, 2)

	return warehousedomain.ContractItem{
		CustomerID:       p.CustomerID,
		ContractID:       p.CustomerID + "-001",
		StartDate:        dateOf(start),
		EndDate:          dateOf(end),
		ContractedAmount: dec(p.Contracted, 2),
		RolloverAmount:   &rollover,
		FreeUsageAmount:  &freeUsage,
		Currency:         "USD",
	}
}

func dateOf(t time.Time) datatypes.Date {
	return datatypes.Date(t)
}

func dec(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(places)
}
