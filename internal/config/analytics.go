package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AnalyticsConfig tunes the derived-metric surface without a redeploy.
// Thresholds here feed the alert feed only; the urgency tiers reported on
// run-rate records themselves are fixed.
type AnalyticsConfig struct {
	DefaultWindowDays   int           `mapstructure:"defaultWindowDays"`
	DefaultRecentDays   int           `mapstructure:"defaultRecentDays"`
	CacheTTL            time.Duration `mapstructure:"cacheTTL"`
	AlertDepletionDays  int           `mapstructure:"alertDepletionDays"`
	AlertOverageUsedPct float64       `mapstructure:"alertOverageUsedPct"`
	AlertGrowthPct      float64       `mapstructure:"alertGrowthPct"`
	GrowthPeriodDays    int           `mapstructure:"growthPeriodDays"`
	TopCustomers        int           `mapstructure:"topCustomers"`
}

func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		DefaultWindowDays:   7,
		DefaultRecentDays:   30,
		CacheTTL:            5 * time.Minute,
		AlertDepletionDays:  30,
		AlertOverageUsedPct: 80,
		AlertGrowthPct:      50,
		GrowthPeriodDays:    7,
		TopCustomers:        10,
	}
}

// AnalyticsConfigHolder serves the current config to readers while the
// backing file may be rewritten underneath it.
type AnalyticsConfigHolder struct {
	current atomic.Value // holds AnalyticsConfig
}

func NewAnalyticsConfigHolder() (*AnalyticsConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("analytics")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/creditscope/config") // Volume-mounted config
	v.AddConfigPath("/etc/creditscope")            // System config
	v.AddConfigPath(".")                           // Current directory (dev mode)

	v.SetEnvPrefix("CREDITSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultAnalyticsConfig()
	v.SetDefault("analytics.defaultWindowDays", defaults.DefaultWindowDays)
	v.SetDefault("analytics.defaultRecentDays", defaults.DefaultRecentDays)
	v.SetDefault("analytics.cacheTTL", defaults.CacheTTL)
	v.SetDefault("analytics.alertDepletionDays", defaults.AlertDepletionDays)
	v.SetDefault("analytics.alertOverageUsedPct", defaults.AlertOverageUsedPct)
	v.SetDefault("analytics.alertGrowthPct", defaults.AlertGrowthPct)
	v.SetDefault("analytics.growthPeriodDays", defaults.GrowthPeriodDays)
	v.SetDefault("analytics.topCustomers", defaults.TopCustomers)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg AnalyticsConfig
	if err := v.UnmarshalKey("analytics", &cfg); err != nil {
		return nil, err
	}
	if err := validateAnalyticsConfig(cfg); err != nil {
		return nil, err
	}

	holder := &AnalyticsConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated AnalyticsConfig
		if err := v.UnmarshalKey("analytics", &updated); err != nil {
			log.Printf("[analytics-config] reload failed: %v", err)
			return
		}
		if err := validateAnalyticsConfig(updated); err != nil {
			log.Printf("[analytics-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[analytics-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticAnalyticsConfigHolder wraps a fixed config for callers that do
// not watch a backing file.
func NewStaticAnalyticsConfigHolder(cfg AnalyticsConfig) *AnalyticsConfigHolder {
	holder := &AnalyticsConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *AnalyticsConfigHolder) Get() AnalyticsConfig {
	return h.current.Load().(AnalyticsConfig)
}

func validateAnalyticsConfig(cfg AnalyticsConfig) error {
	switch cfg.DefaultWindowDays {
	case 3, 7, 14, 30:
	default:
		return errors.New("analytics.defaultWindowDays must be one of 3, 7, 14, 30")
	}
	if cfg.DefaultRecentDays <= 0 {
		return errors.New("analytics.defaultRecentDays must be positive")
	}
	if cfg.CacheTTL < 0 {
		return errors.New("analytics.cacheTTL cannot be negative")
	}
	if cfg.AlertDepletionDays <= 0 {
		return errors.New("analytics.alertDepletionDays must be positive")
	}
	if cfg.TopCustomers <= 0 {
		return errors.New("analytics.topCustomers must be positive")
	}
	return nil
}
