package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAnalyticsConfigIsValid(t *testing.T) {
	require.NoError(t, validateAnalyticsConfig(DefaultAnalyticsConfig()))
}

func TestValidateAnalyticsConfig(t *testing.T) {
	base := DefaultAnalyticsConfig()

	bad := base
	bad.DefaultWindowDays = 5
	assert.Error(t, validateAnalyticsConfig(bad))

	bad = base
	bad.DefaultRecentDays = 0
	assert.Error(t, validateAnalyticsConfig(bad))

	bad = base
	bad.CacheTTL = -time.Second
	assert.Error(t, validateAnalyticsConfig(bad))

	bad = base
	bad.AlertDepletionDays = -1
	assert.Error(t, validateAnalyticsConfig(bad))

	bad = base
	bad.TopCustomers = 0
	assert.Error(t, validateAnalyticsConfig(bad))
}

func TestStaticHolderServesFixedConfig(t *testing.T) {
	cfg := DefaultAnalyticsConfig()
	cfg.DefaultWindowDays = 14

	holder := NewStaticAnalyticsConfigHolder(cfg)
	assert.Equal(t, 14, holder.Get().DefaultWindowDays)
	assert.Equal(t, 5*time.Minute, holder.Get().CacheTTL)
}
