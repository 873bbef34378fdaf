package analytics

import (
	"go.uber.org/fx"

	"github.com/partnerpulse/creditscope/internal/analytics/service"
)

var Module = fx.Module("analytics.engine",
	fx.Provide(service.NewEngine),
)
