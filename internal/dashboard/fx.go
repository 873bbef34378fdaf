package dashboard

import (
	"go.uber.org/fx"

	"github.com/partnerpulse/creditscope/internal/dashboard/cache"
	"github.com/partnerpulse/creditscope/internal/dashboard/service"
)

// Module wires the dashboard orchestration service and its result cache.
var Module = fx.Module("dashboard",
	fx.Provide(
		cache.New,
		service.NewService,
	),
)
