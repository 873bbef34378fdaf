package config

import "go.uber.org/fx"

// Module wires the environment config and the hot-reloadable analytics config.
var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewAnalyticsConfigHolder,
	),
)
