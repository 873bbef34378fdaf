package main

import (
	"go.uber.org/fx"

	"github.com/partnerpulse/creditscope/internal/analytics"
	"github.com/partnerpulse/creditscope/internal/clock"
	"github.com/partnerpulse/creditscope/internal/config"
	"github.com/partnerpulse/creditscope/internal/dashboard"
	"github.com/partnerpulse/creditscope/internal/demo"
	"github.com/partnerpulse/creditscope/internal/logger"
	"github.com/partnerpulse/creditscope/internal/observability"
	"github.com/partnerpulse/creditscope/internal/server"
	"github.com/partnerpulse/creditscope/internal/warehouse"
	"github.com/partnerpulse/creditscope/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		db.Module,
		clock.Module,
		demo.Module,

		warehouse.Module,
		analytics.Module,
		dashboard.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterAPIRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}
