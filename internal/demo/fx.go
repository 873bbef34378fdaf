package demo

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/partnerpulse/creditscope/internal/config"
)

// Module seeds the synthetic book on startup when demo data is enabled.
var Module = fx.Module("demo",
	fx.Invoke(func(cfg config.Config, db *gorm.DB, log *zap.Logger) error {
		if !cfg.UseDemoData {
			return nil
		}
		log.Info("seeding demo warehouse data")
		return Seed(db)
	}),
)
