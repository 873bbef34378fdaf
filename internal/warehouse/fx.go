package warehouse

import (
	"go.uber.org/fx"

	"github.com/partnerpulse/creditscope/internal/warehouse/repository"
)

var Module = fx.Module("warehouse.repository",
	fx.Provide(repository.Provide),
)
