// Package clock abstracts wall-clock reads so services that default date
// ranges to "today" stay testable with a pinned time.
package clock

import (
	"time"

	"go.uber.org/fx"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func System() Clock { return systemClock{} }

var Module = fx.Module("clock",
	fx.Provide(System),
)
