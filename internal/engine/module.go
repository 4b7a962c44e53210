package engine

import "go.uber.org/fx"

var Module = fx.Module("engine",
	fx.Provide(NewEngine),
)
