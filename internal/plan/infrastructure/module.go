package infrastructure

import (
	"github.com/travel-butler/trip-engine/internal/plan"
	"go.uber.org/fx"
)

var Module = fx.Module("plan",
	fx.Provide(
		fx.Annotate(
			NewInMemoryPlanRepository,
			fx.As(new(plan.Repository)),
		),
	),
)
