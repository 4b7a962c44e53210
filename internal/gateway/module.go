package gateway

import (
	"os"

	"go.uber.org/fx"
)

var Module = fx.Module("gateway",
	fx.Provide(func() TokenSource {
		return NewStaticTokenSource(os.Getenv("TRIP_ENGINE_GATEWAY_TOKEN"))
	}),
	fx.Provide(NewClient),
)
