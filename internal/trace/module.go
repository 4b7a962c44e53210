package trace

import (
	"context"

	"github.com/travel-butler/trip-engine/pkg/config"
	"go.uber.org/fx"
)

var Module = fx.Module("trace",
	fx.Provide(func(cfg *config.ServerConfig, lc fx.Lifecycle) *Tracer {
		tracer := NewTracer(cfg.TraceDedupeTTL * 6)
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				tracer.Close()
				return nil
			},
		})
		return tracer
	}),
	fx.Provide(func(cfg *config.ServerConfig) *Deduper {
		return NewDeduper(cfg.TraceDedupeTTL)
	}),
)
