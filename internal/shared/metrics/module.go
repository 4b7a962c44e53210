package metrics

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/travel-butler/trip-engine/pkg/config"
	"go.uber.org/fx"
)

var Module = fx.Module("metrics",
	fx.Provide(func() *prometheus.Registry {
		return prometheus.NewRegistry()
	}),
	fx.Provide(func(cfg *config.ServerConfig, reg *prometheus.Registry, logger *slog.Logger) (Collector, error) {
		if !cfg.Metrics.Enabled {
			return NewNoOpCollector(), nil
		}
		collector, err := NewPrometheusCollector(reg)
		if err != nil {
			return nil, err
		}
		logger.Debug("Prometheus metrics collector enabled")
		return collector, nil
	}),
)
