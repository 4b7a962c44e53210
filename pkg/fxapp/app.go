package fxapp

import (
	"log"

	bookinginfra "github.com/travel-butler/trip-engine/internal/booking/infrastructure"
	"github.com/travel-butler/trip-engine/internal/capability"
	"github.com/travel-butler/trip-engine/internal/chat"
	"github.com/travel-butler/trip-engine/internal/engine"
	"github.com/travel-butler/trip-engine/internal/export"
	"github.com/travel-butler/trip-engine/internal/gateway"
	planinfra "github.com/travel-butler/trip-engine/internal/plan/infrastructure"
	"github.com/travel-butler/trip-engine/internal/server"
	"github.com/travel-butler/trip-engine/internal/server-plugins/itinerary"
	"github.com/travel-butler/trip-engine/internal/server-plugins/notion"
	"github.com/travel-butler/trip-engine/internal/server-plugins/wallet"
	"github.com/travel-butler/trip-engine/internal/shared/metrics"
	"github.com/travel-butler/trip-engine/internal/trace"
	"github.com/travel-butler/trip-engine/pkg/config"
	"github.com/travel-butler/trip-engine/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func New() *fx.App {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Default to a verbose logger for debug level
	var fxLogger fx.Option = fx.WithLogger(
		func() fxevent.Logger {
			return &fxevent.ConsoleLogger{W: log.Writer()}
		},
	)

	if cfg.LogLevel != "debug" {
		fxLogger = fx.NopLogger
	}

	return fx.New(
		fxLogger,
		config.Module,
		logger.Module,
		metrics.Module,
		trace.Module,
		gateway.Module,
		capability.Module,
		planinfra.Module,
		bookinginfra.Module,
		chat.Module,
		export.Module,
		engine.Module,
		server.Module,
		itinerary.Module,
		wallet.Module,
		notion.Module,
	)
}
