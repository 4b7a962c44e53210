package infrastructure

import (
	"github.com/travel-butler/trip-engine/internal/booking"
	"go.uber.org/fx"
)

var Module = fx.Module("booking",
	fx.Provide(
		fx.Annotate(
			NewInMemoryBookingRepository,
			fx.As(new(booking.Repository)),
		),
	),
)
