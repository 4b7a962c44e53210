package chat

import "go.uber.org/fx"

var Module = fx.Module("chat",
	fx.Provide(
		fx.Annotate(
			NewAssistant,
			fx.As(new(TurnRequester)),
		),
	),
)
