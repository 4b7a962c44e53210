package capability

import (
	"go.uber.org/fx"
)

var Module = fx.Module("capability",
	fx.Provide(NewGatewayInvoker),
	fx.Provide(func(invoker *GatewayInvoker) Invoker { return invoker }),
	fx.Provide(NewCatalog),
)
