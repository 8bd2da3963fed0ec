package acumulus

import "go.uber.org/fx"

var Module = fx.Module("acumulus.client",
	fx.Provide(NewClient),
)
