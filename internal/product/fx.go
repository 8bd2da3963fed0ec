package product

import "go.uber.org/fx"

var Module = fx.Module("product.service",
	fx.Provide(NewService),
)
