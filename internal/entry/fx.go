package entry

import (
	"github.com/siel/acumulus-sync/internal/entry/repository"
	"github.com/siel/acumulus-sync/internal/entry/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entry.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
