package invoice

import (
	"github.com/siel/acumulus-sync/internal/invoice/collector"
	"github.com/siel/acumulus-sync/internal/invoice/completor"
	"github.com/siel/acumulus-sync/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(collector.New),
	fx.Provide(completor.New),
	fx.Provide(service.NewService),
)
