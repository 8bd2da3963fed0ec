package woocommerce

import (
	"context"

	"github.com/siel/acumulus-sync/internal/config"
	"github.com/siel/acumulus-sync/internal/source"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("woocommerce.adapter",
	fx.Provide(
		NewAdapter,
		func(a *Adapter) source.Adapter { return a },
	),
	fx.Invoke(probeOnStart),
)

// probeOnStart checks the shop's REST capabilities once during startup.
// A misconfigured shop URL fails fast instead of failing on the first
// webhook.
func probeOnStart(lc fx.Lifecycle, log *zap.Logger, cfg config.Config, adapter *Adapter) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.Shop.BaseURL == "" {
				log.Warn("shop base url not configured, skipping capability probe")
				return nil
			}
			return adapter.Probe(ctx)
		},
	})
}
