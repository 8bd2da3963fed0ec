package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/siel/acumulus-sync/internal/acumulus"
	"github.com/siel/acumulus-sync/internal/clock"
	"github.com/siel/acumulus-sync/internal/config"
	"github.com/siel/acumulus-sync/internal/entry"
	"github.com/siel/acumulus-sync/internal/invoice"
	"github.com/siel/acumulus-sync/internal/migration"
	"github.com/siel/acumulus-sync/internal/product"
	"github.com/siel/acumulus-sync/internal/providers/email"
	"github.com/siel/acumulus-sync/internal/server"
	"github.com/siel/acumulus-sync/internal/woocommerce"
	"github.com/siel/acumulus-sync/pkg/db"
	"github.com/siel/acumulus-sync/pkg/log"
	"github.com/siel/acumulus-sync/pkg/telemetry"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		telemetry.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Integrations
		woocommerce.Module,
		acumulus.Module,
		email.Module,

		// Domain
		entry.Module,
		invoice.Module,
		product.Module,

		// HTTP surface
		server.Module,
	)
	app.Run()
}

func registerSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
