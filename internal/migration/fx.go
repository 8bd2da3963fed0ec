package migration

import (
	"github.com/siel/acumulus-sync/internal/config"
	entrydomain "github.com/siel/acumulus-sync/internal/entry/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The versioned migrations target postgres. Development setups on
		// sqlite get the schema from the model instead.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(&entrydomain.AcumulusEntry{})
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
