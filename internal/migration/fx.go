package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chargeflow/internal/config"
	participantdomain "github.com/smallbiznis/chargeflow/internal/marketparticipant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, validation *config.ValidationConfigHolder, genID *snowflake.Node, log *zap.Logger) error {
		if !cfg.DBRunMigrations {
			return nil
		}

		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			log.Info("applying embedded migrations")
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			log.Info("applying schema via auto-migrate", zap.String("type", cfg.DBType))
			if err := AutoMigrate(conn); err != nil {
				return err
			}
		}

		// DataHub is always a known participant.
		return SeedMarketParticipants(conn, []participantdomain.MarketParticipant{{
			ID:                  genID.Generate(),
			MarketParticipantID: validation.Get().DataHubGLN,
			BusinessProcessRole: "DDZ",
			IsActive:            true,
		}})
	}),
)
