package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	chargerepository "github.com/smallbiznis/chargeflow/internal/charge/repository"
	participantdomain "github.com/smallbiznis/chargeflow/internal/marketparticipant/domain"
	outcomedomain "github.com/smallbiznis/chargeflow/internal/outcome/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded SQL migrations to a Postgres database.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the schema from the row models on dialects the SQL files do not target.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&chargerepository.ChargeRow{},
		&chargerepository.ChargePeriodRow{},
		&chargerepository.ChargePointRow{},
		&participantdomain.MarketParticipant{},
		&outcomedomain.OutcomeEvent{},
	)
}

// SeedMarketParticipants registers participants that are missing. Existing rows are left untouched.
func SeedMarketParticipants(conn *gorm.DB, participants []participantdomain.MarketParticipant) error {
	for i := range participants {
		p := participants[i]
		err := conn.Where(participantdomain.MarketParticipant{MarketParticipantID: p.MarketParticipantID}).
			FirstOrCreate(&p).Error
		if err != nil {
			return fmt.Errorf("seed market participant %s: %w", p.MarketParticipantID, err)
		}
	}
	return nil
}
