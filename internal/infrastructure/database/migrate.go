package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	iofs "github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"ruleout-server/migrations"
)

// MigrationState is the schema version recorded by the migrator.
type MigrationState struct {
	Version uint
	Dirty   bool
	Applied bool
}

// Migrate applies all pending SQL migrations. A dirty version left by a
// crashed run is forced clean before migrating.
func Migrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	return withMigrator(ctx, db, log, func(m *migrate.Migrate) error {
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			log.Info().Msg("no migrations have been applied yet")
		case err != nil:
			log.Warn().Err(err).Msg("error getting migration version")
		default:
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("current migration state")
		}

		if dirty {
			log.Warn().Uint("version", version).Msg("database is dirty, forcing version")
			if err := m.Force(int(version)); err != nil {
				return fmt.Errorf("force version %d to clear dirty state: %w", version, err)
			}
		}

		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				log.Info().Msg("no new migrations to apply")
				return nil
			}
			return fmt.Errorf("apply migrations: %w", err)
		}

		if finalVersion, _, err := m.Version(); err == nil {
			log.Info().Uint("version", finalVersion).Msg("migrations applied")
		}
		return nil
	})
}

// MigrateDown rolls back the given number of migrations.
func MigrateDown(ctx context.Context, db *gorm.DB, steps int, log zerolog.Logger) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive")
	}
	return withMigrator(ctx, db, log, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("roll back migrations: %w", err)
		}
		log.Info().Int("steps", steps).Msg("migrations rolled back")
		return nil
	})
}

// Version reports the current migration state.
func Version(ctx context.Context, db *gorm.DB, log zerolog.Logger) (MigrationState, error) {
	var state MigrationState
	err := withMigrator(ctx, db, log, func(m *migrate.Migrate) error {
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		if err != nil {
			return err
		}
		state = MigrationState{Version: version, Dirty: dirty, Applied: true}
		return nil
	})
	return state, err
}

func withMigrator(ctx context.Context, db *gorm.DB, log zerolog.Logger, fn func(*migrate.Migrate) error) (err error) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migration directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			log.Debug().Str("file", entry.Name()).Msg("found migration file")
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("retrieve sql db: %w", err)
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire dedicated connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("initialize postgres driver: %w", err)
	}
	defer func() {
		if closeErr := driver.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close migration connection: %w", closeErr)
		}
	}()

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	defer func() {
		if closeErr := source.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close migration source: %w", closeErr)
		}
	}()

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	return fn(m)
}
