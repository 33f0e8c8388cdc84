package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/ManuelReschke/FoxPay/internal/pkg/config"
	"github.com/ManuelReschke/FoxPay/internal/pkg/env"
	"github.com/ManuelReschke/FoxPay/internal/pkg/logging"
)

var migrationsPath string

func main() {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply FoxPay database migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&migrationsPath, "path", "file://migrations", "migration source URL")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrate(func(m *migrate.Migrate, _ []string) error {
				if err := m.Up(); err != nil {
					if errors.Is(err, migrate.ErrNoChange) {
						logging.Logger.Info("no change: database is up to date")
						return nil
					}
					return err
				}
				logging.Logger.Info("migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE: withMigrate(func(m *migrate.Migrate, _ []string) error {
				if err := m.Steps(-1); err != nil {
					return err
				}
				logging.Logger.Info("rolled back last migration")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "goto VERSION",
			Short: "Migrate to a specific version",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrate(func(m *migrate.Migrate, args []string) error {
				version, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				if err := m.Migrate(uint(version)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return err
				}
				logging.Logger.Infof("database at version %d", version)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current migration version",
			Args:  cobra.NoArgs,
			RunE: withMigrate(func(m *migrate.Migrate, _ []string) error {
				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					logging.Logger.Info("no migrations applied yet")
					return nil
				}
				if err != nil {
					return err
				}
				logging.Logger.WithField("dirty", dirty).Infof("current version %d", version)
				return nil
			}),
		},
	)

	if err := root.Execute(); err != nil {
		logging.Logger.WithError(err).Error("migration failed")
		os.Exit(1)
	}
}

func withMigrate(run func(m *migrate.Migrate, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env.SetupEnvFile()
		db, err := config.LoadDatabase()
		if err != nil {
			return err
		}
		logging.Logger.WithFields(map[string]interface{}{
			"host": db.Host,
			"db":   db.Name,
		}).Info("connecting to database")

		m, err := migrate.New(migrationsPath, db.MigrateURL())
		if err != nil {
			return fmt.Errorf("init migrate: %w", err)
		}
		defer func() {
			if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
				logging.Logger.Warnf("closing migrate: %v, %v", sourceErr, dbErr)
			}
		}()
		return run(m, args)
	}
}
