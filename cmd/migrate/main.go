package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-extras/cobraflags"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"pennywise/internal/config"
	"pennywise/internal/database"
	"pennywise/internal/logger"
	"pennywise/internal/services"
)

const (
	dirFlag   = "dir"
	stepsFlag = "steps"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the pennywise database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newUpCommand(), newDownCommand(), newVersionCommand(), newSeedCommand())

	if err := root.Execute(); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func dirFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		dirFlag: &cobraflags.StringFlag{
			Name:  dirFlag,
			Value: "migrations",
			Usage: "Directory containing the SQL migration files",
		},
	}
}

func newUpCommand() *cobra.Command {
	flags := dirFlags()
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			dbConfig, err := loadDatabaseConfig()
			if err != nil {
				return err
			}
			return database.Migrate(flags[dirFlag].GetString(), dbConfig.URL())
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newDownCommand() *cobra.Command {
	flags := dirFlags()
	flags[stepsFlag] = &cobraflags.StringFlag{
		Name:  stepsFlag,
		Value: "1",
		Usage: "Number of migrations to roll back",
	}
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			steps, err := strconv.Atoi(flags[stepsFlag].GetString())
			if err != nil || steps < 1 {
				return fmt.Errorf("invalid step count %q", flags[stepsFlag].GetString())
			}
			return withMigrator(flags[dirFlag].GetString(), func(m *migrate.Migrate) error {
				if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("migration down failed: %w", err)
				}
				logger.Get().Infof("Rolled back %d migration(s)", steps)
				return nil
			})
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newVersionCommand() *cobra.Command {
	flags := dirFlags()
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withMigrator(flags[dirFlag].GetString(), func(m *migrate.Migrate) error {
				version, dirty, err := m.Version()
				if err != nil {
					return fmt.Errorf("failed to get version: %w", err)
				}
				logger.Get().Infof("Version: %d, Dirty: %v", version, dirty)
				return nil
			})
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default category groups and categories",
		RunE: func(_ *cobra.Command, _ []string) error {
			dbConfig, err := loadDatabaseConfig()
			if err != nil {
				return err
			}
			manager, err := database.NewManager(dbConfig)
			if err != nil {
				return err
			}
			defer manager.Close()

			created, err := services.SeedDefaultCategories(manager.DB())
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			logger.Get().Infof("Seeded %d default rows", created)
			return nil
		},
	}
}

func loadDatabaseConfig() (*database.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return database.NewConfig(cfg), nil
}

func withMigrator(dir string, fn func(*migrate.Migrate) error) error {
	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return err
	}

	m, err := migrate.New("file://"+dir, dbConfig.URL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Get().Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			logger.Get().Warnf("migrate database close error: %v", dbErr)
		}
	}()

	return fn(m)
}
