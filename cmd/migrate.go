package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/buzzboard/internal/config"
	"github.com/buzzboard/internal/database"
)

// MigrateCommand returns the CLI command for applying database migrations.
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Apply database migrations",
		Action: runMigrate,
	}
}

func runMigrate(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewConnection(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Printf("Database schema at version %d (dirty: %v)\n", version, dirty)
	return nil
}
