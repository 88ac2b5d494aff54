package main

import (
	"context"
	"os"
	"strconv"

	"journal/cmd/migration/seed"
	"journal/config"
	"journal/internal/database"
	"journal/internal/services"
	"journal/pkg/logger"

	migrate "github.com/rubenv/sql-migrate"
)

func main() {
	log := logger.New("migrations").Function("main")

	config, err := config.New()
	if err != nil {
		log.Er("failed to initialize config", err)
		os.Exit(1)
	}

	migrationType := "up"
	if len(os.Args) > 1 {
		migrationType = os.Args[1]
	}

	switch migrationType {
	case "up":
		err = migrateUp(config, log)
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			steps, err = strconv.Atoi(os.Args[2])
			if err != nil || steps < 1 {
				log.Er("failed to parse steps", err, "steps", os.Args[2])
				os.Exit(1)
			}
		}
		err = migrateDown(config, steps, log)
	case "seed":
		err = migrateSeed(config, log)
	default:
		log.Warn("Unknown migration command, expected up, down or seed", "command", migrationType)
		os.Exit(2)
	}

	if err != nil {
		log.Er("failed to run migrations", err)
		os.Exit(1)
	}

	log.Info("Migrations complete")
}

func migrateUp(config config.Config, log logger.Logger) error {
	log = log.Function("migrateUp")
	log.Info("Running migrations up")

	if _, err := database.RunMigrations(database.DSN(config), migrate.Up, 0); err != nil {
		return log.Err("failed to run migrations", err)
	}
	return nil
}

func migrateDown(config config.Config, steps int, log logger.Logger) error {
	log = log.Function("migrateDown")
	log.Info("Running migrations down", "steps", steps)

	if _, err := database.RunMigrations(database.DSN(config), migrate.Down, steps); err != nil {
		return log.Err("failed to run migrations", err)
	}
	return nil
}

func migrateSeed(config config.Config, log logger.Logger) error {
	log = log.Function("migrateSeed")

	if err := migrateUp(config, log); err != nil {
		return err
	}

	db, err := database.New(config)
	if err != nil {
		return log.Err("failed to create database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Er("failed to close database", err)
		}
	}()

	ctx := context.Background()
	if err := db.Cache.FlushAll(ctx); err != nil {
		return log.Err("failed to flush cache databases", err)
	}

	log.Info("Seeding database")
	if err := seed.Seed(ctx, services.NewTransactionService(db), log); err != nil {
		return log.Err("failed to seed database", err)
	}

	return nil
}
