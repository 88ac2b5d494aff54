package database

import (
	"database/sql"
	"embed"

	"journal/pkg/logger"

	_ "github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
)

const MIGRATION_DIALECT = "postgres"

//go:embed migrations/*.sql
var migrationFiles embed.FS

func MigrationSource() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
}

// RunMigrations applies up to max migrations in the given direction (0 = all) using a
// plain lib/pq connection, outside of gorm.
func RunMigrations(dsn string, direction migrate.MigrationDirection, max int) (int, error) {
	log := logger.New("database").File("migrations").Function("RunMigrations")

	db, err := sql.Open(MIGRATION_DIALECT, dsn)
	if err != nil {
		return 0, log.Err("failed to open database for migrations", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Er("failed to close migration database", err)
		}
	}()

	n, err := migrate.ExecMax(db, MIGRATION_DIALECT, MigrationSource(), direction, max)
	if err != nil {
		return n, log.Err("failed to run migrations", err, "direction", direction)
	}

	if n == 0 {
		log.Info("No migrations to apply")
	} else {
		log.Info("Applied migrations", "migrationCount", n)
	}

	return n, nil
}
